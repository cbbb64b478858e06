package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingModeRecognizesToken(t *testing.T) {
	mode, rest, matched := ParseLeadingMode("next some song title")
	assert.True(t, matched)
	assert.Equal(t, ModeNext, mode)
	assert.Equal(t, "some song title", rest)
}

func TestParseLeadingModeNoMatch(t *testing.T) {
	mode, rest, matched := ParseLeadingMode("some song title")
	assert.False(t, matched)
	assert.Equal(t, ModeEnd, mode)
	assert.Equal(t, "some song title", rest)
}

// A query whose first word coincides with a mode name is reinterpreted as
// that mode — the documented, preserved ambiguity from spec §9.
func TestParseLeadingModeAmbiguityIsPreserved(t *testing.T) {
	mode, rest, matched := ParseLeadingMode("shuffle dance by artist")
	assert.True(t, matched)
	assert.Equal(t, ModeShuffle, mode)
	assert.Equal(t, "dance by artist", rest)
}
