package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cracktunes/internal/types"
)

func TestMatchPrefixUsesConfiguredPrefixOrAdditional(t *testing.T) {
	g := &types.GuildSettings{Prefix: "r!", AdditionalPrefixes: []string{"!!"}}

	prefix, rest, ok := matchPrefix(g, "r!play song")
	assert.True(t, ok)
	assert.Equal(t, "r!", prefix)
	assert.Equal(t, "play song", rest)

	_, rest, ok = matchPrefix(g, "!!skip")
	assert.True(t, ok)
	assert.Equal(t, "skip", rest)

	_, _, ok = matchPrefix(g, "just chatting, no command here")
	assert.False(t, ok)
}

func TestSplitCommandSeparatesNameFromRest(t *testing.T) {
	name, rest := splitCommand("play  some song title")
	assert.Equal(t, "play", name)
	assert.Equal(t, "some song title", rest)

	name, rest = splitCommand("skip")
	assert.Equal(t, "skip", name)
	assert.Equal(t, "", rest)

	name, rest = splitCommand("   ")
	assert.Equal(t, "", name)
	assert.Equal(t, "", rest)
}

func TestParsePositiveIntFallsBackOnInvalidInput(t *testing.T) {
	assert.Equal(t, 3, parsePositiveInt("3", 1))
	assert.Equal(t, 1, parsePositiveInt("", 1))
	assert.Equal(t, 1, parsePositiveInt("not a number", 1))
	assert.Equal(t, 1, parsePositiveInt("-5", 1))
	assert.Equal(t, 1, parsePositiveInt("0", 1))
}
