package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanReadableTimestamp(t *testing.T) {
	assert.Equal(t, "∞", HumanReadableTimestamp(0, true))
	assert.Equal(t, "59:59", HumanReadableTimestamp(3599*time.Second, false))
	assert.Equal(t, "01:01:01", HumanReadableTimestamp(3661*time.Second, false))
}

func TestRequestingUserIsAutoplay(t *testing.T) {
	assert.True(t, RequestingUser{UserID: AutoplayUserID}.IsAutoplay())
	assert.False(t, RequestingUser{UserID: 42}.IsAutoplay())
}

func TestTrackMetadataTitleFallback(t *testing.T) {
	assert.Equal(t, "display", TrackMetadata{DisplayTitle: "display", TrackTitle: "track"}.Title())
	assert.Equal(t, "track", TrackMetadata{TrackTitle: "track"}.Title())
	assert.Equal(t, "https://example.com/x", TrackMetadata{SourceURL: "https://example.com/x"}.Title())
}
