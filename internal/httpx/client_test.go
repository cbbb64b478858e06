package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareDomains(t *testing.T) {
	assert.True(t, CompareDomains("example.com", "sub.example.com"))
	assert.True(t, CompareDomains("example.com", "example.com"))
	assert.False(t, CompareDomains("example.com", "example.org"))
	assert.False(t, CompareDomains("example.com", "notexample.com"))
}

func TestHostSuffixMatch(t *testing.T) {
	assert.True(t, HostSuffixMatch("open.spotify.com", "spotify.com"))
	assert.True(t, HostSuffixMatch("spotify.com", "spotify.com"))
	assert.False(t, HostSuffixMatch("spotify.com.evil.net", "spotify.com"))
}
