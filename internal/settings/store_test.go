package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

func TestGetOrCreateReturnsDefaults(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	g := s.GetOrCreate("1", "Guild", "")
	assert.Equal(t, types.DefaultPrefix, g.Prefix)
	assert.Equal(t, "1", g.GuildID)
}

func TestMutateThenGetReflectsChange(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.GetOrCreate("1", "Guild", "")
	s.Mutate("1", func(g *types.GuildSettings) {
		g.Volume = 0.5
	})
	g, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, 0.5, g.Volume)
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil, nil)
	s.GetOrCreate("42", "Guild", "x!")
	s.Mutate("42", func(g *types.GuildSettings) {
		g.Volume = 0.25
		g.Autoplay = true
	})
	require.NoError(t, s.Save(context.Background(), "42"))

	s2 := New(dir, nil, nil)
	g := s2.GetOrCreate("42", "Guild", "")
	assert.Equal(t, 0.25, g.Volume)
	assert.True(t, g.Autoplay)
	assert.Equal(t, "x!", g.Prefix)
}

func TestSetVolumeTracksPrevious(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.GetOrCreate("1", "Guild", "")
	s.SetVolume("1", 0.5)
	g, _ := s.Get("1")
	assert.Equal(t, 1.0, g.PreviousVolume)
	assert.Equal(t, 0.5, g.Volume)
}

func TestDomainInvariantEnforcedThroughMutate(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.GetOrCreate("1", "Guild", "")
	s.Mutate("1", func(g *types.GuildSettings) {
		g.AllowedDomains = map[string]struct{}{"youtube.com": {}}
		g.BannedDomains = map[string]struct{}{"example.com": {}}
	})
	g, _ := s.Get("1")
	assert.Empty(t, g.BannedDomains)
}
