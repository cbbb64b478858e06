package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultGuildSettingsSeedsAllowedDomain(t *testing.T) {
	s := NewDefaultGuildSettings("1", "guild", "")
	assert.Equal(t, DefaultPrefix, s.Prefix)
	_, ok := s.AllowedDomains[DefaultStreamingDomain]
	assert.True(t, ok)
	assert.Empty(t, s.BannedDomains)
}

func TestReconcileDomainsBothNonemptyClearsBanned(t *testing.T) {
	s := NewDefaultGuildSettings("1", "guild", "")
	s.AllowedDomains = map[string]struct{}{"youtube.com": {}}
	s.BannedDomains = map[string]struct{}{"example.com": {}}
	s.ReconcileDomains()
	assert.NotEmpty(t, s.AllowedDomains)
	assert.Empty(t, s.BannedDomains)
}

func TestReconcileDomainsBothEmptySeedsDefault(t *testing.T) {
	s := NewDefaultGuildSettings("1", "guild", "")
	s.AllowedDomains = map[string]struct{}{}
	s.BannedDomains = map[string]struct{}{}
	s.ReconcileDomains()
	_, ok := s.AllowedDomains[DefaultStreamingDomain]
	assert.True(t, ok)
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 1.0, ClampVolume(2.0))
	assert.Equal(t, 0.0, ClampVolume(-1.0))
	assert.Equal(t, 0.5, ClampVolume(0.5))
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewDefaultGuildSettings("1", "guild", "")
	c := s.Clone()
	c.AllowedDomains["extra.com"] = struct{}{}
	_, ok := s.AllowedDomains["extra.com"]
	assert.False(t, ok)
}
