// Package settings implements the guild settings store: an in-memory map
// guarded by an RWMutex, backed by per-guild JSON files and mirrored into
// the metadata store's "guild" table.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"cracktunes/internal/types"
)

// GuildRowSync mirrors a guild's premium flag into the SQL "guild" table.
// internal/store.Store satisfies this; kept as a narrow interface here so
// this package never imports the persistence driver directly.
type GuildRowSync interface {
	UpsertGuildRow(ctx context.Context, guildID int64, premium bool) error
}

// Store is the in-memory map[guildID]*GuildSettings behind a read/write
// lock (spec §4.4, §5). Readers may run concurrently; writers are
// exclusive. Field setters go through Mutate, which reapplies the domain
// invariant; Set replaces a guild's settings wholesale without it. Neither
// writes settings.json or the SQL guild row: Save does both.
type Store struct {
	mu          sync.RWMutex
	guilds      map[string]*types.GuildSettings
	settingsDir string
	db          GuildRowSync
	log         *zap.Logger
}

// New constructs a settings store rooted at settingsDir.
func New(settingsDir string, db GuildRowSync, log *zap.Logger) *Store {
	return &Store{
		guilds:      map[string]*types.GuildSettings{},
		settingsDir: settingsDir,
		db:          db,
		log:         log,
	}
}

func (s *Store) path(guildID string) string {
	return filepath.Join(s.settingsDir, guildID+".json")
}

// Get returns a snapshot clone of the guild's settings, or (nil, false) if
// absent.
func (s *Store) Get(guildID string) (*types.GuildSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// GetOrCreate inserts defaults if missing (loading from disk first) and
// returns a snapshot.
func (s *Store) GetOrCreate(guildID, name, prefix string) *types.GuildSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok {
		return g.Clone()
	}
	g := s.loadFromDiskLocked(guildID)
	if g == nil {
		g = types.NewDefaultGuildSettings(guildID, name, prefix)
	}
	s.guilds[guildID] = g
	return g.Clone()
}

// loadFromDiskLocked must be called with s.mu held.
func (s *Store) loadFromDiskLocked(guildID string) *types.GuildSettings {
	data, err := os.ReadFile(s.path(guildID))
	if err != nil {
		return nil
	}
	var g types.GuildSettings
	if err := json.Unmarshal(data, &g); err != nil {
		if s.log != nil {
			s.log.Warn("settings: failed to parse on-disk settings, using defaults",
				zap.String("guild_id", guildID), zap.Error(err))
		}
		return nil
	}
	return &g
}

// Set overwrites a guild's settings wholesale.
func (s *Store) Set(guildID string, g *types.GuildSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[guildID] = g.Clone()
}

// Mutate atomically applies fn under the write lock and releases it before
// any I/O (the deadlock-hazard design note from spec §9: never hold the
// settings write lock across an async call that itself needs settings).
// The caller is responsible for calling Save afterward if persistence is
// desired.
func (s *Store) Mutate(guildID string, fn func(*types.GuildSettings)) *types.GuildSettings {
	s.mu.Lock()
	g, ok := s.guilds[guildID]
	if !ok {
		g = s.loadFromDiskLocked(guildID)
		if g == nil {
			g = types.NewDefaultGuildSettings(guildID, "", "")
		}
		s.guilds[guildID] = g
	}
	fn(g)
	g.ReconcileDomains()
	out := g.Clone()
	s.mu.Unlock()
	return out
}

// Save persists the current in-memory settings for guildID to its JSON
// file and mirrors the premium flag into the SQL guild row. Persistence
// failures are logged and returned, never blocking playback (spec §7).
func (s *Store) Save(ctx context.Context, guildID string) error {
	s.mu.RLock()
	g, ok := s.guilds[guildID]
	var clone *types.GuildSettings
	if ok {
		clone = g.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := os.MkdirAll(s.settingsDir, 0o755); err != nil {
		return s.persistErr("mkdir settings dir", err)
	}
	data, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return s.persistErr("marshal settings", err)
	}
	tmp := s.path(guildID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return s.persistErr("write settings file", err)
	}
	// Atomic rename avoids a torn write visible to a concurrent loader.
	if err := os.Rename(tmp, s.path(guildID)); err != nil {
		return s.persistErr("rename settings file", err)
	}

	if s.db != nil {
		gidInt, convErr := guildIDToInt64(guildID)
		if convErr == nil {
			if err := s.db.UpsertGuildRow(ctx, gidInt, clone.PremiumFlag); err != nil {
				return s.persistErr("upsert guild row", err)
			}
		}
	}
	return nil
}

func (s *Store) persistErr(op string, err error) error {
	if s.log != nil {
		s.log.Error("settings: persistence failed", zap.String("op", op), zap.Error(err))
	}
	return types.NewPersistence(op, err)
}

// LoadAll loads settings for each guild visible in the platform cache on
// startup: from disk if present, else constructs defaults (spec §4.4).
func (s *Store) LoadAll(knownGuildIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range knownGuildIDs {
		if _, ok := s.guilds[id]; ok {
			continue
		}
		g := s.loadFromDiskLocked(id)
		if g == nil {
			g = types.NewDefaultGuildSettings(id, "", "")
		}
		s.guilds[id] = g
	}
}

func guildIDToInt64(guildID string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(guildID, "%d", &n)
	return n, err
}
