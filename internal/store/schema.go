// Package store is the Postgres-backed metadata/play-log/user/playlist
// persistence layer (spec §6's literal SQL tables). All operations are
// best-effort from the queue engine's perspective: a write failure is
// returned as a plain wrapped error (not a *types.CrackedError), and the
// callers log it and carry on, so it never blocks playback.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddl = `
CREATE TABLE IF NOT EXISTS metadata (
    id              BIGSERIAL PRIMARY KEY,
    track           TEXT NOT NULL DEFAULT '',
    artist          TEXT NOT NULL DEFAULT '',
    album           TEXT NOT NULL DEFAULT '',
    date            TEXT NOT NULL DEFAULT '',
    channels        INTEGER NOT NULL DEFAULT 0,
    channel         TEXT NOT NULL DEFAULT '',
    start_time_secs INTEGER NOT NULL DEFAULT 0,
    duration_secs   INTEGER NOT NULL DEFAULT 0,
    sample_rate     INTEGER NOT NULL DEFAULT 0,
    source_url      TEXT NOT NULL UNIQUE,
    title           TEXT NOT NULL DEFAULT '',
    thumbnail       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS "user" (
    id          BIGSERIAL PRIMARY KEY,
    discord_id  TEXT NOT NULL UNIQUE,
    username    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS playlist (
    id       BIGSERIAL PRIMARY KEY,
    name     TEXT NOT NULL,
    user_id  BIGINT NOT NULL REFERENCES "user"(id),
    privacy  TEXT NOT NULL DEFAULT 'private'
);

CREATE TABLE IF NOT EXISTS playlist_track (
    id          BIGSERIAL PRIMARY KEY,
    playlist_id BIGINT NOT NULL REFERENCES playlist(id),
    metadata_id BIGINT NOT NULL REFERENCES metadata(id),
    guild_id    BIGINT NOT NULL,
    channel_id  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS play_log (
    user_id     BIGINT NOT NULL,
    guild_id    BIGINT NOT NULL,
    metadata_id BIGINT NOT NULL REFERENCES metadata(id),
    played_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_play_log_guild_played_at
    ON play_log (guild_id, played_at DESC);

CREATE INDEX IF NOT EXISTS idx_play_log_user_played_at
    ON play_log (user_id, played_at DESC);

CREATE TABLE IF NOT EXISTS guild (
    id      BIGINT PRIMARY KEY,
    premium BOOLEAN NOT NULL DEFAULT false
);
`

// Migrate ensures all tables and indexes from spec §6 exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
