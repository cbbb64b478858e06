package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cracktunes/internal/types"
)

// Store is the central Postgres-backed persistence layer. A single pool is
// shared across goroutines (intrinsically safe for concurrent use, spec §5).
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects to dsn, migrates the schema, and returns a ready Store.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// UpsertMetadata inserts or updates a track's metadata keyed by source URL
// (the dedup key per spec §4.3) and returns its row id.
func (s *Store) UpsertMetadata(ctx context.Context, m types.TrackMetadata) (int64, error) {
	const q = `
		INSERT INTO metadata (track, artist, album, date, channels, channel,
		                       start_time_secs, duration_secs, sample_rate,
		                       source_url, title, thumbnail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (source_url) DO UPDATE SET
		    track           = EXCLUDED.track,
		    artist          = EXCLUDED.artist,
		    album           = EXCLUDED.album,
		    date            = EXCLUDED.date,
		    channels        = EXCLUDED.channels,
		    channel         = EXCLUDED.channel,
		    start_time_secs = EXCLUDED.start_time_secs,
		    duration_secs   = EXCLUDED.duration_secs,
		    sample_rate     = EXCLUDED.sample_rate,
		    title           = EXCLUDED.title,
		    thumbnail       = EXCLUDED.thumbnail
		RETURNING id`

	var id int64
	durationSecs := 0
	if !m.Infinite {
		durationSecs = int(m.Duration.Seconds())
	}
	err := s.pool.QueryRow(ctx, q,
		m.TrackTitle, m.Artist, m.Album, m.ReleaseDate, m.Channels, m.ChannelName,
		int(m.StartOffset.Seconds()), durationSecs, m.SampleRate,
		m.SourceURL, m.Title(), m.ThumbnailURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upsert metadata: %w", err)
	}
	return id, nil
}

// UpsertUser inserts or updates the user row for a Discord user id.
func (s *Store) UpsertUser(ctx context.Context, discordID, username string) (int64, error) {
	const q = `
		INSERT INTO "user" (discord_id, username)
		VALUES ($1, $2)
		ON CONFLICT (discord_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id`
	var id int64
	if err := s.pool.QueryRow(ctx, q, discordID, username).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: upsert user: %w", err)
	}
	return id, nil
}

// AppendPlayLog appends a play-log row (spec §3's PlayLog row, §4.3 "on
// every enqueue").
func (s *Store) AppendPlayLog(ctx context.Context, userID, guildID, metadataID int64) error {
	const q = `INSERT INTO play_log (user_id, guild_id, metadata_id) VALUES ($1,$2,$3)`
	if _, err := s.pool.Exec(ctx, q, userID, guildID, metadataID); err != nil {
		return fmt.Errorf("store: append play log: %w", err)
	}
	return nil
}

// UpsertGuildRow mirrors GuildSettings.PremiumFlag into the SQL guild row.
func (s *Store) UpsertGuildRow(ctx context.Context, guildID int64, premium bool) error {
	const q = `
		INSERT INTO guild (id, premium) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET premium = EXCLUDED.premium`
	if _, err := s.pool.Exec(ctx, q, guildID, premium); err != nil {
		return fmt.Errorf("store: upsert guild row: %w", err)
	}
	return nil
}

// UpsertPlaylist returns the id of userID's playlist called name, creating
// it with the given privacy if it does not exist yet.
func (s *Store) UpsertPlaylist(ctx context.Context, name string, userID int64, privacy string) (int64, error) {
	var id int64
	const find = `SELECT id FROM playlist WHERE name = $1 AND user_id = $2 ORDER BY id LIMIT 1`
	err := s.pool.QueryRow(ctx, find, name, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("store: look up playlist: %w", err)
	}
	const q = `INSERT INTO playlist (name, user_id, privacy) VALUES ($1,$2,$3) RETURNING id`
	if err := s.pool.QueryRow(ctx, q, name, userID, privacy).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: upsert playlist: %w", err)
	}
	return id, nil
}

// AddPlaylistTrack appends a track to a playlist.
func (s *Store) AddPlaylistTrack(ctx context.Context, playlistID, metadataID, guildID, channelID int64) error {
	const q = `INSERT INTO playlist_track (playlist_id, metadata_id, guild_id, channel_id) VALUES ($1,$2,$3,$4)`
	if _, err := s.pool.Exec(ctx, q, playlistID, metadataID, guildID, channelID); err != nil {
		return fmt.Errorf("store: add playlist track: %w", err)
	}
	return nil
}

// PlayLogEntry is a denormalized row for the playlog/myplaylog commands.
type PlayLogEntry struct {
	Title      string
	Artist     string
	SourceURL  string
	PlayedAt   string
}

// RecentPlayLog returns the most recently played tracks for a guild.
func (s *Store) RecentPlayLog(ctx context.Context, guildID int64, limit int) ([]PlayLogEntry, error) {
	return s.recentPlayLog(ctx, "guild_id", guildID, limit)
}

// RecentPlayLogForUser returns the most recently played tracks requested by
// a user, across all guilds.
func (s *Store) RecentPlayLogForUser(ctx context.Context, userID int64, limit int) ([]PlayLogEntry, error) {
	return s.recentPlayLog(ctx, "user_id", userID, limit)
}

func (s *Store) recentPlayLog(ctx context.Context, col string, id int64, limit int) ([]PlayLogEntry, error) {
	q := fmt.Sprintf(`
		SELECT m.title, m.artist, m.source_url, p.played_at::text
		FROM play_log p
		JOIN metadata m ON m.id = p.metadata_id
		WHERE p.%s = $1
		ORDER BY p.played_at DESC
		LIMIT $2`, col)
	rows, err := s.pool.Query(ctx, q, id, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent play log: %w", err)
	}
	defer rows.Close()

	var out []PlayLogEntry
	for rows.Next() {
		var e PlayLogEntry
		if err := rows.Scan(&e.Title, &e.Artist, &e.SourceURL, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("store: scan play log row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ErrNoRows re-exports pgx.ErrNoRows so callers don't need to import pgx
// directly just to check for it.
var ErrNoRows = pgx.ErrNoRows
