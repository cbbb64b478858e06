package recograph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cracktunes/internal/types"
)

// GraphRepository is the Neo4j-backed co-listen graph: RecordPlay appends a
// (User)-[:PLAYED]->(Track) edge and strengthens a weighted
// (Track)-[:FOLLOWED_BY]->(Track) edge from the previous track.
type GraphRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewGraphRepository(driver neo4j.DriverWithContext, logger *zap.Logger) *GraphRepository {
	return &GraphRepository{driver: driver, logger: logger}
}

func (r *GraphRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// RecordPlay upserts the track node, a PLAYED edge from the user, and (when
// prev is non-empty) strengthens the FOLLOWED_BY edge from prev to this
// track by one.
func (r *GraphRepository) RecordPlay(ctx context.Context, discordUserID, guildID string, prev, played types.TrackMetadata) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	const upsertQuery = `
		MERGE (u:User {discord_id: $userID})
		MERGE (t:Track {source_url: $url})
		ON CREATE SET t.title = $title, t.artist = $artist
		MERGE (u)-[:PLAYED]->(t)
	`
	if _, err := session.Run(ctx, upsertQuery, map[string]any{
		"userID": discordUserID,
		"url":    played.SourceURL,
		"title":  played.Title(),
		"artist": played.Artist,
	}); err != nil {
		return fmt.Errorf("recograph: record play: %w", err)
	}

	if prev.SourceURL == "" || prev.SourceURL == played.SourceURL {
		return nil
	}

	const followQuery = `
		MATCH (a:Track {source_url: $from})
		MERGE (b:Track {source_url: $to})
		MERGE (a)-[f:FOLLOWED_BY]->(b)
		ON CREATE SET f.weight = 1
		ON MATCH SET f.weight = f.weight + 1
	`
	if _, err := session.Run(ctx, followQuery, map[string]any{
		"from": prev.SourceURL,
		"to":   played.SourceURL,
	}); err != nil {
		return fmt.Errorf("recograph: record follow edge: %w", err)
	}
	return nil
}

// Recommend picks the highest-weight FOLLOWED_BY candidate for the finished
// track that isn't already in the guild's recent radio history.
func (r *GraphRepository) Recommend(ctx context.Context, finished types.TrackMetadata, history map[string]struct{}) (types.QueryKind, error) {
	if finished.SourceURL == "" {
		return nil, nil
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	const query = `
		MATCH (t:Track {source_url: $url})-[f:FOLLOWED_BY]->(n)
		RETURN n.source_url AS url, n.title AS title, n.artist AS artist, f.weight AS weight
		ORDER BY f.weight DESC
		LIMIT 5
	`
	result, err := session.Run(ctx, query, map[string]any{"url": finished.SourceURL})
	if err != nil {
		return nil, fmt.Errorf("recograph: recommend: %w", err)
	}

	for result.Next(ctx) {
		rec := result.Record()
		url, _ := rec.Get("url")
		urlStr, _ := url.(string)
		if urlStr == "" {
			continue
		}
		if _, seen := history[urlStr]; seen {
			continue
		}
		title, _ := rec.Get("title")
		artist, _ := rec.Get("artist")
		titleStr, _ := title.(string)
		artistStr, _ := artist.(string)
		return types.ExternalTrack{
			Keywords: urlStr,
			Title:    titleStr,
			Artist:   artistStr,
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("recograph: iterate recommend results: %w", err)
	}
	// Cold start: no edge recorded yet for this track.
	return nil, nil
}
