package recograph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

// TestGraphRepository_RecordAndRecommend requires a running Neo4j instance.
// Set CRACKTUNES_TEST_NEO4J_URI (plus _USER/_PASSWORD) to enable it.
func TestGraphRepository_RecordAndRecommend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	uri := os.Getenv("CRACKTUNES_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("CRACKTUNES_TEST_NEO4J_URI not set")
	}
	user := os.Getenv("CRACKTUNES_TEST_NEO4J_USER")
	pass := os.Getenv("CRACKTUNES_TEST_NEO4J_PASSWORD")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	require.NoError(t, err)
	defer driver.Close(context.Background())

	repo := NewGraphRepository(driver, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := types.TrackMetadata{SourceURL: "https://example.com/a", TrackTitle: "A"}
	b := types.TrackMetadata{SourceURL: "https://example.com/b", TrackTitle: "B"}

	require.NoError(t, repo.RecordPlay(ctx, "user1", "guild1", types.TrackMetadata{}, a))
	require.NoError(t, repo.RecordPlay(ctx, "user1", "guild1", a, b))

	q, err := repo.Recommend(ctx, a, map[string]struct{}{})
	require.NoError(t, err)
	require.NotNil(t, q, "expected a FOLLOWED_BY recommendation after one back-to-back play")

	track, ok := q.(types.ExternalTrack)
	require.True(t, ok)
	require.Equal(t, b.SourceURL, track.Keywords)
}
