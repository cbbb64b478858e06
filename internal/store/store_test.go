package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

// TestStore_UpsertMetadataDedup requires a running Postgres instance.
// Set CRACKTUNES_TEST_DSN to a connection string to enable it.
func TestStore_UpsertMetadataDedup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dsn := os.Getenv("CRACKTUNES_TEST_DSN")
	if dsn == "" {
		t.Skip("CRACKTUNES_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, dsn, nil)
	require.NoError(t, err)
	defer s.Close()

	url := "https://example.com/dedup-test-" + time.Now().Format("150405")
	id1, err := s.UpsertMetadata(ctx, types.TrackMetadata{SourceURL: url, TrackTitle: "First"})
	require.NoError(t, err)

	id2, err := s.UpsertMetadata(ctx, types.TrackMetadata{SourceURL: url, TrackTitle: "Second"})
	require.NoError(t, err)

	require.Equal(t, id1, id2, "same source_url must dedup to the same row")
}
