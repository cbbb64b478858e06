package recograph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

type stubProvider struct {
	result types.QueryKind
	err    error
	called bool
}

func (s *stubProvider) Recommend(ctx context.Context, finished types.TrackMetadata, history map[string]struct{}) (types.QueryKind, error) {
	s.called = true
	return s.result, s.err
}

func TestChainFallsBackOnNilResult(t *testing.T) {
	first := &stubProvider{result: nil}
	second := &stubProvider{result: types.Keywords{Text: "fallback pick"}}
	c := Chain{Providers: []Provider{first, second}}

	q, err := c.Recommend(context.Background(), types.TrackMetadata{}, nil)
	require.NoError(t, err)
	assert.True(t, first.called)
	assert.True(t, second.called)
	assert.Equal(t, types.Keywords{Text: "fallback pick"}, q)
}

func TestChainStopsAtFirstNonNilResult(t *testing.T) {
	first := &stubProvider{result: types.Keywords{Text: "graph pick"}}
	second := &stubProvider{}
	c := Chain{Providers: []Provider{first, second}}

	q, err := c.Recommend(context.Background(), types.TrackMetadata{}, nil)
	require.NoError(t, err)
	assert.True(t, first.called)
	assert.False(t, second.called, "chain must not consult a fallback once a provider answers")
	assert.Equal(t, types.Keywords{Text: "graph pick"}, q)
}

func TestChainShortCircuitsOnError(t *testing.T) {
	first := &stubProvider{err: errors.New("graph unavailable")}
	second := &stubProvider{result: types.Keywords{Text: "fallback pick"}}
	c := Chain{Providers: []Provider{first, second}}

	_, err := c.Recommend(context.Background(), types.TrackMetadata{}, nil)
	assert.Error(t, err)
	assert.False(t, second.called, "an error from a provider must not be masked by a later fallback")
}
