package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/types"
)

type stubDownloader struct {
	target    string
	outputDir string
	audioOnly bool
	path      string
	err       error
}

func (s *stubDownloader) Download(ctx context.Context, target, outputDir string, audioOnly bool) (string, error) {
	s.target, s.outputDir, s.audioOnly = target, outputDir, audioOnly
	return s.path, s.err
}

func TestDownloadWithoutDownloaderReturnsExternalServiceError(t *testing.T) {
	r := New(nil, nil, nil, nil, nil, nil)
	_, err := r.Download(context.Background(), types.VideoLink{URL: "https://example.com/v"}, "/tmp", false)
	require.Error(t, err)
	var ce *types.CrackedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrExternalService, ce.Kind)
}

func TestDownloadTargetByQueryKind(t *testing.T) {
	cases := []struct {
		name    string
		query   types.QueryKind
		want    string
		wantErr bool
	}{
		{"video link", types.VideoLink{URL: "https://example.com/v"}, "https://example.com/v", false},
		{"file attachment", types.File{Attachment: types.Attachment{URL: "https://cdn.example.com/a.mp4"}}, "https://cdn.example.com/a.mp4", false},
		{"resolved audio", types.ResolvedAudio{Metadata: types.TrackMetadata{SourceURL: "https://example.com/r"}}, "https://example.com/r", false},
		{"keywords", types.Keywords{Text: "some song"}, "ytsearch1:some song", false},
		{"playlist link unsupported", types.PlaylistLink{URL: "https://example.com/p"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := downloadTarget(tc.query)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDownloadDispatchesToConfiguredDownloader(t *testing.T) {
	stub := &stubDownloader{path: "/data/downloads/Song [abc123].mp3"}
	r := New(nil, nil, nil, nil, nil, nil).WithDownloader(stub)

	path, err := r.Download(context.Background(), types.Keywords{Text: "some song"}, "/data/downloads", true)
	require.NoError(t, err)
	assert.Equal(t, "/data/downloads/Song [abc123].mp3", path)
	assert.Equal(t, "ytsearch1:some song", stub.target)
	assert.Equal(t, "/data/downloads", stub.outputDir)
	assert.True(t, stub.audioOnly)
}
