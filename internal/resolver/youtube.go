package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"cracktunes/internal/types"
)

// YtdlpExtractor shells out to yt-dlp for video-sharing hosts and any
// generic host yt-dlp's extractor list covers. It is the primary
// GenericExtractor implementation.
type YtdlpExtractor struct {
	Executable string
}

func NewYtdlpExtractor(executable string) *YtdlpExtractor {
	if executable == "" {
		executable = "yt-dlp"
	}
	return &YtdlpExtractor{Executable: executable}
}

func (y *YtdlpExtractor) Extract(ctx context.Context, rawURL string) (types.ResolvedAudio, error) {
	cmd := exec.CommandContext(ctx, y.Executable, "--dump-json", "--no-playlist", rawURL)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return types.ResolvedAudio{}, fmt.Errorf("yt-dlp extraction timed out: %w", ctx.Err())
		}
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp extraction failed: %w", err)
	}

	var info map[string]any
	if err := json.Unmarshal(output, &info); err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp returned unparseable metadata: %w", err)
	}

	meta := types.TrackMetadata{
		TrackTitle:   stringField(info, "title"),
		Artist:       stringField(info, "artist"),
		ChannelName:  stringField(info, "channel"),
		SourceURL:    rawURL,
		ThumbnailURL: stringField(info, "thumbnail"),
		Duration:     durationField(info, "duration"),
	}
	if meta.TrackTitle == "" {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp metadata has no title")
	}
	return types.ResolvedAudio{Metadata: meta}, nil
}

// SearchQuery runs a one-result yt-dlp search (ytsearch1:) and returns the
// resolved audio for the top hit, used by the generic Keywords search path.
func (y *YtdlpExtractor) SearchQuery(ctx context.Context, query string) (types.ResolvedAudio, error) {
	searchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(searchCtx, y.Executable, "--dump-json", "--default-search", "ytsearch1", query)
	output, err := cmd.Output()
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp search failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp search returned no results")
	}

	var info map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &info); err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp search returned unparseable metadata: %w", err)
	}

	videoID := stringField(info, "id")
	if videoID == "" {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp search result missing video id")
	}

	meta := types.TrackMetadata{
		TrackTitle:   stringField(info, "title"),
		ChannelName:  stringField(info, "channel"),
		SourceURL:    fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
		ThumbnailURL: stringField(info, "thumbnail"),
		Duration:     durationField(info, "duration"),
	}
	if meta.TrackTitle == "" {
		return types.ResolvedAudio{}, fmt.Errorf("yt-dlp search result missing title")
	}
	return types.ResolvedAudio{Metadata: meta}, nil
}

// ExpandPlaylist lists a playlist's member video URLs without resolving
// each one's metadata (spec §4.1's PlaylistLink handling): one shallow
// yt-dlp call rather than N full extractions, matching the flat-playlist
// convention used by yt-dlp itself.
func (y *YtdlpExtractor) ExpandPlaylist(ctx context.Context, rawURL string) ([]string, error) {
	cmd := exec.CommandContext(ctx, y.Executable, "--flat-playlist", "--print", "%(webpage_url)s", rawURL)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp playlist expansion timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp playlist expansion failed: %w", err)
	}
	var urls []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	if len(urls) > maxPlaylistTracks {
		urls = urls[:maxPlaylistTracks]
	}
	return urls, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func durationField(m map[string]any, key string) time.Duration {
	switch v := m[key].(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case int:
		return time.Duration(v) * time.Second
	case string:
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	default:
		return 0
	}
}
