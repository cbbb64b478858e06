package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"cracktunes/internal/httpx"
	"cracktunes/internal/types"
)

var spotifyTrackNameRe = regexp.MustCompile(`"name":"([^"]+)"[^}]*"artists":\[[^\]]*"name":"([^"]+)"`)

// SpotifyService extracts track/artist names from Spotify share pages.
// Spotify never serves audio directly, so a resolved query always comes
// back as Keywords or ServiceTracks for the generic search path to
// re-resolve, following the teacher's "convert to YouTube" strategy.
type SpotifyService struct {
	client *httpx.Client
}

func NewSpotifyService(client *httpx.Client) *SpotifyService {
	return &SpotifyService{client: client}
}

func (s *SpotifyService) Matches(host string) bool {
	switch strings.ToLower(host) {
	case "open.spotify.com", "spotify.com", "www.spotify.com":
		return true
	default:
		return false
	}
}

func (s *SpotifyService) Resolve(ctx context.Context, canonicalURL string) (types.QueryKind, error) {
	if strings.Contains(canonicalURL, "/track/") {
		name, err := s.trackName(ctx, canonicalURL)
		if err != nil {
			return nil, types.NewExternalService("spotify", err)
		}
		return types.Keywords{Text: name}, nil
	}
	if strings.Contains(canonicalURL, "/playlist/") || strings.Contains(canonicalURL, "/album/") {
		return s.playlistTracks(ctx, canonicalURL)
	}
	return nil, types.NewExternalService("spotify", fmt.Errorf("unrecognized spotify url shape"))
}

func (s *SpotifyService) trackName(ctx context.Context, pageURL string) (string, error) {
	html, err := s.client.GetString(ctx, pageURL)
	if err != nil {
		return "", err
	}
	title := extractHTMLTitle(html)
	if title == "" {
		return "", fmt.Errorf("no title found on spotify page")
	}
	title = strings.ReplaceAll(title, " | Spotify", "")
	title = strings.ReplaceAll(title, " | ", " ")
	return title, nil
}

func (s *SpotifyService) playlistTracks(ctx context.Context, pageURL string) (types.QueryKind, error) {
	html, err := s.client.GetString(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	matches := spotifyTrackNameRe.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no tracks found in spotify page")
	}

	var queries []string
	for _, m := range matches {
		if len(m) >= 3 {
			queries = append(queries, fmt.Sprintf("%s - %s", m[2], m[1]))
		}
	}
	if len(queries) > maxPlaylistTracks {
		queries = queries[:maxPlaylistTracks]
	}

	tracks := make([]types.ExternalTrack, len(queries))
	for i, q := range queries {
		tracks[i] = types.ExternalTrack{Keywords: q}
	}
	return types.ServiceTracks{Tracks: tracks}, nil
}

func extractHTMLTitle(html string) string {
	re := regexp.MustCompile(`<title>(.*?)</title>`)
	m := re.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
