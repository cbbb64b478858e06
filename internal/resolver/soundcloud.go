package resolver

import (
	"context"
	"fmt"
	"strings"

	"cracktunes/internal/httpx"
	"cracktunes/internal/types"
)

// SoundCloudService mirrors SpotifyService: SoundCloud track/playlist pages
// resolve to keyword queries for generic search, since this module has no
// direct SoundCloud audio decoder.
type SoundCloudService struct {
	client *httpx.Client
}

func NewSoundCloudService(client *httpx.Client) *SoundCloudService {
	return &SoundCloudService{client: client}
}

func (s *SoundCloudService) Matches(host string) bool {
	switch strings.ToLower(host) {
	case "soundcloud.com", "www.soundcloud.com", "m.soundcloud.com":
		return true
	default:
		return false
	}
}

func (s *SoundCloudService) Resolve(ctx context.Context, canonicalURL string) (types.QueryKind, error) {
	if strings.Contains(canonicalURL, "/sets/") {
		return s.setTracks(ctx, canonicalURL)
	}
	html, err := s.client.GetString(ctx, canonicalURL)
	if err != nil {
		return nil, types.NewExternalService("soundcloud", err)
	}
	title := extractHTMLTitle(html)
	if title == "" {
		return nil, types.NewExternalService("soundcloud", fmt.Errorf("no title found on soundcloud page"))
	}
	title = strings.ReplaceAll(title, " | SoundCloud", "")
	return types.Keywords{Text: title}, nil
}

// setTracks handles SoundCloud playlists ("sets"). Absent a structured
// playlist API in this module, a single keyword query derived from the set
// page title stands in for the set — callers relying on per-track
// expansion should prefer a direct track URL.
func (s *SoundCloudService) setTracks(ctx context.Context, canonicalURL string) (types.QueryKind, error) {
	html, err := s.client.GetString(ctx, canonicalURL)
	if err != nil {
		return nil, types.NewExternalService("soundcloud", err)
	}
	title := extractHTMLTitle(html)
	if title == "" {
		return nil, types.NewExternalService("soundcloud", fmt.Errorf("no title found on soundcloud set page"))
	}
	title = strings.ReplaceAll(title, " | SoundCloud", "")
	return types.ServiceTracks{Tracks: []types.ExternalTrack{{Keywords: title}}}, nil
}
