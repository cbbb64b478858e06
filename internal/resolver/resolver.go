// Package resolver turns raw user input (text or an attachment) into a
// types.QueryKind the queue engine can insert. It is stateless aside from
// the shared HTTP client (spec §4.1): all state needed per call is passed
// in as arguments.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cracktunes/internal/httpx"
	"cracktunes/internal/types"
)

const (
	maxPlaylistTracks         = 50
	maxConcurrentTrackLookups = 8
)

// Service extracts tracks from a recognized streaming-service URL. A single
// track resolves to Keywords; a playlist/album resolves to ServiceTracks.
type Service interface {
	// Matches reports whether host belongs to this service.
	Matches(host string) bool
	// Resolve extracts one or more tracks from the canonical URL.
	Resolve(ctx context.Context, canonicalURL string) (types.QueryKind, error)
}

// GenericExtractor handles any host not claimed by a Service: it must
// produce a ready-to-play stream plus metadata, or fail fatally.
type GenericExtractor interface {
	Extract(ctx context.Context, rawURL string) (types.ResolvedAudio, error)
}

// AttachmentClassifier decides whether a URL's host is one of the
// platform's media CDN hosts, so the URL can be played as a File.
type AttachmentClassifier interface {
	IsPlayableAttachment(host string) bool
}

// PlaylistExpander lists a playlist URL's member video URLs, an optional
// capability of a GenericExtractor (the yt-dlp-backed one implements it).
type PlaylistExpander interface {
	ExpandPlaylist(ctx context.Context, rawURL string) ([]string, error)
}

// Searcher resolves free-text Keywords to playable audio. Separate from
// GenericExtractor because it runs a search rather than fetching a known
// URL, and only gets invoked once a Keywords query actually reaches
// playback rather than at initial dispatch time.
type Searcher interface {
	SearchQuery(ctx context.Context, query string) (types.ResolvedAudio, error)
}

// Resolver implements spec §4.1's dispatch algorithm.
type Resolver struct {
	client     *httpx.Client
	services   []Service
	generic    GenericExtractor
	searcher   Searcher
	attach     AttachmentClassifier
	downloader Downloader
	log        *zap.Logger
}

func New(client *httpx.Client, services []Service, generic GenericExtractor, searcher Searcher, attach AttachmentClassifier, log *zap.Logger) *Resolver {
	return &Resolver{client: client, services: services, generic: generic, searcher: searcher, attach: attach, log: log}
}

// ResolveKeywords runs the actual search for a Keywords query, used by the
// playback path once a queued Keywords entry reaches the head of the
// queue. Kept separate from Resolve so enqueueing never pays the cost of a
// search before the track is actually about to play.
func (r *Resolver) ResolveKeywords(ctx context.Context, text string) (types.ResolvedAudio, error) {
	if r.searcher == nil {
		return types.ResolvedAudio{}, types.NewEmptySearchResult(text)
	}
	audio, err := r.searcher.SearchQuery(ctx, text)
	if err != nil {
		return types.ResolvedAudio{}, types.NewEmptySearchResult(text)
	}
	return audio, nil
}

// Resolve runs the full dispatch algorithm against rawText. attachmentURL
// and attachmentContentType are empty when the invoking message carried no
// attachment.
func (r *Resolver) Resolve(ctx context.Context, rawText, attachmentURL, attachmentFilename, attachmentContentType string) (types.QueryKind, error) {
	if attachmentURL != "" && !looksLikeURL(rawText) {
		return types.File{Attachment: types.Attachment{
			URL:         attachmentURL,
			Filename:    attachmentFilename,
			ContentType: attachmentContentType,
		}}, nil
	}

	text := strings.TrimSpace(rawText)
	if strings.HasPrefix(text, "spotify:") {
		text = rewriteSpotifyURI(text)
	}

	if looksLikeURL(text) {
		return r.resolveURL(ctx, text)
	}

	if text == "" {
		return types.NoneQuery{}, nil
	}
	return types.Keywords{Text: text}, nil
}

func (r *Resolver) resolveURL(ctx context.Context, rawURL string) (types.QueryKind, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		// Not actually a URL despite appearances: downgrade to keywords
		// per spec §4.1 failure modes.
		return types.Keywords{Text: rawURL}, nil
	}

	for _, svc := range r.services {
		if !svc.Matches(parsed.Host) {
			continue
		}
		canonical, err := r.client.FinalURL(ctx, rawURL)
		if err != nil {
			canonical = rawURL
		}
		q, err := svc.Resolve(ctx, canonical)
		if err != nil {
			return nil, fmt.Errorf("resolver: service extraction: %w", err)
		}
		return q, nil
	}

	if r.attach != nil && r.attach.IsPlayableAttachment(parsed.Host) {
		return types.File{Attachment: types.Attachment{URL: rawURL}}, nil
	}

	if isVideoSharingHost(parsed.Host) {
		if parsed.Query().Get("list") != "" {
			return types.PlaylistLink{URL: rawURL}, nil
		}
		return types.VideoLink{URL: rawURL}, nil
	}

	audio, err := r.generic.Extract(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolver: generic extraction: %w", err)
	}
	return audio, nil
}

func looksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// rewriteSpotifyURI turns "spotify:track:ID" style URIs into the canonical
// web URL so the normal host-dispatch path can take over (spec §4.1 step 3).
func rewriteSpotifyURI(uri string) string {
	parts := strings.SplitN(strings.TrimPrefix(uri, "spotify:"), ":", 2)
	if len(parts) != 2 {
		return uri
	}
	kind, id := parts[0], parts[1]
	return fmt.Sprintf("https://open.spotify.com/%s/%s", kind, id)
}

func isVideoSharingHost(host string) bool {
	switch strings.ToLower(host) {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be":
		return true
	default:
		return false
	}
}

// GuardrailDomain picks the domain a resolved query would actually stream
// from: a URL query is checked against its own host, a Keywords query is
// checked against the configured default streaming domain since that's
// where generic search ultimately resolves (spec §4.1 guardrails).
func GuardrailDomain(q types.QueryKind) string {
	switch v := q.(type) {
	case types.VideoLink:
		return hostOf(v.URL)
	case types.PlaylistLink:
		return hostOf(v.URL)
	case types.File:
		return hostOf(v.Attachment.URL)
	case types.Keywords:
		return types.DefaultStreamingDomain
	default:
		return ""
	}
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// ExpandServiceTracks resolves each ExternalTrack's keywords to playable
// audio concurrently, bounded by maxConcurrentTrackLookups, for the "All"
// family of insertion modes that must materialize an entire playlist
// before handing it to the queue engine. Lookups that fail are dropped
// rather than aborting the whole expansion; the returned slice preserves
// the original order of the lookups that succeeded.
func (r *Resolver) ExpandServiceTracks(ctx context.Context, tracks []types.ExternalTrack) ([]types.QueryKind, error) {
	if len(tracks) > maxPlaylistTracks {
		tracks = tracks[:maxPlaylistTracks]
	}

	resolved := make([]types.QueryKind, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTrackLookups)

	for i, t := range tracks {
		idx, track := i, t
		g.Go(func() error {
			audio, err := r.ResolveKeywords(gctx, track.Keywords)
			if err != nil {
				r.log.Warn("service track expansion failed", zap.String("query", track.Keywords), zap.Error(err))
				return nil
			}
			resolved[idx] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolver: expand service tracks: %w", err)
	}

	out := resolved[:0]
	for _, q := range resolved {
		if q != nil {
			out = append(out, q)
		}
	}
	return out, nil
}

// ResolveForPlayback finalizes a queued query into playable audio right
// before it reaches the head of the queue (spec §4.1's laziness note: a
// Keywords entry only pays for a search once it's actually about to play).
// VideoLink/File entries are similarly left unresolved at enqueue time and
// finalized here.
func (r *Resolver) ResolveForPlayback(ctx context.Context, q types.QueryKind) (types.ResolvedAudio, error) {
	switch v := q.(type) {
	case types.ResolvedAudio:
		return v, nil
	case types.Keywords:
		return r.ResolveKeywords(ctx, v.Text)
	case types.VideoLink:
		audio, err := r.generic.Extract(ctx, v.URL)
		if err != nil {
			return types.ResolvedAudio{}, fmt.Errorf("resolver: playback extraction: %w", err)
		}
		return audio, nil
	case types.File:
		return r.resolveFile(ctx, v)
	default:
		return types.ResolvedAudio{}, fmt.Errorf("resolver: unsupported query kind for playback %T", q)
	}
}

func (r *Resolver) resolveFile(ctx context.Context, f types.File) (types.ResolvedAudio, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Attachment.URL, nil)
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("resolver: build attachment request: %w", err)
	}
	resp, err := r.client.Raw().Do(req)
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("resolver: fetch attachment: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return types.ResolvedAudio{}, fmt.Errorf("resolver: fetch attachment: status %d", resp.StatusCode)
	}
	return types.ResolvedAudio{
		Stream: resp.Body,
		Metadata: types.TrackMetadata{
			TrackTitle: f.Attachment.Filename,
			SourceURL:  f.Attachment.URL,
		},
	}, nil
}

// ExpandPlaylist lists rawURL's member videos as VideoLink queries, used by
// the command orchestrators when a PlaylistLink reaches the front of the
// enqueue path. Returns an error if the configured generic extractor
// doesn't support playlist listing.
func (r *Resolver) ExpandPlaylist(ctx context.Context, rawURL string) ([]types.QueryKind, error) {
	expander, ok := r.generic.(PlaylistExpander)
	if !ok {
		return nil, fmt.Errorf("resolver: generic extractor does not support playlist expansion")
	}
	urls, err := expander.ExpandPlaylist(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolver: expand playlist: %w", err)
	}
	out := make([]types.QueryKind, len(urls))
	for i, u := range urls {
		out[i] = types.VideoLink{URL: u}
	}
	return out, nil
}

// Guardrail enforces the allow/ban domain policy (spec §4.1 guardrails,
// §3 invariant (a)) against domain. Resolution happens before this check
// runs, so a rejected query still costs one resolve — queries are cheap to
// discard since nothing has been enqueued yet.
func Guardrail(settings *types.GuildSettings, domain string) error {
	if settings.AllowAllDomains || domain == "" {
		return nil
	}
	if _, banned := settings.BannedDomains[domain]; banned {
		return types.NewDomainBanned(domain)
	}
	if len(settings.AllowedDomains) > 0 {
		if _, allowed := settings.AllowedDomains[domain]; !allowed {
			return types.NewDomainNotAllowed(domain)
		}
	}
	return nil
}
