package resolver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cracktunes/internal/httpx"
	"cracktunes/internal/types"
)

// HTMLMetadataExtractor is a fallback GenericExtractor for pages yt-dlp
// doesn't recognize: it scrapes Open Graph / twitter-card tags for a title,
// thumbnail, and a direct audio URL (og:audio).
type HTMLMetadataExtractor struct {
	client *httpx.Client
}

func NewHTMLMetadataExtractor(client *httpx.Client) *HTMLMetadataExtractor {
	return &HTMLMetadataExtractor{client: client}
}

func (h *HTMLMetadataExtractor) Extract(ctx context.Context, rawURL string) (types.ResolvedAudio, error) {
	html, err := h.client.GetString(ctx, rawURL)
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("generic extractor: fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("generic extractor: parse html: %w", err)
	}

	audioURL := metaContent(doc, "og:audio", "og:audio:secure_url")
	if audioURL == "" {
		return types.ResolvedAudio{}, fmt.Errorf("generic extractor: no playable media found at %s", rawURL)
	}

	meta := types.TrackMetadata{
		TrackTitle:   metaContent(doc, "og:title", "twitter:title"),
		ThumbnailURL: metaContent(doc, "og:image", "twitter:image"),
		SourceURL:    rawURL,
	}
	if meta.TrackTitle == "" {
		meta.TrackTitle = strings.TrimSpace(doc.Find("title").First().Text())
	}

	stream, err := h.client.Raw().Get(audioURL)
	if err != nil {
		return types.ResolvedAudio{}, fmt.Errorf("generic extractor: fetch audio stream: %w", err)
	}
	return types.ResolvedAudio{Stream: bodyOrNopCloser(stream.Body), Metadata: meta}, nil
}

func metaContent(doc *goquery.Document, properties ...string) string {
	for _, prop := range properties {
		sel := doc.Find(fmt.Sprintf(`meta[property="%s"]`, prop))
		if sel.Length() == 0 {
			sel = doc.Find(fmt.Sprintf(`meta[name="%s"]`, prop))
		}
		if v, ok := sel.First().Attr("content"); ok && v != "" {
			return v
		}
	}
	return ""
}

func bodyOrNopCloser(rc io.ReadCloser) io.ReadCloser {
	if rc == nil {
		return io.NopCloser(strings.NewReader(""))
	}
	return rc
}

// ChainedExtractor tries each GenericExtractor in order, returning the
// first success. Used to fall back from yt-dlp's extractor list to plain
// Open Graph scraping.
type ChainedExtractor struct {
	Extractors []GenericExtractor
}

func (c ChainedExtractor) Extract(ctx context.Context, rawURL string) (types.ResolvedAudio, error) {
	var lastErr error
	for _, e := range c.Extractors {
		audio, err := e.Extract(ctx, rawURL)
		if err == nil {
			return audio, nil
		}
		lastErr = err
	}
	return types.ResolvedAudio{}, fmt.Errorf("generic extraction exhausted all extractors: %w", lastErr)
}
