// Package httpx provides the shared outbound HTTP client and small URL
// utilities used by the query resolver's provider adapters.
package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps a shared *resty.Client configured with a sane default
// timeout, a couple of retries, and a descriptive user agent. One instance
// is constructed in cmd/bot and passed down to every collaborator that
// needs to make an outbound request — no package-level global.
type Client struct {
	rc *resty.Client
}

// New constructs the shared HTTP client.
func New() *Client {
	rc := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond).
		SetHeader("User-Agent", "cracktunes/1.0 (+voice-session-engine)")
	return &Client{rc: rc}
}

// GetString performs a GET request and returns the response body as a
// string, following redirects via resty's default client behavior.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

// FinalURL performs a request and returns the URL resolved after following
// any redirects, used to canonicalize streaming-service links before
// calling the service extractor (spec §4.1 step 2).
func (c *Client) FinalURL(ctx context.Context, url string) (string, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if req := resp.Request; req != nil && req.RawRequest != nil && req.RawRequest.URL != nil {
		return req.RawRequest.URL.String(), nil
	}
	return url, nil
}

// Raw exposes the underlying *http.Client for collaborators that need one
// directly (e.g. a library expecting the stdlib interface).
func (c *Client) Raw() *http.Client {
	return c.rc.GetClient()
}

// CompareDomains reports whether host b is the same domain as a or a
// subdomain of a (testable property §8.9): CompareDomains("example.com",
// "sub.example.com") is true; CompareDomains("example.com", "example.org")
// is false.
func CompareDomains(a, b string) bool {
	a = strings.ToLower(strings.TrimSuffix(a, "."))
	b = strings.ToLower(strings.TrimSuffix(b, "."))
	if a == b {
		return true
	}
	return strings.HasSuffix(b, "."+a)
}

// HostSuffixMatch reports whether host ends in suffix or is exactly
// suffix, used for the resolver's streaming-service/CDN/video-host
// dispatch by host-suffix match.
func HostSuffixMatch(host, suffix string) bool {
	host = strings.ToLower(host)
	suffix = strings.ToLower(suffix)
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}
