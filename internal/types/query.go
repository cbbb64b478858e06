package types

import "io"

// QueryKind is the tagged union of everything the query resolver can
// produce from a user request. Go has no sum types, so each variant is a
// concrete struct implementing the unexported marker method; callers
// switch on the concrete type (the idiomatic substitute used throughout
// this codebase for closed variant sets).
type QueryKind interface {
	isQueryKind()
}

// Keywords is free text to be resolved by generic search.
type Keywords struct {
	Text string
}

func (Keywords) isQueryKind() {}

// KeywordList is an ordered list of free-text queries, e.g. one per line
// of a pasted playlist.
type KeywordList struct {
	Items []string
}

func (KeywordList) isQueryKind() {}

// VideoLink is a single playable URL.
type VideoLink struct {
	URL string
}

func (VideoLink) isQueryKind() {}

// PlaylistLink resolves to N tracks from a video-sharing playlist URL.
type PlaylistLink struct {
	URL string
}

func (PlaylistLink) isQueryKind() {}

// Attachment is a direct media attachment (platform CDN upload).
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// File wraps an attachment resolved directly from a message upload.
type File struct {
	Attachment Attachment
}

func (File) isQueryKind() {}

// ExternalTrack is a single provider-resolved track carrying query-ready
// keywords (e.g. "Artist - Title") for downstream generic search.
type ExternalTrack struct {
	Keywords string
	Title    string
	Artist   string
}

func (ExternalTrack) isQueryKind() {}

// ServiceTracks is a list of provider-resolved tracks, e.g. a streaming
// service playlist or album.
type ServiceTracks struct {
	Tracks []ExternalTrack
}

func (ServiceTracks) isQueryKind() {}

// ResolvedAudio is already-extracted: a stream handle plus metadata, as
// produced by the generic extractor.
type ResolvedAudio struct {
	Stream   io.ReadCloser
	Metadata TrackMetadata
}

func (ResolvedAudio) isQueryKind() {}

// SearchQuery requests an interactive search picker.
type SearchQuery struct {
	Text string
}

func (SearchQuery) isQueryKind() {}

// NoneQuery is the absence sentinel.
type NoneQuery struct{}

func (NoneQuery) isQueryKind() {}
