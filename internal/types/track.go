package types

import "time"

// TrackMetadata is an immutable snapshot of a track's metadata taken at
// enqueue time. It is never mutated after creation.
type TrackMetadata struct {
	TrackTitle    string
	Artist        string
	Album         string
	ReleaseDate   string
	Channels      int
	ChannelName   string
	StartOffset   time.Duration
	Duration      time.Duration // zero Duration with Infinite=true means a live/unknown-length stream
	Infinite      bool
	SampleRate    int
	SourceURL     string
	DisplayTitle  string
	ThumbnailURL  string
}

// Title returns the best available display title, falling back to the
// track title and finally the source URL.
func (t TrackMetadata) Title() string {
	if t.DisplayTitle != "" {
		return t.DisplayTitle
	}
	if t.TrackTitle != "" {
		return t.TrackTitle
	}
	return t.SourceURL
}

// AutoplayUserID is the sentinel RequestingUser.UserID denoting a track
// enqueued by autoplay rather than a human command invocation.
const AutoplayUserID = 1

// RequestingUser identifies who asked for a track to be queued.
type RequestingUser struct {
	UserID int64
}

// IsAutoplay reports whether this track was queued by the autoplay hook.
func (u RequestingUser) IsAutoplay() bool { return u.UserID == AutoplayUserID }

// HumanReadableTimestamp renders a duration as HH:MM:SS or MM:SS, and "∞"
// for an infinite/unknown-length stream.
func HumanReadableTimestamp(d time.Duration, infinite bool) string {
	if infinite {
		return "∞"
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return formatHMS(hours, minutes, seconds)
	}
	return formatMS(minutes, seconds)
}

func formatHMS(h, m, s int) string {
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func formatMS(m, s int) string {
	return pad2(m) + ":" + pad2(s)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
