package types

// DefaultStreamingDomain is the default allowed domain seeded when both
// allow/ban sets are empty (invariant (a)).
const DefaultStreamingDomain = "youtube.com"

// DefaultPrefix is the default command prefix for a guild with no override.
const DefaultPrefix = "r!"

// DefaultIdleTimeoutSecs is applied to a newly-created guild; 0 disables
// the idle probe entirely.
const DefaultIdleTimeoutSecs = 300

// Welcome holds the optional welcome-message configuration for a guild.
type Welcome struct {
	Channel         string
	MessageTemplate string
	AutoRole        string
}

// LogChannels maps event-log families (spec §4.5) to destination channel
// ids. Empty string means "not configured".
type LogChannels struct {
	All        string
	Raw        string
	Server     string
	Member     string
	JoinLeave  string
	Voice      string
}

// GuildSettings is the full per-guild configuration snapshot.
type GuildSettings struct {
	GuildID            string
	Prefix             string
	AdditionalPrefixes []string
	Autopause          bool
	Autoplay           bool
	SelfDeafen         bool
	Volume             float64 // 0.0-2.0 as stored; clamped to [0,1] at playback time
	PreviousVolume     float64
	IdleTimeoutSecs    int // 0 = disabled
	PremiumFlag        bool
	AllowAllDomains    bool
	AllowedDomains     map[string]struct{}
	BannedDomains      map[string]struct{}
	AuthorizedUsers    map[string]struct{}
	Welcome            Welcome
	LogChannels        LogChannels
	IgnoredChannels    map[string]struct{}
	CommandChannels    map[string]struct{}
	MusicChannel       string
}

// NewDefaultGuildSettings constructs the defaults assigned on first access
// (spec §3 "Lifecycles"): allowed domains seeded with the default streaming
// domain per invariant (a) since both sets start empty.
func NewDefaultGuildSettings(guildID, name, prefix string) *GuildSettings {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &GuildSettings{
		GuildID:         guildID,
		Prefix:          prefix,
		Volume:          1.0,
		PreviousVolume:  1.0,
		IdleTimeoutSecs: DefaultIdleTimeoutSecs,
		AllowedDomains:  map[string]struct{}{},
		BannedDomains:   map[string]struct{}{},
		AuthorizedUsers: map[string]struct{}{},
		IgnoredChannels: map[string]struct{}{},
		CommandChannels: map[string]struct{}{},
	}
	s.ReconcileDomains()
	return s
}

// Clone returns a deep-enough copy safe to hand to a caller outside the
// settings store's lock (spec §4.4 "get returns snapshot clone").
func (s *GuildSettings) Clone() *GuildSettings {
	c := *s
	c.AdditionalPrefixes = append([]string(nil), s.AdditionalPrefixes...)
	c.AllowedDomains = cloneSet(s.AllowedDomains)
	c.BannedDomains = cloneSet(s.BannedDomains)
	c.AuthorizedUsers = cloneSet(s.AuthorizedUsers)
	c.IgnoredChannels = cloneSet(s.IgnoredChannels)
	c.CommandChannels = cloneSet(s.CommandChannels)
	return &c
}

func cloneSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// ReconcileDomains enforces invariant (a) from spec §3: exactly one of
// allowed/banned is honored when AllowAllDomains is false. If both are
// nonempty, banned is cleared. If both are empty, allowed is seeded with
// the default streaming domain.
func (s *GuildSettings) ReconcileDomains() {
	if len(s.AllowedDomains) > 0 && len(s.BannedDomains) > 0 {
		s.BannedDomains = map[string]struct{}{}
		return
	}
	if len(s.AllowedDomains) == 0 && len(s.BannedDomains) == 0 {
		s.AllowedDomains = map[string]struct{}{DefaultStreamingDomain: {}}
	}
}

// ClampVolume clamps the stored volume (which may be up to 2.0 for
// historical reasons per spec §9) to the [0,1] range used at playback.
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// GuildCache is per-guild transient state not persisted across restarts.
type GuildCache struct {
	QueueMessages       []QueueMessageRef
	TimeOrderedMessages map[int64]string // unix seconds -> message id
	AutoplayFlag        bool
}

// QueueMessageRef pairs a sent queue-display message with the page it shows.
type QueueMessageRef struct {
	MessageID string
	Page      int
}

func NewGuildCache() *GuildCache {
	return &GuildCache{
		TimeOrderedMessages: map[int64]string{},
	}
}

// PlayLogRow is a single row of the play_log table / in-memory equivalent.
type PlayLogRow struct {
	UserID     int64
	GuildID    int64
	MetadataID int64
	Timestamp  int64 // unix seconds
}
