// Package eventlog implements the event-routing logger (spec §4.5): a
// classification table mapping inbound platform gateway events to
// configurable per-guild log channels, an embed-building layer grounded on
// the teacher's ui/embeds.go conventions, and an async JSON-lines sink.
package eventlog

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/settings"
	"cracktunes/internal/types"
)

// family names the log-channel bucket an event routes to before falling
// back to "all" (spec §4.5's classification table, enriched here to use
// every field of types.LogChannels rather than collapsing everything onto
// just server/all).
type family int

const (
	familyAll family = iota
	familyServer
	familyJoinLeave
	familyMember
	familyVoice
	familyRaw
)

// Router dispatches discordgo gateway events to log channels and the
// event-log sink. One Router serves every guild the session is a member of.
type Router struct {
	mu     sync.Mutex
	caches map[string]*types.GuildCache

	session  *discordgo.Session
	settings *settings.Store
	sink     Sink
	log      *zap.Logger
}

// NewRouter constructs a Router. session is used both to read guild names
// for embed footers and to send the log embeds themselves.
func NewRouter(session *discordgo.Session, st *settings.Store, sink Sink, log *zap.Logger) *Router {
	return &Router{
		caches:   map[string]*types.GuildCache{},
		session:  session,
		settings: st,
		sink:     sink,
		log:      log,
	}
}

// Register attaches every handler the router classifies events for. Called
// exactly once, after the session is constructed but before Open.
func (r *Router) Register(s *discordgo.Session) {
	s.AddHandler(r.onGuildBanAdd)
	s.AddHandler(r.onGuildBanRemove)
	s.AddHandler(r.onGuildMemberAdd)
	s.AddHandler(r.onGuildMemberRemove)
	s.AddHandler(r.onGuildMemberUpdate)
	s.AddHandler(r.onGuildCreate)
	s.AddHandler(r.onGuildDelete)
	s.AddHandler(r.onGuildUpdate)
	s.AddHandler(r.onGuildRoleCreate)
	s.AddHandler(r.onGuildRoleUpdate)
	s.AddHandler(r.onGuildRoleDelete)
	s.AddHandler(r.onGuildScheduledEventCreate)
	s.AddHandler(r.onGuildScheduledEventUpdate)
	s.AddHandler(r.onGuildScheduledEventDelete)
	s.AddHandler(r.onGuildStickersUpdate)
	s.AddHandler(r.onMessageCreate)
	s.AddHandler(r.onMessageUpdate)
	s.AddHandler(r.onVoiceStateUpdate)
}

func (r *Router) cacheFor(guildID string) *types.GuildCache {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[guildID]
	if !ok {
		c = types.NewGuildCache()
		r.caches[guildID] = c
	}
	return c
}

// Cache exposes the per-guild transient cache (spec §5 "guild_cache_map —
// protected by a mutex") for callers elsewhere (e.g. bulk queue-message
// cleanup) that need it outside an event handler.
func (r *Router) Cache(guildID string) *types.GuildCache {
	return r.cacheFor(guildID)
}

func (r *Router) guildName(guildID string) string {
	if r.session == nil {
		return ""
	}
	g, err := r.session.State.Guild(guildID)
	if err != nil || g == nil {
		return ""
	}
	return g.Name
}

// channelFor resolves family to a destination channel id under g's
// configuration, falling back to "all" at every level (spec §4.5 step 3).
func channelFor(g *types.GuildSettings, f family) string {
	switch f {
	case familyServer:
		if g.LogChannels.Server != "" {
			return g.LogChannels.Server
		}
	case familyJoinLeave:
		if g.LogChannels.JoinLeave != "" {
			return g.LogChannels.JoinLeave
		}
		if g.LogChannels.Server != "" {
			return g.LogChannels.Server
		}
	case familyMember:
		if g.LogChannels.Member != "" {
			return g.LogChannels.Member
		}
	case familyVoice:
		if g.LogChannels.Voice != "" {
			return g.LogChannels.Voice
		}
	case familyRaw:
		if g.LogChannels.Raw != "" {
			return g.LogChannels.Raw
		}
	}
	return g.LogChannels.All
}

// emit is the common path for steps 2-6 of spec §4.5: read log_channels
// under the settings store's read lock, honor ignored_channels, send the
// embed, and append to the sink.
func (r *Router) emit(guildID, originChannelID string, f family, title, description, entityID, thumbnail string, color int, eventName, notes string, payload any) {
	if guildID == "" {
		return
	}
	g, ok := r.settings.Get(guildID)
	if !ok {
		return
	}
	if originChannelID != "" {
		if _, ignored := g.IgnoredChannels[originChannelID]; ignored {
			return
		}
	}

	channelID := channelFor(g, f)
	if channelID != "" && r.session != nil {
		embed := buildEmbed(title, description, r.guildName(guildID), entityID, thumbnail, color)
		if _, err := r.session.ChannelMessageSendEmbed(channelID, embed); err != nil && r.log != nil {
			r.log.Debug("eventlog: send failed", zap.String("guild_id", guildID), zap.String("channel_id", channelID), zap.Error(err))
		}
	} else if channelID == "" && r.log != nil {
		r.log.Debug("eventlog: no configured channel", zap.String("guild_id", guildID), zap.Int("family", int(f)))
	}

	if r.sink != nil {
		r.sink.Write(guildID, LogEntry{Name: eventName, Notes: notes, Event: payload})
	}
}

func (r *Router) onGuildBanAdd(s *discordgo.Session, e *discordgo.GuildBanAdd) {
	name := "unknown user"
	id := ""
	if e.User != nil {
		name, id = e.User.Username, e.User.ID
	}
	r.emit(e.GuildID, "", familyServer, "Member Banned", name, id, avatarURL(e.User), colorLeave, "GUILD_BAN_ADD", "", e)
}

func (r *Router) onGuildBanRemove(s *discordgo.Session, e *discordgo.GuildBanRemove) {
	name := "unknown user"
	id := ""
	if e.User != nil {
		name, id = e.User.Username, e.User.ID
	}
	r.emit(e.GuildID, "", familyServer, "Member Unbanned", name, id, avatarURL(e.User), colorJoin, "GUILD_BAN_REMOVE", "", e)
}

func (r *Router) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.Member.User == nil {
		return
	}
	r.emit(e.GuildID, "", familyJoinLeave, "Member Joined", e.Member.User.Username, e.Member.User.ID, avatarURL(e.Member.User), colorJoin, "GUILD_MEMBER_ADD", "", e)
}

func (r *Router) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if e.Member == nil || e.Member.User == nil {
		return
	}
	r.emit(e.GuildID, "", familyJoinLeave, "Member Left", e.Member.User.Username, e.Member.User.ID, avatarURL(e.Member.User), colorLeave, "GUILD_MEMBER_REMOVE", "", e)
}

// memberUpdateClassification synthesizes a higher-level classification by
// diffing old/new member (spec §4.5 special case).
func memberUpdateClassification(before, after *discordgo.Member) (title, notes string) {
	if before == nil || after == nil {
		return "Member Updated", "generic"
	}
	if before.Avatar != after.Avatar {
		return "Member Avatar Changed", "avatar_change"
	}
	if before.Pending != nil && *before.Pending && (after.Pending == nil || !*after.Pending) {
		return "Member Approved", "approval"
	}
	return "Member Updated", "generic"
}

func (r *Router) onGuildMemberUpdate(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e.Member == nil || e.Member.User == nil {
		return
	}
	title, notes := memberUpdateClassification(e.BeforeUpdate, e.Member)
	r.emit(e.GuildID, "", familyMember, title, e.Member.User.Username, e.Member.User.ID, avatarURL(e.Member.User), colorServer, "GUILD_MEMBER_UPDATE", notes, e)
}

func (r *Router) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	if e.Guild == nil {
		return
	}
	r.emit(e.Guild.ID, "", familyServer, "Guild Available", e.Guild.Name, e.Guild.ID, "", colorServer, "GUILD_CREATE", "", e)
}

func (r *Router) onGuildDelete(s *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Guild == nil {
		return
	}
	r.emit(e.Guild.ID, "", familyServer, "Guild Unavailable", e.Guild.Name, e.Guild.ID, "", colorLeave, "GUILD_DELETE", "", e)
}

func (r *Router) onGuildUpdate(s *discordgo.Session, e *discordgo.GuildUpdate) {
	if e.Guild == nil {
		return
	}
	r.emit(e.Guild.ID, "", familyServer, "Guild Settings Changed", e.Guild.Name, e.Guild.ID, "", colorServer, "GUILD_UPDATE", "", e)
}

func (r *Router) onGuildRoleCreate(s *discordgo.Session, e *discordgo.GuildRoleCreate) {
	if e.Role == nil {
		return
	}
	r.emit(e.GuildID, "", familyServer, "Role Created", e.Role.Name, e.Role.ID, "", colorJoin, "GUILD_ROLE_CREATE", "", e)
}

func (r *Router) onGuildRoleUpdate(s *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	if e.Role == nil {
		return
	}
	r.emit(e.GuildID, "", familyServer, "Role Updated", e.Role.Name, e.Role.ID, "", colorServer, "GUILD_ROLE_UPDATE", "", e)
}

func (r *Router) onGuildRoleDelete(s *discordgo.Session, e *discordgo.GuildRoleDelete) {
	r.emit(e.GuildID, "", familyServer, "Role Deleted", e.RoleID, e.RoleID, "", colorLeave, "GUILD_ROLE_DELETE", "", e)
}

func (r *Router) onGuildScheduledEventCreate(s *discordgo.Session, e *discordgo.GuildScheduledEventCreate) {
	if e.GuildScheduledEvent == nil {
		return
	}
	r.emit(e.GuildID, "", familyServer, "Scheduled Event Created", e.Name, e.ID, "", colorJoin, "GUILD_SCHEDULED_EVENT_CREATE", "", e)
}

func (r *Router) onGuildScheduledEventUpdate(s *discordgo.Session, e *discordgo.GuildScheduledEventUpdate) {
	if e.GuildScheduledEvent == nil {
		return
	}
	r.emit(e.GuildID, "", familyServer, "Scheduled Event Updated", e.Name, e.ID, "", colorServer, "GUILD_SCHEDULED_EVENT_UPDATE", "", e)
}

func (r *Router) onGuildScheduledEventDelete(s *discordgo.Session, e *discordgo.GuildScheduledEventDelete) {
	if e.GuildScheduledEvent == nil {
		return
	}
	r.emit(e.GuildID, "", familyServer, "Scheduled Event Deleted", e.Name, e.ID, "", colorLeave, "GUILD_SCHEDULED_EVENT_DELETE", "", e)
}

func (r *Router) onGuildStickersUpdate(s *discordgo.Session, e *discordgo.GuildStickersUpdate) {
	r.emit(e.GuildID, "", familyServer, "Stickers Updated", "", e.GuildID, "", colorServer, "GUILD_STICKERS_UPDATE", "", e)
}

// onMessageCreate implements the own-bot tracking and bot-authored filtering
// special cases from spec §4.5.
func (r *Router) onMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e.GuildID == "" || e.Message == nil || e.Author == nil {
		return
	}
	if s.State.User != nil && e.Author.ID == s.State.User.ID {
		cache := r.cacheFor(e.GuildID)
		r.mu.Lock()
		cache.TimeOrderedMessages[time.Now().Unix()] = e.ID
		r.mu.Unlock()
		return
	}
	if e.Author.Bot {
		return
	}
	r.emit(e.GuildID, e.ChannelID, familyRaw, "Message Created", truncate(e.Content, 200), e.ID, avatarURL(e.Author), colorRaw, "MESSAGE_CREATE", "", e)
}

func (r *Router) onMessageUpdate(s *discordgo.Session, e *discordgo.MessageUpdate) {
	if e.GuildID == "" || e.Message == nil || e.Author == nil {
		return
	}
	if s.State.User != nil && e.Author.ID == s.State.User.ID {
		return
	}
	if e.Author.Bot {
		return
	}
	r.emit(e.GuildID, e.ChannelID, familyRaw, "Message Updated", truncate(e.Content, 200), e.ID, avatarURL(e.Author), colorRaw, "MESSAGE_UPDATE", "", e)
}

func (r *Router) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil {
		return
	}
	title := "Voice State Changed"
	if e.ChannelID == "" {
		title = "Left Voice Channel"
	} else if e.BeforeUpdate == nil || e.BeforeUpdate.ChannelID == "" {
		title = "Joined Voice Channel"
	}
	r.emit(e.GuildID, "", familyVoice, title, e.UserID, e.UserID, "", colorVoice, "VOICE_STATE_UPDATE", "", e)
}
