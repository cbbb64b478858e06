package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/recograph"
	"cracktunes/internal/resolver"
	"cracktunes/internal/settings"
	"cracktunes/internal/types"
)

// Controller holds map[guildID]*Call behind a mutex (spec §4.2, grounded
// on the teacher's mutex-protected MusicManager/per-guild bot map).
type Controller struct {
	mu    sync.Mutex
	calls map[string]*Call

	session   *discordgo.Session
	settings  *settings.Store
	resolver  *resolver.Resolver
	recommend recograph.Provider
	player    Player
	log       *zap.Logger
}

func NewController(session *discordgo.Session, st *settings.Store, res *resolver.Resolver, rec recograph.Provider, player Player, log *zap.Logger) *Controller {
	return &Controller{
		calls:     map[string]*Call{},
		session:   session,
		settings:  st,
		resolver:  res,
		recommend: rec,
		player:    player,
		log:       log,
	}
}

// Get returns the existing call for guildID, if any, without joining.
func (c *Controller) Get(guildID string) (*Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.calls[guildID]
	return call, ok
}

// GetOrJoin returns the existing call for guildID, or finds the invoking
// user's voice channel and joins it (spec §4.2).
func (c *Controller) GetOrJoin(ctx context.Context, guildID, invokingUserID string) (*Call, error) {
	if call, ok := c.Get(guildID); ok {
		return call, nil
	}

	channelID, err := c.findVoiceChannel(guildID, invokingUserID)
	if err != nil {
		return nil, err
	}

	vc, err := c.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("voice: join channel %s in guild %s: %w", channelID, guildID, err)
	}

	call := newCall(guildID, vc, c.settings, c.resolver, c.recommend, c.player, c.session, c.log)
	call.onIdleTimeout = func() { c.Leave(guildID) }

	c.mu.Lock()
	if existing, ok := c.calls[guildID]; ok {
		// Lost a race with a concurrent GetOrJoin; keep the winner.
		c.mu.Unlock()
		_ = vc.Disconnect()
		return existing, nil
	}
	c.calls[guildID] = call
	c.mu.Unlock()

	call.Start(ctx)
	c.maybeSelfDeafen(guildID, call)
	return call, nil
}

// Leave disconnects and removes guildID's call (spec §4.2).
func (c *Controller) Leave(guildID string) {
	c.mu.Lock()
	call, ok := c.calls[guildID]
	delete(c.calls, guildID)
	c.mu.Unlock()
	if !ok {
		return
	}
	if call.cancelCurrent != nil {
		call.mu.Lock()
		cancel := call.cancelCurrent
		call.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
	call.disconnect()
}

// findVoiceChannel locates invokingUserID's current voice channel in
// guildID, preferring the cached single-state lookup and falling back to a
// full guild-state scan (spec §4.2, grounded on the teacher's
// handlePlay/handleJoin voice-channel discovery in music_handlers.go).
func (c *Controller) findVoiceChannel(guildID, invokingUserID string) (string, error) {
	if vs, err := c.session.State.VoiceState(guildID, invokingUserID); err == nil && vs != nil && vs.ChannelID != "" {
		return vs.ChannelID, nil
	}

	guild, err := c.session.State.Guild(guildID)
	if err == nil && guild != nil {
		for _, vs := range guild.VoiceStates {
			if vs.UserID == invokingUserID && vs.ChannelID != "" {
				return vs.ChannelID, nil
			}
		}
	}
	return "", types.NewNotConnected(guildID)
}

// maybeSelfDeafen issues a deafen edit only if the guild setting requires
// it AND the bot's current voice state reports undeafened (spec §4.2:
// "if guild-setting self_deafen is true and the bot's voice state reports
// undeafened, issue an edit-member to deafen"). Best-effort: failures are
// logged, never surfaced, since self-deafen is cosmetic rather than
// functional.
func (c *Controller) maybeSelfDeafen(guildID string, call *Call) {
	g, ok := c.settings.Get(guildID)
	if !ok || !g.SelfDeafen {
		return
	}
	if c.session.State.User == nil {
		return
	}
	botID := c.session.State.User.ID
	if vs, err := c.session.State.VoiceState(guildID, botID); err == nil && vs != nil && (vs.Deaf || vs.SelfDeaf) {
		return
	}
	if err := c.session.GuildMemberDeafen(guildID, botID, true); err != nil && c.log != nil {
		c.log.Warn("voice: self-deafen failed", zap.String("guild_id", guildID), zap.Error(err))
	}
}
