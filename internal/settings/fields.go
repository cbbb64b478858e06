package settings

import "cracktunes/internal/types"

// Field-level accessors (spec §4.4): each goes through Mutate/Get so every
// caller gets the appropriate lock without hand-rolling it.

func (s *Store) SetMusicChannel(guildID, channelID string) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.MusicChannel = channelID
	})
}

func (s *Store) SetIdleTimeout(guildID string, secs int) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.IdleTimeoutSecs = secs
	})
}

func (s *Store) SetPremium(guildID string, premium bool) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.PremiumFlag = premium
	})
}

func (s *Store) SetPrefix(guildID, prefix string) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.Prefix = prefix
	})
}

func (s *Store) SetAutopause(guildID string, v bool) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.Autopause = v
	})
}

func (s *Store) SetAutoplay(guildID string, v bool) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.Autoplay = v
	})
}

func (s *Store) SetSelfDeafen(guildID string, v bool) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.SelfDeafen = v
	})
}

// SetVolume stores the new guild-level volume, keeping track of the
// previous value so commands can report "changed from X% to Y%" (S4).
// It does not apply the change to any currently-playing track — that is
// the caller's (commands.Volume) responsibility, since playback volume is
// applied through the voice package, not the settings store.
func (s *Store) SetVolume(guildID string, v float64) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.PreviousVolume = g.Volume
		g.Volume = v
	})
}

func (s *Store) SetAllowedDomains(guildID string, domains map[string]struct{}) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.AllowedDomains = domains
	})
}

func (s *Store) SetBannedDomains(guildID string, domains map[string]struct{}) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.BannedDomains = domains
	})
}

func (s *Store) SetLogChannel(guildID string, family string, channelID string) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		switch family {
		case "all":
			g.LogChannels.All = channelID
		case "raw":
			g.LogChannels.Raw = channelID
		case "server":
			g.LogChannels.Server = channelID
		case "member":
			g.LogChannels.Member = channelID
		case "join_leave":
			g.LogChannels.JoinLeave = channelID
		case "voice":
			g.LogChannels.Voice = channelID
		}
	})
}

func (s *Store) SetWelcome(guildID string, w types.Welcome) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		g.Welcome = w
	})
}

func (s *Store) AddAuthorizedUser(guildID, userID string) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		if g.AuthorizedUsers == nil {
			g.AuthorizedUsers = map[string]struct{}{}
		}
		g.AuthorizedUsers[userID] = struct{}{}
	})
}

func (s *Store) RemoveAuthorizedUser(guildID, userID string) *types.GuildSettings {
	return s.Mutate(guildID, func(g *types.GuildSettings) {
		delete(g.AuthorizedUsers, userID)
	})
}
