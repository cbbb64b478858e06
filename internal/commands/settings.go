package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/types"
)

// SettingsPrefix sets the guild's command prefix.
func SettingsPrefix(ctx context.Context, d Deps, guildID, prefix string) (*PlayResult, error) {
	g := d.Settings.SetPrefix(guildID, prefix)
	d.saveSettings(ctx, guildID)
	return settingsReply("Prefix updated", fmt.Sprintf("Prefix is now `%s`.", g.Prefix)), nil
}

// SettingsIdleTimeout sets idle_timeout_secs (0 disables the idle probe).
func SettingsIdleTimeout(ctx context.Context, d Deps, guildID string, secs int) (*PlayResult, error) {
	g := d.Settings.SetIdleTimeout(guildID, secs)
	d.saveSettings(ctx, guildID)
	if g.IdleTimeoutSecs <= 0 {
		return settingsReply("Idle timeout disabled", "The bot will stay connected indefinitely."), nil
	}
	return settingsReply("Idle timeout updated", fmt.Sprintf("The bot leaves after %d idle seconds.", g.IdleTimeoutSecs)), nil
}

// SettingsPremium toggles the premium flag (which disables the idle probe
// entirely regardless of idle_timeout_secs).
func SettingsPremium(ctx context.Context, d Deps, guildID string, enabled bool) (*PlayResult, error) {
	d.Settings.SetPremium(guildID, enabled)
	d.saveSettings(ctx, guildID)
	if call, ok := d.Voice.Get(guildID); ok {
		call.SetPremium(enabled)
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return settingsReply("Premium updated", fmt.Sprintf("Premium is now %s.", state)), nil
}

// SettingsSelfDeafen toggles whether the bot self-deafens on join.
func SettingsSelfDeafen(ctx context.Context, d Deps, guildID string, enabled bool) (*PlayResult, error) {
	d.Settings.SetSelfDeafen(guildID, enabled)
	d.saveSettings(ctx, guildID)
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return settingsReply("Self-deafen updated", fmt.Sprintf("Self-deafen is now %s.", state)), nil
}

// SettingsWelcome sets the welcome-message configuration.
func SettingsWelcome(ctx context.Context, d Deps, guildID string, w types.Welcome) (*PlayResult, error) {
	d.Settings.SetWelcome(guildID, w)
	d.saveSettings(ctx, guildID)
	return settingsReply("Welcome message updated", "Saved."), nil
}

// SettingsLogChannel sets one of the log-channel families (spec §4.5:
// all/raw/server/member/join_leave/voice).
func SettingsLogChannel(ctx context.Context, d Deps, guildID, family, channelID string) (*PlayResult, error) {
	d.Settings.SetLogChannel(guildID, family, channelID)
	d.saveSettings(ctx, guildID)
	return settingsReply("Log channel updated", fmt.Sprintf("`%s` logs now go to <#%s>.", family, channelID)), nil
}

// SettingsAllowedDomains replaces the allow-list with domains.
func SettingsAllowedDomains(ctx context.Context, d Deps, guildID string, domains []string) (*PlayResult, error) {
	d.Settings.SetAllowedDomains(guildID, toDomainSet(domains))
	d.saveSettings(ctx, guildID)
	return settingsReply("Allowed domains updated", describeDomains(domains)), nil
}

// SettingsBannedDomains replaces the ban-list with domains.
func SettingsBannedDomains(ctx context.Context, d Deps, guildID string, domains []string) (*PlayResult, error) {
	d.Settings.SetBannedDomains(guildID, toDomainSet(domains))
	d.saveSettings(ctx, guildID)
	return settingsReply("Banned domains updated", describeDomains(domains)), nil
}

func toDomainSet(domains []string) map[string]struct{} {
	out := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		out[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return out
}

func describeDomains(domains []string) string {
	if len(domains) == 0 {
		return "Cleared."
	}
	return strings.Join(domains, ", ")
}

func (d Deps) saveSettings(ctx context.Context, guildID string) {
	if err := d.Settings.Save(ctx, guildID); err != nil && d.Log != nil {
		d.Log.Warn("commands: settings persistence failed", zap.String("guild_id", guildID), zap.Error(err))
	}
}

func settingsReply(title, description string) *PlayResult {
	return &PlayResult{Embed: &discordgo.MessageEmbed{
		Title:       "⚙️ " + title,
		Description: description,
		Color:       colorSuccess,
	}}
}
