package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/types"
)

// CheckAdmin enforces spec §6's permission model: the invoking member must
// either hold the administrator permission or be in the guild's
// authorized_users set (which bypasses the admin requirement for music
// commands, not the destructive admin subcommands below; callers of the
// destructive ones should ignore the authorized_users bypass and pass
// requireAdminPerm true).
func CheckAdmin(d Deps, guildID string, member *discordgo.Member, requireAdminPerm bool) error {
	if !requireAdminPerm {
		g := d.Settings.GetOrCreate(guildID, "", "")
		if _, ok := g.AuthorizedUsers[member.User.ID]; ok {
			return nil
		}
	}
	for _, roleID := range member.Roles {
		role, err := d.Session.State.Role(guildID, roleID)
		if err == nil && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return nil
		}
	}
	return types.NewUnauthorizedUser()
}

func AdminAuthorize(d Deps, guildID, userID string) (*PlayResult, error) {
	d.Settings.AddAuthorizedUser(guildID, userID)
	return settingsReply("User authorized", fmt.Sprintf("<@%s> can now use music commands without admin permissions.", userID)), nil
}

func AdminDeauthorize(d Deps, guildID, userID string) (*PlayResult, error) {
	d.Settings.RemoveAuthorizedUser(guildID, userID)
	return settingsReply("User deauthorized", fmt.Sprintf("<@%s> no longer bypasses admin permissions.", userID)), nil
}

func AdminBroadcast(d Deps, channelID, message string) (*PlayResult, error) {
	if _, err := d.Session.ChannelMessageSend(channelID, message); err != nil {
		return nil, types.NewExternalService("discord broadcast", err)
	}
	return settingsReply("Broadcast sent", "Message posted."), nil
}

func AdminMute(d Deps, guildID, userID string, mute bool) (*PlayResult, error) {
	if err := d.Session.GuildMemberMute(guildID, userID, mute); err != nil {
		return nil, types.NewExternalService("discord mute", err)
	}
	return settingsReply("Mute updated", fmt.Sprintf("<@%s> mute set to %v.", userID, mute)), nil
}

func AdminDeafen(d Deps, guildID, userID string, deafen bool) (*PlayResult, error) {
	if err := d.Session.GuildMemberDeafen(guildID, userID, deafen); err != nil {
		return nil, types.NewExternalService("discord deafen", err)
	}
	return settingsReply("Deafen updated", fmt.Sprintf("<@%s> deafen set to %v.", userID, deafen)), nil
}

func AdminKick(d Deps, guildID, userID, reason string) (*PlayResult, error) {
	if err := d.Session.GuildMemberDeleteWithReason(guildID, userID, reason); err != nil {
		return nil, types.NewExternalService("discord kick", err)
	}
	return settingsReply("Member kicked", fmt.Sprintf("<@%s> was kicked.", userID)), nil
}

func AdminBan(d Deps, guildID, userID, reason string, deleteMessageDays int) (*PlayResult, error) {
	if err := d.Session.GuildBanCreateWithReason(guildID, userID, reason, deleteMessageDays); err != nil {
		return nil, types.NewExternalService("discord ban", err)
	}
	return settingsReply("Member banned", fmt.Sprintf("<@%s> was banned.", userID)), nil
}

func AdminUnban(d Deps, guildID, userID string) (*PlayResult, error) {
	if err := d.Session.GuildBanDelete(guildID, userID); err != nil {
		return nil, types.NewExternalService("discord unban", err)
	}
	return settingsReply("Member unbanned", fmt.Sprintf("<@%s> was unbanned.", userID)), nil
}

func AdminTimeout(d Deps, guildID, userID string, until *time.Time) (*PlayResult, error) {
	if _, err := d.Session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{CommunicationDisabledUntil: until}); err != nil {
		return nil, types.NewExternalService("discord timeout", err)
	}
	return settingsReply("Member timed out", fmt.Sprintf("<@%s> was timed out.", userID)), nil
}

func AdminChannelCreate(d Deps, guildID, name string, channelType discordgo.ChannelType) (*PlayResult, error) {
	ch, err := d.Session.GuildChannelCreate(guildID, name, channelType)
	if err != nil {
		return nil, types.NewExternalService("discord channel create", err)
	}
	return settingsReply("Channel created", fmt.Sprintf("Created <#%s>.", ch.ID)), nil
}

func AdminChannelDelete(d Deps, channelID string) (*PlayResult, error) {
	if _, err := d.Session.ChannelDelete(channelID); err != nil {
		return nil, types.NewExternalService("discord channel delete", err)
	}
	return settingsReply("Channel deleted", "Done."), nil
}

func AdminMove(d Deps, guildID, userID, targetChannelID string) (*PlayResult, error) {
	if err := d.Session.GuildMemberMove(guildID, userID, &targetChannelID); err != nil {
		return nil, types.NewExternalService("discord move", err)
	}
	return settingsReply("Member moved", fmt.Sprintf("<@%s> moved to <#%s>.", userID, targetChannelID)), nil
}

func AdminSetVoiceChannelSize(d Deps, channelID string, userLimit int) (*PlayResult, error) {
	_, err := d.Session.ChannelEditComplex(channelID, &discordgo.ChannelEdit{UserLimit: userLimit})
	if err != nil {
		return nil, types.NewExternalService("discord channel edit", err)
	}
	return settingsReply("Voice channel size updated", fmt.Sprintf("User limit set to %d.", userLimit)), nil
}
