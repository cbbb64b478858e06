package eventlog

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors mirror the teacher's music-embed palette (ui/embeds.go),
// reused here for gateway-event logging instead of now-playing state.
const (
	colorServer = 0x3498db // Blue
	colorJoin   = 0x2ecc71 // Green
	colorLeave  = 0xe74c3c // Red
	colorVoice  = 0x9b59b6 // Purple
	colorRaw    = 0x95a5a6 // Gray
)

// buildEmbed constructs a log embed: title/description/footer carrying the
// guild name, entity id, and timestamp, with an optional thumbnail (spec
// §4.5 step 5).
func buildEmbed(title, description, guildName, entityID, thumbnail string, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText(guildName, entityID),
		},
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return embed
}

func footerText(guildName, entityID string) string {
	if guildName == "" {
		guildName = "unknown guild"
	}
	if entityID == "" {
		return guildName
	}
	return guildName + " • ID: " + entityID
}

func avatarURL(u *discordgo.User) string {
	if u == nil || u.Avatar == "" {
		return ""
	}
	return discordgo.EndpointUserAvatar(u.ID, u.Avatar)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
