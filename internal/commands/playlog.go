package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/store"
)

const playLogDefaultLimit = 10

// PlayLog lists the most recently played tracks for a guild.
func PlayLog(ctx context.Context, d Deps, guildID string) (*PlayResult, error) {
	gid, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("commands: invalid guild id %q: %w", guildID, err)
	}
	rows, err := d.Store.RecentPlayLog(ctx, gid, playLogDefaultLimit)
	if err != nil {
		return nil, fmt.Errorf("commands: fetch play log: %w", err)
	}
	return &PlayResult{Embed: playLogEmbed("📜 Recent Plays", rows)}, nil
}

// MyPlayLog lists the most recently played tracks requested by one user,
// across every guild they've used the bot in.
func MyPlayLog(ctx context.Context, d Deps, userID string) (*PlayResult, error) {
	// play_log rows hold the internal "user".id, so map the Discord id first.
	uid, err := d.Store.UpsertUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("commands: look up user %q: %w", userID, err)
	}
	rows, err := d.Store.RecentPlayLogForUser(ctx, uid, playLogDefaultLimit)
	if err != nil {
		return nil, fmt.Errorf("commands: fetch user play log: %w", err)
	}
	return &PlayResult{Embed: playLogEmbed("📜 Your Recent Plays", rows)}, nil
}

func playLogEmbed(title string, rows []store.PlayLogEntry) *discordgo.MessageEmbed {
	if len(rows) == 0 {
		return &discordgo.MessageEmbed{Title: title, Description: "No plays recorded yet.", Color: colorInfo}
	}
	var b strings.Builder
	for i, r := range rows {
		artist := r.Artist
		if artist == "" {
			artist = "unknown artist"
		}
		fmt.Fprintf(&b, "%d. **%s** by %s (%s)\n", i+1, r.Title, artist, r.PlayedAt)
	}
	return &discordgo.MessageEmbed{Title: title, Description: b.String(), Color: colorInfo}
}
