package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/types"
)

// Skip implements spec §4.6's skip command: drains n-1 tracks, force-skips
// the current head, and reports what's now playing (or that the queue is
// empty). n defaults to 1 when the caller passes a non-positive count.
func Skip(d Deps, guildID string, n int) (*PlayResult, error) {
	call, ok := d.Voice.Get(guildID)
	if !ok {
		return nil, types.NewNotConnected(guildID)
	}
	if call.Len() == 0 {
		return nil, types.NewQueueEmpty()
	}

	drained, newHead, hasHead := call.Skip(n)

	desc := "Skipped the current track."
	if len(drained) > 0 {
		desc = fmt.Sprintf("Skipped %d tracks.", len(drained)+1)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "⏭️ Skipped",
		Description: desc,
		Color:       colorInfo,
	}
	if !hasHead {
		embed.Fields = []*discordgo.MessageEmbedField{{Name: "Queue", Value: "nothing left to play"}}
		return &PlayResult{Embed: embed}, nil
	}
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Now playing", Value: newHead.Metadata.Title()}}
	return &PlayResult{Embed: embed}, nil
}
