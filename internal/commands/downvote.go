package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/types"
)

// Downvote implements spec §4.3/§4.6's downvote-and-skip: records a
// negative signal against the currently-playing track's source and force-
// skips it, regardless of what's left in the queue.
func Downvote(ctx context.Context, d Deps, guildID string) (*PlayResult, error) {
	call, ok := d.Voice.Get(guildID)
	if !ok {
		return nil, types.NewNotConnected(guildID)
	}
	queued := call.Queue()
	if len(queued) == 0 {
		return nil, types.NewNothingPlaying()
	}
	current := queued[0]

	newHead, hasHead := call.DownvoteAndSkip(ctx, current.Metadata.SourceURL)

	desc := "Recorded your downvote and skipped the track."
	if hasHead {
		desc += " Now playing: " + newHead.Metadata.Title()
	} else {
		desc += " The queue is now empty."
	}
	return &PlayResult{Embed: &discordgo.MessageEmbed{
		Title:       "👎 Downvoted",
		Description: desc,
		Color:       colorWarning,
	}}, nil
}
