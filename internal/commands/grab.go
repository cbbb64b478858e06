package commands

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"cracktunes/internal/queue"
	"cracktunes/internal/types"
)

// defaultPlaylistName is the per-user "grabbed tracks" playlist that Grab
// appends to, created lazily on first use.
const defaultPlaylistName = "grabbed"

// Grab DMs the invoking user a now-playing embed for the guild's current
// track (spec §14's resolved grab/save surface), and records it into the
// user's default playlist so a later `playlist` listing command can find
// it again.
func Grab(ctx context.Context, d Deps, guildID, channelID, invokingUserID string) (*PlayResult, error) {
	call, ok := d.Voice.Get(guildID)
	if !ok {
		return nil, types.NewNotConnected(guildID)
	}
	queued := call.Queue()
	if len(queued) == 0 {
		return nil, types.NewNothingPlaying()
	}
	current := queued[0]

	dmChannel, err := d.Session.UserChannelCreate(invokingUserID)
	if err != nil {
		return nil, types.NewExternalService("discord DM", err)
	}
	embed := nowPlayingEmbed(current, "grabbed")
	if _, err := d.Session.ChannelMessageSendEmbed(dmChannel.ID, embed); err != nil {
		return nil, types.NewExternalService("discord DM", err)
	}

	if d.Store != nil {
		d.saveGrab(ctx, invokingUserID, guildID, channelID, current)
	}

	return &PlayResult{Embed: embed}, nil
}

// saveGrab is best-effort: a failure here never undoes the DM that already
// went out, it's only logged (spec §7's persistence-failure policy).
func (d Deps) saveGrab(ctx context.Context, invokingUserID, guildID, channelID string, n *queue.Node) {
	userID, err := d.Store.UpsertUser(ctx, invokingUserID, "")
	if err != nil {
		d.warnPersist("upsert user", err)
		return
	}
	metaID, err := d.Store.UpsertMetadata(ctx, n.Metadata)
	if err != nil {
		d.warnPersist("upsert metadata", err)
		return
	}
	playlistID, err := d.Store.UpsertPlaylist(ctx, defaultPlaylistName, userID, "private")
	if err != nil {
		d.warnPersist("upsert playlist", err)
		return
	}
	gid, _ := strconv.ParseInt(guildID, 10, 64)
	cid, _ := strconv.ParseInt(channelID, 10, 64)
	if err := d.Store.AddPlaylistTrack(ctx, playlistID, metaID, gid, cid); err != nil {
		d.warnPersist("add playlist track", err)
	}
}

func (d Deps) warnPersist(op string, err error) {
	if d.Log != nil {
		d.Log.Warn(fmt.Sprintf("commands: grab persistence failed: %s", op), zap.Error(err))
	}
}
