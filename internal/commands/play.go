package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/queue"
	"cracktunes/internal/resolver"
	"cracktunes/internal/types"
)

// PlayRequest carries everything an invocation of "play" (or any of its
// mode-prefixed variants) needs, independent of whatever transport handed
// it to the orchestrator (prefix command or slash command).
type PlayRequest struct {
	GuildID           string
	ChannelID         string
	InvokingUserID    string
	Text              string
	AttachmentURL     string
	AttachmentName    string
	AttachmentCT      string
}

// PlayResult is what the caller (the discord message/interaction handler)
// renders back to the channel. FilePath is set only by the Download*
// modes (spec §4.3: "reply with file attachment; do not enqueue") and
// tells the transport layer to upload that file alongside Embed.
type PlayResult struct {
	Embed    *discordgo.MessageEmbed
	FilePath string
}

// Play implements spec §4.6's play algorithm: parse the leading mode
// token, resolve the remaining text/attachment to a query, expand
// playlists/service-track lists, enforce the domain guardrail, dispatch
// into the guild's Call, and persist a best-effort play-log row.
func Play(ctx context.Context, d Deps, req PlayRequest) (*PlayResult, error) {
	mode, text, _ := types.ParseLeadingMode(req.Text)
	req.Text = text
	return playWithMode(ctx, d, req, mode)
}

// playWithMode is the shared implementation behind Play and PlayNext: mode
// is already decided by the caller, so req.Text is taken as-is rather than
// re-parsed for a leading mode token.
func playWithMode(ctx context.Context, d Deps, req PlayRequest, mode types.PlaybackMode) (*PlayResult, error) {
	if req.GuildID == "" {
		return nil, types.NewNoGuildID()
	}

	text := req.Text
	if text == "" && req.AttachmentURL == "" {
		return nil, types.NewNoQuery()
	}

	g := d.Settings.GetOrCreate(req.GuildID, "", "")

	query, err := d.Resolver.Resolve(ctx, text, req.AttachmentURL, req.AttachmentName, req.AttachmentCT)
	if err != nil {
		return nil, types.NewAudioStream("resolve query", err)
	}
	if _, isNone := query.(types.NoneQuery); isNone {
		return nil, types.NewNoQuery()
	}

	if domain := resolver.GuardrailDomain(query); domain != "" {
		if err := resolver.Guardrail(g, domain); err != nil {
			return nil, err
		}
	}

	if mode == types.ModeDownloadContainer || mode == types.ModeDownloadAudio {
		return downloadReply(ctx, d, query, mode)
	}

	nodes, err := expandQuery(ctx, d, query, mode)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, types.NewEmptySearchResult(text)
	}

	call, err := d.Voice.GetOrJoin(ctx, req.GuildID, req.InvokingUserID)
	if err != nil {
		return nil, err
	}

	requester := types.RequestingUser{UserID: mustParseUserID(req.InvokingUserID)}
	for _, n := range nodes {
		n.Requester = requester
	}

	dispatchMode := mode
	if mode == types.ModeSearch {
		// The picker variant still just queues the top hit today (see
		// search.go); the queue engine has no "search" insertion mode of
		// its own, so it dispatches like a plain play.
		dispatchMode = types.ModeEnd
	}

	ordered := queue.OrderForMode(dispatchMode, nodes)
	jumped, queueLen, insertIndex, err := call.Dispatch(dispatchMode, ordered)
	if err != nil {
		return nil, types.NewAudioStream("dispatch to queue", err)
	}

	d.persistEnqueue(ctx, req.GuildID, requester, ordered)

	return buildPlayReply(ordered, dispatchMode, jumped, queueLen, insertIndex), nil
}

// expandQuery turns a resolved QueryKind into one or more queue.Node
// values. Keywords/VideoLink/File/ResolvedAudio stay lazy (a single node
// whose Query is resolved later by voice.Call's playback loop);
// PlaylistLink and ServiceTracks must be expanded eagerly since the queue
// engine has no notion of "one entry that is secretly many".
func expandQuery(ctx context.Context, d Deps, q types.QueryKind, mode types.PlaybackMode) ([]*queue.Node, error) {
	switch v := q.(type) {
	case types.PlaylistLink:
		links, err := d.Resolver.ExpandPlaylist(ctx, v.URL)
		if err != nil {
			return nil, types.NewAudioStream("expand playlist", err)
		}
		nodes := make([]*queue.Node, len(links))
		for i, link := range links {
			nodes[i] = &queue.Node{Query: link}
		}
		return nodes, nil

	case types.ServiceTracks:
		resolved, err := d.Resolver.ExpandServiceTracks(ctx, v.Tracks)
		if err != nil {
			return nil, types.NewAudioStream("expand service tracks", err)
		}
		nodes := make([]*queue.Node, len(resolved))
		for i, r := range resolved {
			audio, ok := r.(types.ResolvedAudio)
			if !ok {
				nodes[i] = &queue.Node{Query: r}
				continue
			}
			nodes[i] = &queue.Node{Query: audio, Metadata: audio.Metadata}
		}
		return nodes, nil

	case types.KeywordList:
		nodes := make([]*queue.Node, len(v.Items))
		for i, item := range v.Items {
			nodes[i] = &queue.Node{Query: types.Keywords{Text: item}}
		}
		return nodes, nil

	default:
		return []*queue.Node{{Query: q}}, nil
	}
}

// persistEnqueue writes the best-effort metadata/user/play-log rows for
// each dispatched node whose metadata is already known at enqueue time.
// Lazily-resolved nodes (no title yet, e.g. Keywords) get no metadata or
// play-log row, neither here nor later at playback. Failures are logged
// and swallowed, persistence never blocks playback (spec §7).
func (d Deps) persistEnqueue(ctx context.Context, guildID string, requester types.RequestingUser, nodes []*queue.Node) {
	if d.Store == nil {
		return
	}
	gid, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return
	}
	userID, err := d.Store.UpsertUser(ctx, fmt.Sprintf("%d", requester.UserID), "")
	if err != nil {
		if d.Log != nil {
			d.Log.Warn("commands: upsert user failed", zap.Error(err))
		}
		return
	}
	for _, n := range nodes {
		if n.Metadata.Title() == "" {
			// Lazily-resolved node; metadata isn't known yet and this
			// orchestrator only sees what Resolve returned at enqueue time.
			continue
		}
		metaID, err := d.Store.UpsertMetadata(ctx, n.Metadata)
		if err != nil {
			if d.Log != nil {
				d.Log.Warn("commands: upsert metadata failed", zap.Error(err))
			}
			continue
		}
		if err := d.Store.AppendPlayLog(ctx, userID, gid, metaID); err != nil && d.Log != nil {
			d.Log.Warn("commands: append play log failed", zap.Error(err))
		}
	}
}

// downloadReply implements the Download* row of spec §4.3's mode table:
// invoke the external downloader subprocess and reply with the resulting
// file rather than enqueuing anything. ModeDownloadAudio extracts mp3;
// ModeDownloadContainer remuxes the original container to webm.
func downloadReply(ctx context.Context, d Deps, query types.QueryKind, mode types.PlaybackMode) (*PlayResult, error) {
	path, err := d.Resolver.Download(ctx, query, d.DownloadDir, mode == types.ModeDownloadAudio)
	if err != nil {
		return nil, err
	}
	return &PlayResult{Embed: downloadReadyEmbed(path), FilePath: path}, nil
}

// buildPlayReply picks the status-message-edit embed from spec §4.6 step 5.
// mode must be the mode the queue engine actually dispatched with (not a
// pre-rewrite mode like ModeSearch), since Next/Jump get distinct wording
// and a real insertion index rather than the raw post-dispatch queue length
// (spec §8 invariant 2, literal scenario S2).
func buildPlayReply(nodes []*queue.Node, mode types.PlaybackMode, jumped bool, queueLen, insertIndex int) *PlayResult {
	if len(nodes) > 1 {
		return &PlayResult{Embed: playlistQueuedEmbed(len(nodes), mode)}
	}
	if jumped || queueLen == 1 {
		return &PlayResult{Embed: nowPlayingEmbed(nodes[0], "00:00")}
	}
	return &PlayResult{Embed: songAddedEmbed(nodes[0], mode, queueLen, insertIndex)}
}

func mustParseUserID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
