package commands

import (
	"fmt"
	"path/filepath"

	"github.com/bwmarrin/discordgo"

	"cracktunes/internal/queue"
	"cracktunes/internal/types"
)

// Embed colors mirror the teacher's ui/embeds.go palette.
const (
	colorSuccess = 0x2ecc71
	colorInfo    = 0x3498db
	colorWarning = 0xf39c12
)

// nowPlayingEmbed builds the now-playing embed from spec §4.6: title
// (linked), artist, album, duration, requested-by mention, thumbnail,
// progress bar, footer showing the source host.
func nowPlayingEmbed(n *queue.Node, elapsed string) *discordgo.MessageEmbed {
	m := n.Metadata
	title := m.Title()
	if m.SourceURL != "" {
		title = fmt.Sprintf("[%s](%s)", title, m.SourceURL)
	}

	duration := types.HumanReadableTimestamp(m.Duration, m.Infinite)
	fields := []*discordgo.MessageEmbedField{
		{Name: "Duration", Value: fmt.Sprintf("%s / %s", elapsed, duration), Inline: true},
		{Name: "Requested by", Value: requesterMention(n.Requester), Inline: true},
	}
	if m.Artist != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Artist", Value: m.Artist, Inline: true})
	}
	if m.Album != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Album", Value: m.Album, Inline: true})
	}

	var thumbnail *discordgo.MessageEmbedThumbnail
	if m.ThumbnailURL != "" {
		thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.ThumbnailURL}
	}

	return &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: title,
		Color:       colorSuccess,
		Thumbnail:   thumbnail,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: sourceHostFooter(m.SourceURL)},
	}
}

// songAddedEmbed builds the reply shown for a single-track enqueue that
// neither started playing immediately nor jumped (spec §4.6 step 5). For
// Next/Jump insertions it reports the actual insertion index and the
// "top of queue" wording spec.md's S2 requires, instead of the raw
// post-dispatch queue length — End/All/Reverse/Shuffle append at the tail,
// so those keep reporting the tail position via queueLen.
func songAddedEmbed(n *queue.Node, mode types.PlaybackMode, queueLen, insertIndex int) *discordgo.MessageEmbed {
	m := n.Metadata
	var thumbnail *discordgo.MessageEmbedThumbnail
	if m.ThumbnailURL != "" {
		thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.ThumbnailURL}
	}

	title := "✅ Added to Queue"
	position := fmt.Sprintf("#%d", queueLen)
	if (mode == types.ModeNext || mode == types.ModeJump) && insertIndex >= 0 {
		title = "⏭️ Added to top of queue"
		position = fmt.Sprintf("#%d", insertIndex)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("**%s**", m.Title()),
		Color:       colorSuccess,
		Thumbnail:   thumbnail,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Position", Value: position, Inline: true},
			{Name: "Duration", Value: types.HumanReadableTimestamp(m.Duration, m.Infinite), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: sourceHostFooter(m.SourceURL)},
	}
}

// playlistQueuedEmbed builds the reply for a multi-track enqueue (playlist,
// service tracks, keyword list).
func playlistQueuedEmbed(count int, mode types.PlaybackMode) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Playlist Queued",
		Description: fmt.Sprintf("Added **%d** tracks to the queue (mode: %s).", count, mode),
		Color:       colorSuccess,
	}
}

// downloadReadyEmbed builds the reply for a completed Download* mode
// request (spec §4.3: "reply with file attachment"). The actual file
// upload is the transport layer's job (it reads PlayResult.FilePath); this
// embed is just the accompanying message.
func downloadReadyEmbed(path string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📥 Download ready",
		Description: fmt.Sprintf("`%s`", filepath.Base(path)),
		Color:       colorSuccess,
	}
}

func searchingEmbed(query string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔎 Searching...",
		Description: fmt.Sprintf("Looking for **%s**", query),
		Color:       colorInfo,
	}
}

func errorEmbed(err *types.CrackedError) *discordgo.MessageEmbed {
	return types.NewCrackedErrorMessage(err).Embed
}

func requesterMention(u types.RequestingUser) string {
	if u.IsAutoplay() {
		return "autoplay"
	}
	return fmt.Sprintf("<@%d>", u.UserID)
}

func sourceHostFooter(sourceURL string) string {
	host := hostOf(sourceURL)
	if host == "" {
		return "source: unknown"
	}
	return "source: " + host
}
