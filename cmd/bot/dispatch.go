package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/commands"
	"cracktunes/internal/types"
)

// dispatcher routes an inbound prefix-command message to the right
// orchestrator, following spec §6's command surface. Leading mode tokens
// (§9's mode-parsing ambiguity) are parsed only by commands.Play;
// PlayNext and Search take their text as-is with a fixed mode.
type dispatcher struct {
	deps commands.Deps
	ext  *commands.Dispatcher
}

func newDispatcher(d botDeps) *dispatcher {
	return &dispatcher{deps: d.Deps, ext: commands.NewDispatcher()}
}

// handleMessage implements spec §6's prefix-command dispatch: resolve the
// guild's configured prefix(es), split off the command name, and call the
// matching orchestrator. Non-command messages and messages from the bot
// itself are ignored here (eventlog.Router handles gateway-event logging
// independently).
func (d *dispatcher) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		return
	}

	g := d.deps.Settings.GetOrCreate(m.GuildID, "", "")
	prefix, rest, ok := matchPrefix(g, m.Content)
	if !ok {
		return
	}
	_ = prefix

	name, argString := splitCommand(rest)
	if name == "" {
		return
	}

	var attachmentURL, attachmentName, attachmentCT string
	if len(m.Attachments) > 0 {
		a := m.Attachments[0]
		attachmentURL, attachmentName, attachmentCT = a.URL, a.Filename, a.ContentType
	}

	req := func(mode string) commands.PlayRequest {
		return commands.PlayRequest{
			GuildID:        m.GuildID,
			ChannelID:      m.ChannelID,
			InvokingUserID: m.Author.ID,
			Text:           argString,
			AttachmentURL:  attachmentURL,
			AttachmentName: attachmentName,
			AttachmentCT:   attachmentCT,
		}
	}

	status, _ := s.ChannelMessageSend(m.ChannelID, "🔎 searching...")

	var result *commands.PlayResult
	var err error

	switch strings.ToLower(name) {
	case "play", "p":
		result, err = commands.Play(ctx, d.deps, req(""))
	case "playnext", "next", "pn", "insert", "ins", "push":
		result, err = commands.PlayNext(ctx, d.deps, req(""))
	case "search", "s":
		result, err = commands.Search(ctx, d.deps, req(""))
	case "skip":
		n := parsePositiveInt(argString, 1)
		result, err = commands.Skip(d.deps, m.GuildID, n)
	case "downvote":
		result, err = commands.Downvote(ctx, d.deps, m.GuildID)
	case "volume":
		result, err = d.dispatchVolume(ctx, m.GuildID, argString)
	case "grab", "save":
		result, err = commands.Grab(ctx, d.deps, m.GuildID, m.ChannelID, m.Author.ID)
	case "playlog":
		result, err = commands.PlayLog(ctx, d.deps, m.GuildID)
	case "myplaylog":
		result, err = commands.MyPlayLog(ctx, d.deps, m.Author.ID)
	case "settings":
		result, err = d.dispatchSettings(ctx, s, m, argString)
	case "admin":
		result, err = d.dispatchAdmin(ctx, s, m, argString)
	default:
		if handler, ok := d.ext.External(strings.ToLower(name)); ok {
			result, err = handler(ctx, d.deps, m.GuildID, m.ChannelID, m.Author.ID, argString)
		} else {
			if status != nil {
				_, _ = s.ChannelMessageDelete(m.ChannelID, status.ID)
			}
			return
		}
	}

	d.reply(s, m.ChannelID, status, result, err)
}

func (d *dispatcher) reply(s *discordgo.Session, channelID string, status *discordgo.Message, result *commands.PlayResult, err error) {
	var embed *discordgo.MessageEmbed
	if err != nil {
		var ce *types.CrackedError
		if asCrackedError(err, &ce) {
			embed = types.NewCrackedErrorMessage(ce).Embed
		} else {
			embed = &discordgo.MessageEmbed{Title: "❌ Error", Description: err.Error(), Color: 0xe74c3c}
		}
	} else if result != nil {
		embed = result.Embed
	}
	if embed == nil {
		return
	}
	if status != nil {
		_, editErr := s.ChannelMessageEditEmbed(channelID, status.ID, embed)
		if editErr == nil {
			d.sendDownloadFile(s, channelID, result)
			return
		}
	}
	_, _ = s.ChannelMessageSendEmbed(channelID, embed)
	d.sendDownloadFile(s, channelID, result)
}

// sendDownloadFile uploads a Download* mode's resulting file (spec §4.3:
// "reply with file attachment"). Best-effort: the embed confirming the
// download already went out, so a failed upload here is logged rather than
// surfaced as a second error reply.
func (d *dispatcher) sendDownloadFile(s *discordgo.Session, channelID string, result *commands.PlayResult) {
	if result == nil || result.FilePath == "" {
		return
	}
	f, err := os.Open(result.FilePath)
	if err != nil {
		if d.deps.Log != nil {
			d.deps.Log.Warn("dispatch: open download file failed", zap.String("path", result.FilePath), zap.Error(err))
		}
		return
	}
	defer f.Close()
	_, err = s.ChannelFileSend(channelID, filepath.Base(result.FilePath), f)
	if err != nil && d.deps.Log != nil {
		d.deps.Log.Warn("dispatch: upload download file failed", zap.String("path", result.FilePath), zap.Error(err))
	}
}

func asCrackedError(err error, target **types.CrackedError) bool {
	ce, ok := err.(*types.CrackedError)
	if ok {
		*target = ce
	}
	return ok
}

func (d *dispatcher) dispatchVolume(ctx context.Context, guildID, argString string) (*commands.PlayResult, error) {
	argString = strings.TrimSpace(argString)
	if argString == "" {
		return commands.VolumeGet(d.deps, guildID)
	}
	level, err := strconv.Atoi(argString)
	if err != nil {
		return nil, types.NewNotInRange("volume", 0, 0, 100)
	}
	return commands.VolumeSet(ctx, d.deps, guildID, float64(level)/100.0)
}

func (d *dispatcher) dispatchSettings(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, argString string) (*commands.PlayResult, error) {
	if err := d.requireAdmin(s, m); err != nil {
		return nil, err
	}
	sub, rest := splitCommand(argString)
	switch strings.ToLower(sub) {
	case "prefix":
		return commands.SettingsPrefix(ctx, d.deps, m.GuildID, strings.TrimSpace(rest))
	case "idle_timeout":
		secs := parsePositiveInt(rest, 0)
		return commands.SettingsIdleTimeout(ctx, d.deps, m.GuildID, secs)
	case "premium":
		return commands.SettingsPremium(ctx, d.deps, m.GuildID, parseBool(rest))
	case "self_deafen":
		return commands.SettingsSelfDeafen(ctx, d.deps, m.GuildID, parseBool(rest))
	case "allowed_domains":
		return commands.SettingsAllowedDomains(ctx, d.deps, m.GuildID, splitDomains(rest))
	case "banned_domains":
		return commands.SettingsBannedDomains(ctx, d.deps, m.GuildID, splitDomains(rest))
	case "log_channels":
		family, channelID := splitCommand(rest)
		return commands.SettingsLogChannel(ctx, d.deps, m.GuildID, family, strings.TrimSpace(channelID))
	default:
		return nil, types.NewNoQuery()
	}
}

func (d *dispatcher) dispatchAdmin(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, argString string) (*commands.PlayResult, error) {
	if err := d.requireAdmin(s, m); err != nil {
		return nil, err
	}
	sub, rest := splitCommand(argString)
	target, reason := splitCommand(rest)
	userID := strings.TrimPrefix(strings.TrimSuffix(target, ">"), "<@")
	userID = strings.TrimPrefix(userID, "!")

	switch strings.ToLower(sub) {
	case "authorize":
		return commands.AdminAuthorize(d.deps, m.GuildID, userID)
	case "deauthorize":
		return commands.AdminDeauthorize(d.deps, m.GuildID, userID)
	case "broadcast":
		return commands.AdminBroadcast(d.deps, m.ChannelID, rest)
	case "mute":
		return commands.AdminMute(d.deps, m.GuildID, userID, true)
	case "unmute":
		return commands.AdminMute(d.deps, m.GuildID, userID, false)
	case "deafen":
		return commands.AdminDeafen(d.deps, m.GuildID, userID, true)
	case "undeafen":
		return commands.AdminDeafen(d.deps, m.GuildID, userID, false)
	case "kick":
		return commands.AdminKick(d.deps, m.GuildID, userID, reason)
	case "ban":
		return commands.AdminBan(d.deps, m.GuildID, userID, reason, 0)
	case "unban":
		return commands.AdminUnban(d.deps, m.GuildID, userID)
	case "timeout":
		until := time.Now().Add(time.Duration(parsePositiveInt(reason, 10)) * time.Minute)
		return commands.AdminTimeout(d.deps, m.GuildID, userID, &until)
	case "move":
		return commands.AdminMove(d.deps, m.GuildID, userID, reason)
	default:
		return nil, types.NewNoQuery()
	}
}

func (d *dispatcher) requireAdmin(s *discordgo.Session, m *discordgo.MessageCreate) error {
	member := m.Member
	if member == nil {
		var err error
		member, err = s.GuildMember(m.GuildID, m.Author.ID)
		if err != nil {
			return types.NewUnauthorizedUser()
		}
	}
	if member.User == nil {
		member.User = m.Author
	}
	return commands.CheckAdmin(d.deps, m.GuildID, member, true)
}

// matchPrefix checks the guild's configured prefix and additional_prefixes,
// returning the matched prefix and the remainder of the message with it
// stripped (spec §4.4's Prefix/AdditionalPrefixes fields).
func matchPrefix(g *types.GuildSettings, content string) (prefix, rest string, ok bool) {
	candidates := append([]string{g.Prefix}, g.AdditionalPrefixes...)
	for _, p := range candidates {
		if p != "" && strings.HasPrefix(content, p) {
			return p, content[len(p):], true
		}
	}
	return "", "", false
}

// splitCommand splits "name rest of text" into its first token and the
// remainder, matching the "rest" flag convention from spec §6 (query is
// rest — consumes remainder).
func splitCommand(text string) (name, rest string) {
	text = strings.TrimSpace(text)
	i := strings.IndexByte(text, ' ')
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

func parsePositiveInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1", "enable", "enabled":
		return true
	default:
		return false
	}
}

func splitDomains(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
