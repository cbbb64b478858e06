package eventlog

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/settings"
	"cracktunes/internal/types"
)

func newTestRouter(t *testing.T) (*Router, *settings.Store, *memorySink) {
	t.Helper()
	st := settings.New(t.TempDir(), nil, nil)
	sink := &memorySink{}
	r := NewRouter(nil, st, sink, nil)
	return r, st, sink
}

func TestChannelForFallsBackToAllAtEveryLevel(t *testing.T) {
	g := types.NewDefaultGuildSettings("g1", "Test", "")
	g.LogChannels.All = "all-chan"

	assert.Equal(t, "all-chan", channelFor(g, familyServer))
	assert.Equal(t, "all-chan", channelFor(g, familyJoinLeave))
	assert.Equal(t, "all-chan", channelFor(g, familyMember))
	assert.Equal(t, "all-chan", channelFor(g, familyVoice))
	assert.Equal(t, "all-chan", channelFor(g, familyRaw))
	assert.Equal(t, "all-chan", channelFor(g, familyAll))
}

func TestChannelForServerPrefersConfiguredServerChannel(t *testing.T) {
	g := types.NewDefaultGuildSettings("g1", "Test", "")
	g.LogChannels.All = "all-chan"
	g.LogChannels.Server = "server-chan"
	assert.Equal(t, "server-chan", channelFor(g, familyServer))
}

func TestChannelForJoinLeaveFallsBackThroughServerThenAll(t *testing.T) {
	g := types.NewDefaultGuildSettings("g1", "Test", "")
	g.LogChannels.All = "all-chan"
	assert.Equal(t, "all-chan", channelFor(g, familyJoinLeave))

	g.LogChannels.Server = "server-chan"
	assert.Equal(t, "server-chan", channelFor(g, familyJoinLeave))

	g.LogChannels.JoinLeave = "join-chan"
	assert.Equal(t, "join-chan", channelFor(g, familyJoinLeave))
}

func TestEmitSkipsWhenOriginChannelIgnored(t *testing.T) {
	r, st, sink := newTestRouter(t)
	st.Mutate("g1", func(g *types.GuildSettings) {
		g.LogChannels.All = "all-chan"
		g.IgnoredChannels["muted-chan"] = struct{}{}
	})

	r.emit("g1", "muted-chan", familyAll, "Title", "desc", "entity", "", colorRaw, "SOME_EVENT", "", nil)
	assert.Empty(t, sink.snapshot())
}

func TestEmitSkipsWhenGuildUnknown(t *testing.T) {
	r, _, sink := newTestRouter(t)
	r.emit("unknown-guild", "", familyAll, "Title", "desc", "entity", "", colorRaw, "SOME_EVENT", "", nil)
	assert.Empty(t, sink.snapshot())
}

func TestEmitWritesToSinkEvenWithoutConfiguredChannel(t *testing.T) {
	r, st, sink := newTestRouter(t)
	st.GetOrCreate("g1", "Test Guild", "")

	r.emit("g1", "", familyAll, "Title", "desc", "entity", "", colorRaw, "SOME_EVENT", "note", map[string]string{"k": "v"})
	entries := sink.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "g1", entries[0].guildID)
	assert.Equal(t, "SOME_EVENT", entries[0].entry.Name)
	assert.Equal(t, "note", entries[0].entry.Notes)
}

func TestMemberUpdateClassificationDetectsAvatarChange(t *testing.T) {
	before := &discordgo.Member{Avatar: "old"}
	after := &discordgo.Member{Avatar: "new"}
	title, notes := memberUpdateClassification(before, after)
	assert.Equal(t, "Member Avatar Changed", title)
	assert.Equal(t, "avatar_change", notes)
}

func TestMemberUpdateClassificationDetectsApproval(t *testing.T) {
	truth := true
	falsy := false
	before := &discordgo.Member{Pending: &truth}
	after := &discordgo.Member{Pending: &falsy}
	title, notes := memberUpdateClassification(before, after)
	assert.Equal(t, "Member Approved", title)
	assert.Equal(t, "approval", notes)
}

func TestMemberUpdateClassificationDefaultsToGeneric(t *testing.T) {
	before := &discordgo.Member{Nick: "a"}
	after := &discordgo.Member{Nick: "b"}
	title, notes := memberUpdateClassification(before, after)
	assert.Equal(t, "Member Updated", title)
	assert.Equal(t, "generic", notes)
}

func TestTruncateLeavesShortStringsUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
}

func TestTruncateClipsLongStrings(t *testing.T) {
	out := truncate("0123456789", 5)
	assert.Equal(t, "01234...", out)
}

func TestFooterTextIncludesEntityIDWhenPresent(t *testing.T) {
	assert.Equal(t, "Guild • ID: 123", footerText("Guild", "123"))
	assert.Equal(t, "Guild", footerText("Guild", ""))
	assert.Equal(t, "unknown guild", footerText("", ""))
}
