package commands

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/queue"
	"cracktunes/internal/settings"
	"cracktunes/internal/types"
	"cracktunes/internal/voice"
)

// fakePlayer blocks Play until its context is canceled, just enough of a
// voice.Player to satisfy voice.NewController in these tests.
type fakePlayer struct {
	volumes []float64
}

func (f *fakePlayer) Play(ctx context.Context, vc *discordgo.VoiceConnection, n *queue.Node, volume float64) error {
	<-ctx.Done()
	return nil
}

func (f *fakePlayer) SetVolume(ctx context.Context, vc *discordgo.VoiceConnection, volume float64) error {
	f.volumes = append(f.volumes, volume)
	return nil
}

func testDeps(t *testing.T) (Deps, *voice.Controller, *settings.Store) {
	st := settings.New(t.TempDir(), nil, nil)
	ctrl := voice.NewController(nil, st, nil, nil, &fakePlayer{}, nil)
	return Deps{Settings: st, Voice: ctrl}, ctrl, st
}

func TestExpandQueryKeepsSingleTrackQueriesLazy(t *testing.T) {
	d, _, _ := testDeps(t)
	nodes, err := expandQuery(context.Background(), d, types.Keywords{Text: "foo"}, types.ModeEnd)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, types.Keywords{Text: "foo"}, nodes[0].Query)
}

func TestExpandQueryFlattensKeywordList(t *testing.T) {
	d, _, _ := testDeps(t)
	nodes, err := expandQuery(context.Background(), d, types.KeywordList{Items: []string{"a", "b", "c"}}, types.ModeEnd)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, types.Keywords{Text: "b"}, nodes[1].Query)
}

func TestBuildPlayReplyReportsNowPlayingWhenQueueWasEmpty(t *testing.T) {
	n := &queue.Node{Metadata: types.TrackMetadata{TrackTitle: "Song"}}
	result := buildPlayReply([]*queue.Node{n}, types.ModeEnd, false, 1, 0)
	require.NotNil(t, result.Embed)
	assert.Contains(t, result.Embed.Title, "Now Playing")
}

func TestBuildPlayReplyReportsQueuedWhenNotHead(t *testing.T) {
	n := &queue.Node{Metadata: types.TrackMetadata{TrackTitle: "Song"}}
	result := buildPlayReply([]*queue.Node{n}, types.ModeEnd, false, 3, 2)
	assert.Contains(t, result.Embed.Title, "Added to Queue")
	assert.Contains(t, result.Embed.Fields[0].Value, "#3")
}

// S2 (spec.md): queue of 3 + playnext -> final length 4, new track at
// index 1, reply reads "Added to top of queue" rather than the generic
// "Added to Queue" title, and reports the actual insertion index (1) not
// the raw post-dispatch queue length (4).
func TestBuildPlayReplyReportsTopOfQueueForPlayNext(t *testing.T) {
	n := &queue.Node{Metadata: types.TrackMetadata{TrackTitle: "Song"}}
	result := buildPlayReply([]*queue.Node{n}, types.ModeNext, false, 4, 1)
	assert.Contains(t, result.Embed.Title, "Added to top of queue")
	assert.Contains(t, result.Embed.Fields[0].Value, "#1")
}

func TestBuildPlayReplyReportsPlaylistForMultipleTracks(t *testing.T) {
	nodes := []*queue.Node{
		{Metadata: types.TrackMetadata{TrackTitle: "A"}},
		{Metadata: types.TrackMetadata{TrackTitle: "B"}},
	}
	result := buildPlayReply(nodes, types.ModeAll, false, 5, -1)
	assert.Contains(t, result.Embed.Title, "Playlist Queued")
	assert.Contains(t, result.Embed.Description, "2")
}

func TestSkipReturnsNotConnectedWhenNoCall(t *testing.T) {
	d, _, _ := testDeps(t)
	_, err := Skip(d, "guild-1", 1)
	require.Error(t, err)
	var ce *types.CrackedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrNotConnected, ce.Kind)
}

func TestVolumeSetRejectsOutOfRange(t *testing.T) {
	d, _, _ := testDeps(t)
	d.Settings.GetOrCreate("guild-1", "test", "r!")
	_, err := VolumeSet(context.Background(), d, "guild-1", 5.0)
	require.Error(t, err)
	var ce *types.CrackedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrNotInRange, ce.Kind)
}

func TestVolumeSetStoresAndReportsChange(t *testing.T) {
	d, _, _ := testDeps(t)
	d.Settings.GetOrCreate("guild-1", "test", "r!")
	result, err := VolumeSet(context.Background(), d, "guild-1", 0.5)
	require.NoError(t, err)
	assert.Contains(t, result.Embed.Description, "50%")

	g, ok := d.Settings.Get("guild-1")
	require.True(t, ok)
	assert.InDelta(t, 0.5, g.Volume, 0.001)
}

func TestVolumeGetReportsStoredVolumeWithNoActiveCall(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	st.SetVolume("guild-1", 0.8)

	result, err := VolumeGet(d, "guild-1")
	require.NoError(t, err)
	assert.Contains(t, result.Embed.Description, "80%")
}

func TestSettingsPrefixUpdatesStore(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	result, err := SettingsPrefix(context.Background(), d, "guild-1", "!")
	require.NoError(t, err)
	assert.Contains(t, result.Embed.Description, "!")

	g, _ := st.Get("guild-1")
	assert.Equal(t, "!", g.Prefix)
}

func TestSettingsIdleTimeoutDisabledMessage(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	result, err := SettingsIdleTimeout(context.Background(), d, "guild-1", 0)
	require.NoError(t, err)
	assert.Contains(t, result.Embed.Title, "disabled")
}

func TestSettingsPremiumUpdatesStoreWithNoActiveCall(t *testing.T) {
	d, ctrl, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")

	result, err := SettingsPremium(context.Background(), d, "guild-1", true)
	require.NoError(t, err)
	assert.Contains(t, result.Embed.Description, "enabled")

	g, _ := st.Get("guild-1")
	assert.True(t, g.PremiumFlag)

	_, ok := ctrl.Get("guild-1")
	assert.False(t, ok)
}

func TestSettingsAllowedDomainsClearsWhenEmpty(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	result, err := SettingsAllowedDomains(context.Background(), d, "guild-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Cleared.", result.Embed.Description)
}

func TestCheckAdminAllowsAuthorizedUserWithoutAdminPerm(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	st.AddAuthorizedUser("guild-1", "user-1")

	member := &discordgo.Member{User: &discordgo.User{ID: "user-1"}}
	err := CheckAdmin(d, "guild-1", member, false)
	assert.NoError(t, err)
}

func TestCheckAdminRejectsUnauthorizedUser(t *testing.T) {
	d, _, st := testDeps(t)
	st.GetOrCreate("guild-1", "test", "r!")
	d.Session = &discordgo.Session{State: discordgo.NewState()}

	member := &discordgo.Member{User: &discordgo.User{ID: "user-2"}}
	err := CheckAdmin(d, "guild-1", member, false)
	require.Error(t, err)
	var ce *types.CrackedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrUnauthorizedUser, ce.Kind)
}

func TestDownvoteRequiresActiveCall(t *testing.T) {
	d, _, _ := testDeps(t)
	_, err := Downvote(context.Background(), d, "guild-1")
	require.Error(t, err)
	var ce *types.CrackedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrNotConnected, ce.Kind)
}
