package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cracktunes/internal/queue"
	"cracktunes/internal/settings"
	"cracktunes/internal/types"
)

// fakePlayer lets tests observe Play/SetVolume calls and control when a
// track "ends" without touching any real voice transport.
type fakePlayer struct {
	mu       sync.Mutex
	played   []string
	volumes  []float64
	blockers map[string]chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{blockers: map[string]chan struct{}{}}
}

func (f *fakePlayer) Play(ctx context.Context, vc *discordgo.VoiceConnection, node *queue.Node, volume float64) error {
	f.mu.Lock()
	f.played = append(f.played, node.Metadata.TrackTitle)
	done := make(chan struct{})
	f.blockers[node.Metadata.TrackTitle] = done
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil
	case <-done:
		return nil
	}
}

func (f *fakePlayer) finish(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.blockers[title]; ok {
		close(ch)
		delete(f.blockers, title)
	}
}

func (f *fakePlayer) SetVolume(ctx context.Context, vc *discordgo.VoiceConnection, volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, volume)
	return nil
}

func (f *fakePlayer) playedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.played))
	copy(out, f.played)
	return out
}

func testCall(t *testing.T, guildID string, player Player) (*Call, *settings.Store) {
	t.Helper()
	st := settings.New(t.TempDir(), nil, nil)
	st.GetOrCreate(guildID, "test guild", "r!")
	call := newCall(guildID, nil, st, nil, nil, player, nil, nil)
	return call, st
}

func node(title string) *queue.Node {
	return &queue.Node{Metadata: types.TrackMetadata{TrackTitle: title}}
}

func TestDispatchAssignsTrackIDsAndWakesPlayback(t *testing.T) {
	player := newFakePlayer()
	call, _ := testCall(t, "guild-1", player)

	jumped, length, _, err := call.Dispatch(types.ModeEnd, []*queue.Node{node("a"), node("b")})
	require.NoError(t, err)
	assert.False(t, jumped)
	assert.Equal(t, 2, length)

	nodes := call.Queue()
	require.Len(t, nodes, 2)
	assert.NotEmpty(t, nodes[0].TrackID)
	assert.NotEqual(t, nodes[0].TrackID, nodes[1].TrackID)
}

func TestPlaybackLoopPlaysHeadThenAdvances(t *testing.T) {
	player := newFakePlayer()
	call, _ := testCall(t, "guild-2", player)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	call.Start(ctx)

	_, _, _, err := call.Dispatch(types.ModeEnd, []*queue.Node{node("a"), node("b")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(player.playedTitles()) == 1 && player.playedTitles()[0] == "a"
	}, time.Second, 5*time.Millisecond)

	player.finish("a")

	require.Eventually(t, func() bool {
		titles := player.playedTitles()
		return len(titles) == 2 && titles[1] == "b"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, call.Len())
}

func TestSkipCancelsInFlightTrackWithoutDoubleDequeue(t *testing.T) {
	player := newFakePlayer()
	call, _ := testCall(t, "guild-3", player)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	call.Start(ctx)

	_, _, _, err := call.Dispatch(types.ModeEnd, []*queue.Node{node("a"), node("b"), node("c")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(player.playedTitles()) == 1
	}, time.Second, 5*time.Millisecond)

	drained, newHead, hasHead := call.Skip(2)
	require.True(t, hasHead)
	assert.Equal(t, "c", newHead.Metadata.TrackTitle)
	assert.Len(t, drained, 1)
	assert.Equal(t, "b", drained[0].Metadata.TrackTitle)

	require.Eventually(t, func() bool {
		titles := player.playedTitles()
		return len(titles) == 2 && titles[1] == "c"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, call.Len())
}

func TestEffectiveVolumeClampsStoredSetting(t *testing.T) {
	player := newFakePlayer()
	call, st := testCall(t, "guild-4", player)

	st.Mutate("guild-4", func(g *types.GuildSettings) { g.Volume = 3.5 })
	assert.Equal(t, 1.0, call.EffectiveVolume())

	st.Mutate("guild-4", func(g *types.GuildSettings) { g.Volume = -1 })
	assert.Equal(t, 0.0, call.EffectiveVolume())

	st.Mutate("guild-4", func(g *types.GuildSettings) { g.Volume = 0.4 })
	assert.Equal(t, 0.4, call.EffectiveVolume())
}

func TestEffectiveVolumeDefaultsToOneWhenGuildUnknown(t *testing.T) {
	player := newFakePlayer()
	call, _ := testCall(t, "guild-unknown", player)
	call.settings = settings.New(t.TempDir(), nil, nil) // no GetOrCreate call made
	assert.Equal(t, 1.0, call.EffectiveVolume())
}

func TestApplyVolumeNowForwardsToPlayer(t *testing.T) {
	player := newFakePlayer()
	call, _ := testCall(t, "guild-5", player)
	call.ApplyVolumeNow(context.Background(), 1.8)
	require.Len(t, player.volumes, 1)
	assert.Equal(t, 1.0, player.volumes[0])
}

func TestIdleProbeFiresOnIdleTimeoutWhenQueueStaysEmpty(t *testing.T) {
	player := newFakePlayer()
	call, st := testCall(t, "guild-6", player)
	call.probeInterval = 10 * time.Millisecond
	st.Mutate("guild-6", func(g *types.GuildSettings) { g.IdleTimeoutSecs = 1 })

	fired := make(chan struct{})
	call.onIdleTimeout = func() { close(fired) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go call.idleProbe(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("idle timeout never fired")
	}
}

func TestIdleProbeDoesNotFireWhenPremium(t *testing.T) {
	player := newFakePlayer()
	call, st := testCall(t, "guild-7", player)
	call.probeInterval = 10 * time.Millisecond
	st.Mutate("guild-7", func(g *types.GuildSettings) { g.IdleTimeoutSecs = 1 })
	call.SetPremium(true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	fired := false
	call.onIdleTimeout = func() { fired = true }
	call.idleProbe(ctx)
	assert.False(t, fired)
}

func TestIdleProbeResetsCounterWhenQueueNonEmpty(t *testing.T) {
	player := newFakePlayer()
	call, st := testCall(t, "guild-8", player)
	call.probeInterval = 10 * time.Millisecond
	st.Mutate("guild-8", func(g *types.GuildSettings) { g.IdleTimeoutSecs = 3600 })

	call.mu.Lock()
	call.q.EnqueueBack(node("a"))
	call.idleElapsed = 100 * time.Second
	call.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		call.idleProbe(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	call.mu.Lock()
	defer call.mu.Unlock()
	assert.Equal(t, time.Duration(0), call.idleElapsed)
}
