// Package voice implements the voice-session lifecycle controller (spec
// §4.2): joining/leaving voice channels on demand, registering the idle
// probe and track-end hook exactly once per call, and owning the per-guild
// Call (queue + attachment map) that command orchestrators mutate.
package voice

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/queue"
	"cracktunes/internal/recograph"
	"cracktunes/internal/resolver"
	"cracktunes/internal/settings"
	"cracktunes/internal/types"
)

// idleProbeInterval matches spec §4.2's "periodic, every 5 s" idle probe.
const idleProbeInterval = 5 * time.Second

// Player is the external collaborator that actually drives the voice RTP
// transport — out of scope for this module per spec §1/§9 ("no custom
// RTP/Opus codec"). It blocks until ctx is canceled (a skip or teardown) or
// the track finishes on its own; a nil error with ctx.Err() == nil means a
// natural end of track.
type Player interface {
	Play(ctx context.Context, vc *discordgo.VoiceConnection, node *queue.Node, volume float64) error
	// SetVolume applies a live volume change to whatever is currently
	// playing on vc, if the player supports it mid-stream.
	SetVolume(ctx context.Context, vc *discordgo.VoiceConnection, volume float64) error
}

// TrackAttachment is the per-track key-value payload from spec §3/§9: the
// metadata and requesting user tagged onto a queued track, recorded by
// Dispatch under the track id. It replaces the task-local map design note
// with a plain map owned by the Call. Nothing in this module reads the map
// back; the track-end hook uses the queue node's own metadata.
type TrackAttachment struct {
	Metadata  types.TrackMetadata
	Requester types.RequestingUser
}

// Call wraps a joined voice connection plus the queue engine for one
// guild (spec §3 "Ownership": "The voice driver owns the per-guild Call").
type Call struct {
	GuildID string

	mu            sync.Mutex
	vc            *discordgo.VoiceConnection
	q             *queue.Queue
	attachments   map[string]TrackAttachment
	idleElapsed   time.Duration
	cancelCurrent context.CancelFunc
	nextTrackSeq  int64
	recentPlayed  []string // bounded recent-radio-history for autoplay dedup

	premium atomic.Bool

	wake chan struct{}
	done chan struct{}

	probeInterval time.Duration // defaults to idleProbeInterval; overridable in tests

	settings  *settings.Store
	resolver  *resolver.Resolver
	recommend recograph.Provider
	player    Player
	session   *discordgo.Session
	log       *zap.Logger

	onIdleTimeout func() // set by the Controller to call Leave without a back-pointer
}

func newCall(guildID string, vc *discordgo.VoiceConnection, st *settings.Store, res *resolver.Resolver, rec recograph.Provider, player Player, session *discordgo.Session, log *zap.Logger) *Call {
	return &Call{
		GuildID:       guildID,
		vc:            vc,
		q:             queue.New(),
		attachments:   map[string]TrackAttachment{},
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		probeInterval: idleProbeInterval,
		settings:      st,
		resolver:      res,
		recommend:     rec,
		player:        player,
		session:       session,
		log:           log,
	}
}

// Start launches the playback loop and idle probe. Called exactly once per
// Call by the Controller right after the voice channel join succeeds.
func (c *Call) Start(ctx context.Context) {
	go c.playbackLoop(ctx)
	go c.idleProbe(ctx)
}

// SetPremium toggles the premium flag that disables the idle probe without
// detaching it (spec §4.2).
func (c *Call) SetPremium(premium bool) {
	c.premium.Store(premium)
}

// Queue returns a snapshot of the current queue in play order, head first.
func (c *Call) Queue() []*queue.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Current()
}

// Len returns the current queue length.
func (c *Call) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Len()
}

func (c *Call) newTrackID() string {
	c.nextTrackSeq++
	return fmt.Sprintf("%s-%d", c.GuildID, c.nextTrackSeq)
}

// Dispatch applies mode to nodes (spec §4.3's insertion table), tagging
// each with a fresh track id and recording its attachment before handing
// the nodes to the queue engine. Persisting track metadata/user/play-log
// rows is the caller's responsibility (command orchestrators hold the
// store handle); keeping the Call/Queue types free of a persistence
// dependency keeps their invariants independently testable.
// insertIndex reports the 0-based position nodes[0] lands at once dispatch
// completes, or -1 when nodes isn't a single-track dispatch (the multi-track
// playlist/list case has no single "position" to report). Command
// orchestrators use this to render the actual insertion slot instead of the
// raw post-dispatch queue length, which is wrong for Next/Jump (spec §8
// invariant 2, S2).
func (c *Call) Dispatch(mode types.PlaybackMode, nodes []*queue.Node) (jumped bool, queueLen int, insertIndex int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range nodes {
		n.TrackID = c.newTrackID()
		c.attachments[n.TrackID] = TrackAttachment{Metadata: n.Metadata, Requester: n.Requester}
	}
	jumped, err = c.q.Dispatch(mode, nodes)
	queueLen = c.q.Len()
	insertIndex = -1
	if err == nil {
		if len(nodes) == 1 {
			insertIndex = c.q.IndexOf(nodes[0])
		}
		c.signalWakeLocked()
	}
	return jumped, queueLen, insertIndex, err
}

// Skip drains tracks 1..min(n,len) then force-skips the head (spec §4.6),
// canceling the in-flight track's playback context so the playback loop
// actually stops sending audio for it rather than merely losing the
// reference.
func (c *Call) Skip(n int) (drained []*queue.Node, newHead *queue.Node, hasHead bool) {
	c.mu.Lock()
	drained, newHead, hasHead = c.q.Skip(n)
	cancel := c.cancelCurrent
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.signalWake()
	return drained, newHead, hasHead
}

// DownvoteAndSkip records a negative signal for source URL against the
// recommendation provider (when it supports downvotes) and force-skips the
// head, per spec §4.3.
func (c *Call) DownvoteAndSkip(ctx context.Context, sourceURL string) (newHead *queue.Node, hasHead bool) {
	if downvoter, ok := c.recommend.(interface {
		Downvote(ctx context.Context, sourceURL string) error
	}); ok {
		if err := downvoter.Downvote(ctx, sourceURL); err != nil && c.log != nil {
			c.log.Warn("voice: downvote failed", zap.String("guild_id", c.GuildID), zap.Error(err))
		}
	}
	c.mu.Lock()
	cancel := c.cancelCurrent
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	newHead, hasHead = c.forceSkipHead()
	c.signalWake()
	return newHead, hasHead
}

func (c *Call) forceSkipHead() (*queue.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.ForceSkipHead()
}

func (c *Call) signalWake() {
	c.mu.Lock()
	c.signalWakeLocked()
	c.mu.Unlock()
}

func (c *Call) signalWakeLocked() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// EffectiveVolume reads the guild's stored volume and clamps it to [0,1]
// for playback, without mutating the stored setting (spec §9 volume
// clamping note).
func (c *Call) EffectiveVolume() float64 {
	g, ok := c.settings.Get(c.GuildID)
	if !ok {
		return 1.0
	}
	return types.ClampVolume(g.Volume)
}

// ApplyVolumeNow pushes a live volume change to whatever is currently
// playing, best-effort (spec §4.6 "set stores new value and applies to the
// current track if any").
func (c *Call) ApplyVolumeNow(ctx context.Context, volume float64) {
	if c.player == nil {
		return
	}
	if err := c.player.SetVolume(ctx, c.vc, types.ClampVolume(volume)); err != nil && c.log != nil {
		c.log.Warn("voice: live volume apply failed", zap.String("guild_id", c.GuildID), zap.Error(err))
	}
}

// Disconnect tears down the call's voice connection without removing it
// from the Controller's map — used internally by teardown.
func (c *Call) disconnect() {
	if c.vc != nil {
		_ = c.vc.Disconnect()
	}
}

func (c *Call) playbackLoop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		case <-time.After(time.Second):
		}

		c.mu.Lock()
		head, ok := c.q.Head()
		c.mu.Unlock()
		if !ok {
			continue
		}

		if c.resolver != nil {
			audio, err := c.resolver.ResolveForPlayback(ctx, head.Query)
			c.mu.Lock()
			stillHead, ok := c.q.Head()
			sameTrack := ok && stillHead == head
			if err != nil {
				if c.log != nil {
					c.log.Warn("voice: track failed to resolve, skipping", zap.String("guild_id", c.GuildID), zap.Error(err))
				}
				if sameTrack {
					c.q.ForceSkipHead()
				}
				c.mu.Unlock()
				continue
			}
			if sameTrack {
				head.Query = audio
				head.Metadata = audio.Metadata
			}
			c.mu.Unlock()
			if !sameTrack {
				continue
			}
		}

		trackCtx, cancel := context.WithCancel(ctx)
		c.mu.Lock()
		c.cancelCurrent = cancel
		c.mu.Unlock()

		err := c.player.Play(trackCtx, c.vc, head, c.EffectiveVolume())
		canceledExternally := trackCtx.Err() != nil
		cancel()

		c.mu.Lock()
		c.cancelCurrent = nil
		c.mu.Unlock()

		if canceledExternally {
			// A skip/downvote/teardown already dequeued the head and
			// canceled us; don't dequeue a second time.
			continue
		}
		if err != nil && c.log != nil {
			c.log.Warn("voice: track ended with error", zap.String("guild_id", c.GuildID), zap.Error(err))
		}

		c.mu.Lock()
		finished := head.Metadata
		c.q.ForceSkipHead()
		c.recentPlayed = append(c.recentPlayed, finished.SourceURL)
		if len(c.recentPlayed) > 25 {
			c.recentPlayed = c.recentPlayed[len(c.recentPlayed)-25:]
		}
		c.mu.Unlock()

		c.onTrackEnd(ctx, finished)
	}
}

// onTrackEnd is the track-end hook from spec §4.2: when autoplay is
// enabled and the queue is now empty, resolve a recommendation derived
// from the just-finished track and enqueue it under the autoplay sentinel
// user.
func (c *Call) onTrackEnd(ctx context.Context, finished types.TrackMetadata) {
	g, ok := c.settings.Get(c.GuildID)
	if !ok || !g.Autoplay {
		return
	}
	c.mu.Lock()
	empty := c.q.Len() == 0
	history := make(map[string]struct{}, len(c.recentPlayed))
	for _, url := range c.recentPlayed {
		history[url] = struct{}{}
	}
	c.mu.Unlock()
	if !empty || c.recommend == nil {
		return
	}

	recCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	candidate, err := c.recommend.Recommend(recCtx, finished, history)
	if err != nil {
		if c.log != nil {
			c.log.Warn("voice: autoplay recommendation failed", zap.String("guild_id", c.GuildID), zap.Error(err))
		}
		return
	}
	if candidate == nil {
		return
	}

	node, err := c.resolveAutoplayCandidate(recCtx, candidate)
	if err != nil {
		if c.log != nil {
			c.log.Warn("voice: autoplay candidate failed to resolve", zap.String("guild_id", c.GuildID), zap.Error(err))
		}
		return
	}
	node.Requester = types.RequestingUser{UserID: types.AutoplayUserID}
	if _, _, _, err := c.Dispatch(types.ModeEnd, []*queue.Node{node}); err != nil && c.log != nil {
		c.log.Warn("voice: autoplay enqueue failed", zap.String("guild_id", c.GuildID), zap.Error(err))
	}
}

func (c *Call) resolveAutoplayCandidate(ctx context.Context, candidate types.QueryKind) (*queue.Node, error) {
	switch v := candidate.(type) {
	case types.Keywords:
		audio, err := c.resolver.ResolveKeywords(ctx, v.Text)
		if err != nil {
			return nil, err
		}
		return &queue.Node{Query: v, Metadata: audio.Metadata}, nil
	case types.ExternalTrack:
		audio, err := c.resolver.ResolveKeywords(ctx, v.Keywords)
		if err != nil {
			return nil, err
		}
		return &queue.Node{Query: types.Keywords{Text: v.Keywords}, Metadata: audio.Metadata}, nil
	case types.ResolvedAudio:
		return &queue.Node{Query: v, Metadata: v.Metadata}, nil
	default:
		return nil, fmt.Errorf("voice: unsupported autoplay candidate type %T", candidate)
	}
}

// idleProbe counts consecutive empty-queue seconds and triggers the
// onIdleTimeout callback once idle_timeout_secs is reached, unless premium
// is set (spec §4.2). The counter is reset to zero the instant the queue
// is non-empty.
func (c *Call) idleProbe(ctx context.Context) {
	ticker := time.NewTicker(c.probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if c.premium.Load() {
			continue
		}
		g, ok := c.settings.Get(c.GuildID)
		if !ok || g.IdleTimeoutSecs <= 0 {
			continue
		}

		c.mu.Lock()
		if c.q.Len() == 0 {
			c.idleElapsed += c.probeInterval
		} else {
			c.idleElapsed = 0
		}
		hit := c.idleElapsed >= time.Duration(g.IdleTimeoutSecs)*time.Second
		c.mu.Unlock()

		if hit {
			if c.onIdleTimeout != nil {
				c.onIdleTimeout()
			}
			return
		}
	}
}
