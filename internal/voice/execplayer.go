package voice

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cracktunes/internal/queue"
	"cracktunes/internal/types"
)

// ExecPlayer drives playback by piping the resolver's already-extracted
// stream (types.ResolvedAudio.Stream) through ffmpeg into dca's raw Opus
// framing and onto vc.OpusSend, grounded on the same ffmpeg|dca pipeline
// and binary-framed read loop as the reference Player.PlayTrack. The RTP
// send itself is discordgo's; everything upstream of vc.OpusSend is the
// one external-subprocess seam spec §1/§9 leaves to this module.
type ExecPlayer struct {
	log *zap.Logger

	mu      sync.Mutex
	volumes map[*discordgo.VoiceConnection]float64
}

func NewExecPlayer(log *zap.Logger) *ExecPlayer {
	return &ExecPlayer{log: log, volumes: make(map[*discordgo.VoiceConnection]float64)}
}

// Play blocks until ctx is canceled (skip/teardown) or the stream drains
// naturally. A nil error with ctx.Err() == nil means natural end of track.
func (p *ExecPlayer) Play(ctx context.Context, vc *discordgo.VoiceConnection, node *queue.Node, volume float64) error {
	audio, ok := node.Query.(types.ResolvedAudio)
	if !ok || audio.Stream == nil {
		return fmt.Errorf("execplayer: node has no resolved stream (query type %T)", node.Query)
	}
	defer audio.Stream.Close()

	p.setVolumeLocked(vc, volume)

	ffmpeg := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-af", fmt.Sprintf("volume=%.3f", p.volumeFor(vc, volume)),
		"-f", "s16le", "-ar", "48000", "-ac", "2", "pipe:1")
	ffmpeg.Stdin = audio.Stream
	ffmpegOut, err := ffmpeg.StdoutPipe()
	if err != nil {
		return fmt.Errorf("execplayer: ffmpeg stdout pipe: %w", err)
	}
	ffmpegBuf := bufio.NewReaderSize(ffmpegOut, 16384)

	dca := exec.CommandContext(ctx, "dca", "-raw", "-i", "pipe:0")
	dca.Stdin = ffmpegBuf
	dcaOut, err := dca.StdoutPipe()
	if err != nil {
		return fmt.Errorf("execplayer: dca stdout pipe: %w", err)
	}
	dcaBuf := bufio.NewReaderSize(dcaOut, 16384)

	if err := ffmpeg.Start(); err != nil {
		return fmt.Errorf("execplayer: ffmpeg start: %w", err)
	}
	defer func() { go ffmpeg.Wait() }()

	if err := dca.Start(); err != nil {
		return fmt.Errorf("execplayer: dca start: %w", err)
	}
	defer func() { go dca.Wait() }()

	if err := vc.Speaking(true); err != nil && p.log != nil {
		p.log.Warn("execplayer: speaking(true) failed", zap.Error(err))
	}
	defer func() { _ = vc.Speaking(false) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var length int16
		if err := binary.Read(dcaBuf, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("execplayer: read frame length: %w", err)
		}

		pkt := make([]byte, length)
		if err := binary.Read(dcaBuf, binary.LittleEndian, &pkt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("execplayer: read frame: %w", err)
		}

		select {
		case vc.OpusSend <- pkt:
		case <-ctx.Done():
			return nil
		}
	}
}

// SetVolume records volume for vc. ffmpeg's volume filter is fixed
// per-process once the pipeline has started, so an in-flight track keeps
// its gain; each later Play call records and uses its own volume argument
// instead.
func (p *ExecPlayer) SetVolume(ctx context.Context, vc *discordgo.VoiceConnection, volume float64) error {
	p.setVolumeLocked(vc, volume)
	return nil
}

func (p *ExecPlayer) setVolumeLocked(vc *discordgo.VoiceConnection, volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes[vc] = volume
}

func (p *ExecPlayer) volumeFor(vc *discordgo.VoiceConnection, fallback float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.volumes[vc]; ok {
		return v
	}
	return fallback
}
