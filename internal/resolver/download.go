package resolver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cracktunes/internal/types"
)

// Downloader invokes an external subprocess that materializes a playable
// file on disk, backing the DownloadContainer/DownloadAudio rows of spec
// §4.3's mode table ("invoke external downloader, reply with file
// attachment; do not enqueue"). Separate from GenericExtractor, which only
// streams metadata and never writes to disk.
type Downloader interface {
	// Download fetches target (a URL, or a "ytsearch1:<query>" search
	// expression) and writes it under outputDir, returning the resulting
	// file's path. audioOnly selects mp3 extraction instead of the
	// original container format.
	Download(ctx context.Context, target, outputDir string, audioOnly bool) (path string, err error)
}

// YtdlpDownloader shells out to yt-dlp, the same subprocess the generic
// extractor and Keywords searcher already use (YtdlpExtractor), but asks
// it to write the media to disk instead of only dumping metadata.
type YtdlpDownloader struct {
	Executable string
}

func NewYtdlpDownloader(executable string) *YtdlpDownloader {
	if executable == "" {
		executable = "yt-dlp"
	}
	return &YtdlpDownloader{Executable: executable}
}

// Download writes target under "<outputDir>/<title> [<id>].{mp3|webm}" per
// spec §6's download output layout, reading the final path back from
// yt-dlp's own post-move filepath print rather than reconstructing the
// template ourselves (title sanitization is yt-dlp's job, not ours).
func (y *YtdlpDownloader) Download(ctx context.Context, target, outputDir string, audioOnly bool) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download: create output dir: %w", err)
	}

	template := filepath.Join(outputDir, "%(title)s [%(id)s].%(ext)s")
	args := []string{"--no-playlist", "-o", template, "--print", "after_move:filepath"}
	if audioOnly {
		args = append(args, "-x", "--audio-format", "mp3")
	} else {
		args = append(args, "--remux-video", "webm")
	}
	args = append(args, target)

	cmd := exec.CommandContext(ctx, y.Executable, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("yt-dlp download timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("yt-dlp download failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	path := lines[len(lines)-1]
	if path == "" {
		return "", fmt.Errorf("yt-dlp download produced no output path")
	}
	return path, nil
}

// WithDownloader attaches the external-download subprocess collaborator
// for DownloadContainer/DownloadAudio modes. Returns the same Resolver for
// chaining at construction time; left unset, Download returns an
// ExternalService error rather than panicking.
func (r *Resolver) WithDownloader(d Downloader) *Resolver {
	r.downloader = d
	return r
}

// Download materializes query as a local file via the configured
// Downloader (spec §4.3's Download* mode row). Only single-track queries
// have a clear download target; playlists/service-track lists return a
// fatal AudioStream error since spec §4.3 marks that combination N/A.
func (r *Resolver) Download(ctx context.Context, query types.QueryKind, outputDir string, audioOnly bool) (string, error) {
	if r.downloader == nil {
		return "", types.NewExternalService("download", fmt.Errorf("no downloader configured"))
	}
	target, err := downloadTarget(query)
	if err != nil {
		return "", err
	}
	path, err := r.downloader.Download(ctx, target, outputDir, audioOnly)
	if err != nil {
		return "", types.NewAudioStream("download", err)
	}
	return path, nil
}

func downloadTarget(query types.QueryKind) (string, error) {
	switch v := query.(type) {
	case types.VideoLink:
		return v.URL, nil
	case types.File:
		if v.Attachment.URL == "" {
			return "", types.NewAudioStream("download", fmt.Errorf("attachment has no url"))
		}
		return v.Attachment.URL, nil
	case types.ResolvedAudio:
		if v.Metadata.SourceURL == "" {
			return "", types.NewAudioStream("download", fmt.Errorf("resolved audio has no source url"))
		}
		return v.Metadata.SourceURL, nil
	case types.Keywords:
		return "ytsearch1:" + v.Text, nil
	default:
		return "", types.NewAudioStream("download", fmt.Errorf("query kind %T is not downloadable", query))
	}
}
