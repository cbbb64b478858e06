package commands

import (
	"context"

	"cracktunes/internal/types"
)

// PlayNext is "playnext": identical to Play except the mode is forced to
// ModeNext, matching the teacher's pattern of a dedicated command aliasing
// a mode rather than requiring "play next <query>" every time.
func PlayNext(ctx context.Context, d Deps, req PlayRequest) (*PlayResult, error) {
	return playWithMode(ctx, d, req, types.ModeNext)
}
