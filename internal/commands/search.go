package commands

import (
	"context"

	"cracktunes/internal/types"
)

// Search runs the interactive picker variant of play. The current
// Searcher contract (internal/resolver.Searcher) only returns the single
// top hit rather than a ranked list, so there is nothing to pick between
// yet; Search degrades to resolving and queuing that top hit directly,
// same as a plain ModeSearch dispatch. A real picker needs a Searcher
// that returns multiple candidates plus a reaction/component collector,
// neither of which the resolver contract specifies yet.
func Search(ctx context.Context, d Deps, req PlayRequest) (*PlayResult, error) {
	return playWithMode(ctx, d, req, types.ModeSearch)
}
