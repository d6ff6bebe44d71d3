package main

import (
	"context"
	"fmt"

	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStatus lists the tokens held in the local cache.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: token cache not available, run 'sprec setup'", shared.ErrServiceUnavailable)
	}

	statuses, err := r.tokens.Status()
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		r.writePlain("Token cache is empty.\n")
		return nil
	}

	r.writePlain("Cached tokens:\n")
	for _, status := range statuses {
		state := "valid"
		if status.Expired() {
			state = "expired"
		}
		r.writePlain("  %s: %s (updated %s)\n", status.Service, state, status.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// CacheClear removes the cached Spotify token.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: token cache not available", shared.ErrServiceUnavailable)
	}

	if err := r.tokens.Delete(spotifyServiceName); err != nil {
		return err
	}

	r.logger.Info("token cache cleared", "service", spotifyServiceName)
	r.writePlain("✓ Cached Spotify token removed\n")

	return nil
}
