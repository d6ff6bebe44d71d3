package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nbailey/spotify-recommender/internal/formatter"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/nbailey/spotify-recommender/internal/tasks"
	"github.com/nbailey/spotify-recommender/internal/ui"
	"github.com/urfave/cli/v3"
)

// Recommend runs the full discovery/evaluation/scoring pipeline and, unless
// told otherwise, creates a playlist from the result.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist URL, URI, or ID", shared.ErrMissingArgument)
	}

	playlistID := shared.ExtractPlaylistID(ref)
	if playlistID == "" {
		return fmt.Errorf("%w: could not parse playlist reference %q", shared.ErrInvalidArgument, ref)
	}

	if err := r.requireSpotify(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.RecommendOpts{
		Count:                 cmd.Int("count"),
		FetchLimit:            cmd.Int("fetch-limit"),
		SearchResultsPerTrack: cmd.Int("search-results-per-track"),
		MaxPopularity:         cmd.Int("max-popularity"),
		Workers:               cmd.Int("workers"),
		RateLimit:             r.config.Recommender.RateLimit,
	}

	r.logger.Info("starting recommendation run", "playlist", playlistID, "count", opts.Count)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := r.engine.Recommend(ctx, progressCh, playlistID, opts)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	if len(result.Recommendations) == 0 {
		r.logger.Warn("no recommendations produced",
			"discovered", result.Discovered, "evaluated", len(result.Evaluated), "filtered_out", result.FilteredOut)
		r.writePlainln("No recommendations found. Try a playlist with more tracks, or raise --max-popularity.")
		return nil
	}

	r.printSummary(result)

	if output := cmd.String("output"); output != "" {
		if filepath.Ext(output) == "" {
			output += formatter.DefaultExtension(format)
		}
		data, err := formatter.RenderRecommendations(result, format)
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(output, data); err != nil {
			return err
		}
		r.writePlain("✓ Report written to %s\n", output)
	}

	if cmd.Bool("dry-run") {
		r.logger.Info("dry run, skipping playlist creation")
		return nil
	}

	name := cmd.String("name")
	if name == "" {
		name = fmt.Sprintf("Recommendations from %s", result.Seed.Playlist.Name)
	}
	description := fmt.Sprintf("Songs discovered from playlists overlapping %q", result.Seed.Playlist.Name)

	if cmd.Bool("review") {
		return r.reviewAndCreate(ctx, result, name, description)
	}

	tracks := make([]services.Track, len(result.Recommendations))
	for i, rec := range result.Recommendations {
		tracks[i] = rec.Track
	}

	playlist, err := r.createPlaylist(ctx, name, description, tracks)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Playlist created: %s", playlist.Name)
	r.writePlain("  ID: %s\n", playlist.ID)
	if playlist.URL != "" {
		r.writePlain("  URL: %s\n", playlist.URL)
	}

	return nil
}

// createPlaylist adds the chosen tracks to a new private playlist.
func (r *Runner) createPlaylist(ctx context.Context, name, description string, tracks []services.Track) (*services.Playlist, error) {
	uris := make([]string, 0, len(tracks))
	for _, track := range tracks {
		uri := track.URI
		if uri == "" {
			uri = shared.TrackURI(track.ID)
		}
		uris = append(uris, uri)
	}

	r.logger.Info("creating playlist", "name", name, "tracks", len(uris))

	playlist, err := r.spotify.CreatePlaylist(ctx, name, description, false, uris)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return playlist, nil
}

// reviewAndCreate hands the result to the interactive TUI, creating the
// playlist from whatever songs survive review.
func (r *Runner) reviewAndCreate(ctx context.Context, result *tasks.RecommendResult, name, description string) error {
	model := ui.NewModel(ctx, result, name, func(ctx context.Context, tracks []services.Track) (*services.Playlist, error) {
		return r.createPlaylist(ctx, name, description, tracks)
	})

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}

	if model.Cancelled() {
		r.writePlainln("Review cancelled, no playlist created.")
		return nil
	}
	if err := model.Err(); err != nil {
		return err
	}
	if playlist := model.Playlist(); playlist != nil {
		r.writePlainln("✓ Playlist created: %s (%s)", playlist.Name, playlist.ID)
	}

	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ResolveSeed:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.Discover:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.Rank:
		r.writePlain("\n📊 %s\n", update.Message)
	case tasks.Evaluate:
		if update.Step == 0 {
			r.writePlain("\n🎧 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.Aggregate:
		r.writePlain("\n🧮 %s\n", update.Message)
	case tasks.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	}
}

func (r *Runner) printSummary(result *tasks.RecommendResult) {
	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Recommendations from %s", result.Seed.Playlist.Name))
	r.writePlain("Seed tracks: %d\n", len(result.Seed.Tracks))
	r.writePlain("Playlists discovered: %d (top hit count %d)\n", result.Discovered, result.TopHits)
	r.writePlain("Playlists evaluated: %d\n", len(result.Evaluated))
	r.writePlain("Candidate songs: %d (%d removed by popularity filter)\n", result.CandidateCount, result.FilteredOut)
	if result.FailedSearches > 0 || result.FailedFetches > 0 {
		r.writePlain("Skipped: %d failed searches, %d failed fetches\n", result.FailedSearches, result.FailedFetches)
	}
	r.writePlain("\n")

	for i, rec := range result.Recommendations {
		line := fmt.Sprintf("%d. %s - %s", i+1, rec.Track.PrimaryArtist(), rec.Track.Title)
		details := []string{fmt.Sprintf("score %.0f", rec.Score), fmt.Sprintf("%d playlists", rec.Sources)}
		if rec.Track.Popularity != services.PopularityUnknown {
			details = append(details, fmt.Sprintf("popularity %d", rec.Track.Popularity))
		}
		r.writePlain("%s  [%s]\n", line, strings.Join(details, ", "))
	}
	r.writePlain("\n")
}
