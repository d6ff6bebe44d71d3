package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbailey/spotify-recommender/internal/services"
	"golang.org/x/time/rate"
)

// searchJob is one seed track search in the discovery phase.
type searchJob struct {
	index int
	track services.Track
}

// searchResult carries the playlists one search surfaced, deduplicated in
// result order.
type searchResult struct {
	index     int
	playlists []services.Playlist
	err       error
}

// SearchQuery builds the search text for a seed track: title plus primary artist.
func SearchQuery(track services.Track) string {
	artist := track.PrimaryArtist()
	if artist == "" {
		return track.Title
	}
	return fmt.Sprintf("%s %s", track.Title, artist)
}

// Discover runs phase 1: one playlist search per seed track, tallying per
// playlist how many distinct seed track searches surfaced it.
//
// Searches run on a bounded worker pool sharing a rate limiter. A playlist
// appearing multiple times in one track's results counts once for that track,
// so a hit count never exceeds the seed set size. The seed playlist itself is
// excluded. Failed searches are logged and skipped; they never abort the phase.
func (e *RecommendEngine) Discover(ctx context.Context, progress chan<- ProgressUpdate, seed *SeedSet, opts RecommendOpts) (map[string]*CandidatePlaylist, int, error) {
	tracks := seed.Tracks()
	total := len(tracks)

	e.sendProgress(progress, discoverStartUpdate(total))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan searchJob, total)
	results := make(chan searchResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- searchResult{index: job.index, err: err}
					continue
				}

				playlists, err := e.service.SearchPlaylists(ctx, SearchQuery(job.track), opts.SearchResultsPerTrack)
				results <- searchResult{index: job.index, playlists: playlists, err: err}
			}
		}()
	}

	for i, track := range tracks {
		jobs <- searchJob{index: i, track: track}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// The collecting goroutine owns the candidate map exclusively; hit counts
	// and order keys are commutative, so worker completion order is irrelevant.
	candidates := make(map[string]*CandidatePlaylist)
	failed := 0
	done := 0

	for result := range results {
		done++
		track := tracks[result.index]

		if result.err != nil {
			failed++
			e.logger.Warn("search failed, skipping seed track",
				"track", track.Title, "artist", track.PrimaryArtist(), "error", result.err)
			e.sendProgress(progress, searchFailedUpdate(done, total, track))
			continue
		}

		e.sendProgress(progress, searchingUpdate(done, total, track))

		seen := make(map[string]struct{}, len(result.playlists))
		for pos, playlist := range result.playlists {
			if playlist.ID == seed.Playlist.ID {
				continue
			}
			// Count each playlist at most once per seed track search
			if _, dup := seen[playlist.ID]; dup {
				continue
			}
			seen[playlist.ID] = struct{}{}

			order := discoveryOrder{seed: result.index, pos: pos}
			candidate, ok := candidates[playlist.ID]
			if !ok {
				candidates[playlist.ID] = &CandidatePlaylist{
					ID:    playlist.ID,
					Name:  playlist.Name,
					Hits:  1,
					order: order,
				}
				continue
			}

			candidate.Hits++
			if order.less(candidate.order) {
				candidate.order = order
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, failed, err
	}

	return candidates, failed, nil
}
