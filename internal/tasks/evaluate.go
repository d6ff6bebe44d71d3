package tasks

import (
	"context"
	"sync"

	"github.com/nbailey/spotify-recommender/internal/services"
	"golang.org/x/time/rate"
)

// fetchResult carries one evaluated candidate playlist, or the fetch error
// that caused it to be skipped.
type fetchResult struct {
	index     int
	evaluated EvaluatedPlaylist
	err       error
}

// ScorePlaylist computes the artist-diversity overlap score for a fetched
// candidate playlist against the seed set.
//
// Matches are the playlist's tracks that are not in the seed set, deduplicated
// by track ID. The score is matches * distinctArtists^2, which heavily rewards
// playlists sharing songs from many different artists over many songs from one
// artist. A playlist containing only seed tracks scores zero and contributes
// nothing downstream.
func ScorePlaylist(seed *SeedSet, candidate CandidatePlaylist, tracks []services.Track) EvaluatedPlaylist {
	evaluated := EvaluatedPlaylist{
		CandidatePlaylist: candidate,
		TrackTotal:        len(tracks),
	}

	seen := make(map[string]struct{}, len(tracks))
	artists := make(map[string]struct{})

	for _, track := range tracks {
		if seed.Contains(track.ID) {
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}

		evaluated.Matches = append(evaluated.Matches, track)
		if id := track.PrimaryArtistID(); id != "" {
			artists[id] = struct{}{}
		}
	}

	evaluated.ArtistCount = len(artists)
	if len(evaluated.Matches) > 0 {
		evaluated.Score = float64(len(evaluated.Matches) * evaluated.ArtistCount * evaluated.ArtistCount)
	}

	return evaluated
}

// Evaluate runs phase 2: fetches the full track list of each ranked candidate
// playlist and scores its overlap with the seed set.
//
// Fetches run on a bounded worker pool sharing a rate limiter, mirroring the
// discovery phase. Fetch failures are logged and skipped. Zero-score playlists
// are dropped here since they cannot contribute to any candidate song. The
// returned slice preserves the candidate ranking order.
func (e *RecommendEngine) Evaluate(ctx context.Context, progress chan<- ProgressUpdate, seed *SeedSet, ranked []CandidatePlaylist, opts RecommendOpts) ([]EvaluatedPlaylist, int, error) {
	total := len(ranked)

	e.sendProgress(progress, evaluateStartUpdate(total))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan int, total)
	results := make(chan fetchResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				candidate := ranked[index]

				if err := limiter.Wait(ctx); err != nil {
					results <- fetchResult{index: index, err: err}
					continue
				}

				export, err := e.service.ExportPlaylist(ctx, candidate.ID)
				if err != nil {
					results <- fetchResult{index: index, err: err}
					continue
				}

				results <- fetchResult{
					index:     index,
					evaluated: ScorePlaylist(seed, candidate, export.Tracks),
				}
			}
		}()
	}

	for i := range ranked {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	evaluated := make([]*EvaluatedPlaylist, total)
	failed := 0
	done := 0

	for result := range results {
		done++
		candidate := ranked[result.index]

		if result.err != nil {
			failed++
			e.logger.Warn("playlist fetch failed, skipping candidate",
				"playlist", candidate.ID, "hits", candidate.Hits, "error", result.err)
			e.sendProgress(progress, fetchFailedUpdate(done, total, candidate))
			continue
		}

		e.sendProgress(progress, evaluatedUpdate(done, total, result.evaluated))

		if result.evaluated.Score == 0 {
			continue
		}

		ev := result.evaluated
		evaluated[result.index] = &ev
	}

	if err := ctx.Err(); err != nil {
		return nil, failed, err
	}

	ordered := make([]EvaluatedPlaylist, 0, total)
	for _, ev := range evaluated {
		if ev != nil {
			ordered = append(ordered, *ev)
		}
	}

	return ordered, failed, nil
}
