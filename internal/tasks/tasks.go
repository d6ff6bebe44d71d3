// package tasks implements the two-phase playlist recommendation pipeline.
//
// The core abstraction is RecommendEngine, which discovers candidate playlists
// via per-track searches, evaluates the best candidates by fetching their full
// track lists, and aggregates diversity-weighted scores into a ranked
// recommendation list. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
)

// RecommendOpts contains tuning knobs for a recommendation run.
type RecommendOpts struct {
	Count                 int     // Recommendations to return (default 30)
	FetchLimit            int     // Candidate playlists to fully evaluate (default 50)
	SearchResultsPerTrack int     // Playlist results requested per seed track search (default 20)
	MaxPopularity         int     // Popularity ceiling 0-100, 100 disables the filter; 0 is a valid ceiling, negatives fall back to 80
	Workers               int     // Concurrent API calls per phase (default 4)
	RateLimit             float64 // API requests per second across workers (default 5)
}

// withDefaults fills zero values with the documented defaults and clamps
// out-of-range settings.
func (o RecommendOpts) withDefaults() RecommendOpts {
	if o.Count <= 0 {
		o.Count = 30
	}
	if o.FetchLimit <= 0 {
		o.FetchLimit = 50
	}
	if o.SearchResultsPerTrack <= 0 {
		o.SearchResultsPerTrack = 20
	}
	// 0 is a deliberate ceiling (keep only unknown or zero popularity), so
	// only negatives count as unset. The flag layer supplies the usual 80.
	if o.MaxPopularity < 0 {
		o.MaxPopularity = 80
	}
	if o.MaxPopularity > 100 {
		o.MaxPopularity = 100
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Workers > 10 {
		o.Workers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	return o
}

// SeedSet holds the tracks of the input playlist. Built once at the start of a
// run and read-only thereafter; seed tracks never appear as recommendations.
type SeedSet struct {
	Playlist services.Playlist
	tracks   []services.Track
	ids      map[string]struct{}
}

// NewSeedSet builds a SeedSet from an exported playlist.
func NewSeedSet(export *services.PlaylistExport) *SeedSet {
	set := &SeedSet{
		Playlist: export.Playlist,
		tracks:   export.Tracks,
		ids:      make(map[string]struct{}, len(export.Tracks)),
	}
	for _, track := range export.Tracks {
		set.ids[track.ID] = struct{}{}
	}
	return set
}

// Contains reports whether the given track ID belongs to the seed playlist.
func (s *SeedSet) Contains(trackID string) bool {
	_, ok := s.ids[trackID]
	return ok
}

// Tracks returns the seed tracks in playlist order.
func (s *SeedSet) Tracks() []services.Track {
	return s.tracks
}

// Len returns the number of seed tracks.
func (s *SeedSet) Len() int {
	return len(s.tracks)
}

// discoveryOrder records where a playlist was first surfaced: the lowest
// (seed track index, result position) pair across all searches. Ranking ties
// break on this key, which is deterministic regardless of how search calls
// interleave.
type discoveryOrder struct {
	seed int
	pos  int
}

func (d discoveryOrder) less(other discoveryOrder) bool {
	if d.seed != other.seed {
		return d.seed < other.seed
	}
	return d.pos < other.pos
}

// CandidatePlaylist is a playlist surfaced during discovery with its hit count:
// the number of distinct seed track searches it appeared in.
type CandidatePlaylist struct {
	ID    string
	Name  string
	Hits  int
	order discoveryOrder
}

// EvaluatedPlaylist is a candidate playlist with its fetched track list scored
// by the artist-diversity overlap formula.
type EvaluatedPlaylist struct {
	CandidatePlaylist
	TrackTotal  int              // Tracks in the playlist's full listing
	Matches     []services.Track // Non-seed tracks, deduplicated by ID
	ArtistCount int              // Distinct primary artists among Matches
	Score       float64          // len(Matches) * ArtistCount^2
}

// CandidateSong is a non-seed track eligible for recommendation, accumulating
// the scores of every evaluated playlist that contains it.
type CandidateSong struct {
	Track   services.Track
	Score   float64 // Sum of containing playlists' scores
	Sources int     // Number of evaluated playlists that contributed
}

// RecommendResult contains all data from a recommendation run.
type RecommendResult struct {
	Seed            *services.PlaylistExport // Input playlist with tracks
	Discovered      int                      // Unique candidate playlists found in phase 1
	TopHits         int                      // Highest hit count among candidates
	FailedSearches  int                      // Seed track searches that errored (skipped)
	Evaluated       []EvaluatedPlaylist      // Playlists fetched and scored in phase 2
	FailedFetches   int                      // Candidate fetches that errored (skipped)
	CandidateCount  int                      // Distinct candidate songs before filtering
	FilteredOut     int                      // Candidates removed by the popularity filter
	Recommendations []CandidateSong          // Final ranked list, length <= Count
}

// RecommendEngine orchestrates the discovery/evaluation/scoring pipeline
// against a music service.
type RecommendEngine struct {
	service services.Service
	logger  *log.Logger
}

// NewRecommendEngine creates a new RecommendEngine with the provided service.
func NewRecommendEngine(service services.Service, logger *log.Logger) *RecommendEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RecommendEngine{service: service, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *RecommendEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Recommend runs the full pipeline for the given playlist ID.
//
// Fatal errors are limited to seed resolution (the playlist cannot be fetched
// or has no tracks) and authentication; per-item search and fetch failures in
// the two phases are logged and skipped. An empty recommendation list is not
// an error here; callers decide how to report it.
func (e *RecommendEngine) Recommend(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, opts RecommendOpts) (*RecommendResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	opts = opts.withDefaults()

	e.sendProgress(progress, resolveSeedUpdate())
	export, err := e.service.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch seed playlist: %v", shared.ErrPlaylistNotFound, err)
	}
	if len(export.Tracks) == 0 {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNoSeedTracks, playlistID)
	}

	seed := NewSeedSet(export)
	e.sendProgress(progress, seedResolvedUpdate(export))

	result := &RecommendResult{Seed: export}

	candidates, failedSearches, err := e.Discover(ctx, progress, seed, opts)
	if err != nil {
		return nil, err
	}
	result.Discovered = len(candidates)
	result.FailedSearches = failedSearches

	ranked := RankCandidates(candidates, opts.FetchLimit)
	if len(ranked) > 0 {
		result.TopHits = ranked[0].Hits
	}
	e.sendProgress(progress, discoveredUpdate(len(candidates), result.TopHits))

	if len(ranked) == 0 {
		return result, nil
	}

	evaluated, failedFetches, err := e.Evaluate(ctx, progress, seed, ranked, opts)
	if err != nil {
		return nil, err
	}
	result.Evaluated = evaluated
	result.FailedFetches = failedFetches

	songs := MergeScores(evaluated)
	result.CandidateCount = len(songs)
	e.sendProgress(progress, aggregateUpdate(len(songs)))

	e.resolvePopularity(ctx, songs)

	recommendations, filteredOut := RankSongs(songs, opts.MaxPopularity, opts.Count)
	result.FilteredOut = filteredOut
	result.Recommendations = recommendations
	e.sendProgress(progress, recommendationsUpdate(len(recommendations)))

	return result, nil
}

// RankCandidates orders discovered playlists by hit count descending, ties
// broken by discovery order, and truncates to fetchLimit. Pure function.
func RankCandidates(candidates map[string]*CandidatePlaylist, fetchLimit int) []CandidatePlaylist {
	ranked := make([]CandidatePlaylist, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, *candidate)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Hits != ranked[j].Hits {
			return ranked[i].Hits > ranked[j].Hits
		}
		return ranked[i].order.less(ranked[j].order)
	})

	if fetchLimit > 0 && len(ranked) > fetchLimit {
		ranked = ranked[:fetchLimit]
	}

	return ranked
}

// resolvePopularity fills in missing popularity values with batched track
// lookups. Lookup failures are logged and the affected tracks keep their
// unknown popularity, which the filter treats as passing.
func (e *RecommendEngine) resolvePopularity(ctx context.Context, songs map[string]*CandidateSong) {
	var unresolved []string
	for id, song := range songs {
		if song.Track.Popularity == services.PopularityUnknown {
			unresolved = append(unresolved, id)
		}
	}

	if len(unresolved) == 0 {
		return
	}

	sort.Strings(unresolved)

	tracks, err := e.service.SeveralTracks(ctx, unresolved)
	if err != nil {
		e.logger.Warn("popularity lookup failed, keeping unfiltered candidates", "tracks", len(unresolved), "error", err)
		return
	}

	for _, track := range tracks {
		if song, ok := songs[track.ID]; ok {
			song.Track.Popularity = track.Popularity
		}
	}
}
