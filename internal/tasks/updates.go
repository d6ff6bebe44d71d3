package tasks

import (
	"fmt"

	"github.com/nbailey/spotify-recommender/internal/services"
)

// ProgressUpdate represents a progress event during a recommendation run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	ResolveSeed Phase = iota
	Discover
	Rank
	Evaluate
	Aggregate
	CreatePlaylist
)

func (p Phase) String() string {
	switch p {
	case ResolveSeed:
		return "resolve_seed"
	case Discover:
		return "discover"
	case Rank:
		return "rank"
	case Evaluate:
		return "evaluate"
	case Aggregate:
		return "aggregate"
	case CreatePlaylist:
		return "create_playlist"
	default:
		return ""
	}
}

func resolveSeedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveSeed,
		Step:    1,
		Total:   1,
		Message: "Fetching tracks from input playlist...",
	}
}

func seedResolvedUpdate(export *services.PlaylistExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveSeed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", export.Playlist.Name, len(export.Tracks)),
		Data:    export,
	}
}

func discoverStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discover,
		Step:    0,
		Total:   total,
		Message: "Phase 1: Discovering candidate playlists...",
	}
}

func searchingUpdate(step, total int, track services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searched: %s - %s", step, total, track.Title, track.PrimaryArtist()),
	}
}

func searchFailedUpdate(step, total int, track services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ Search failed: %s - %s (skipped)", step, total, track.Title, track.PrimaryArtist()),
	}
}

func discoveredUpdate(count, topHits int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Rank,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d unique playlists (best candidate hit %d track searches)", count, topHits),
	}
}

func evaluateStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Evaluate,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Phase 2: Evaluating top %d playlists...", total),
	}
}

func evaluatedUpdate(step, total int, evaluated EvaluatedPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase: Evaluate,
		Step:  step,
		Total: total,
		Message: fmt.Sprintf("[%d/%d] %d tracks, %d matches across %d artists, score=%.0f",
			step, total, evaluated.TrackTotal, len(evaluated.Matches), evaluated.ArtistCount, evaluated.Score),
		Data: evaluated,
	}
}

func fetchFailedUpdate(step, total int, candidate CandidatePlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Evaluate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ Fetch failed: %s (skipped)", step, total, candidate.ID),
	}
}

func aggregateUpdate(candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Aggregating scores for %d candidate songs...", candidates),
	}
}

func recommendationsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d recommendations", count),
	}
}
