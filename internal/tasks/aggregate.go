package tasks

import (
	"sort"

	"github.com/nbailey/spotify-recommender/internal/services"
)

// MergeScores sums per-song scores across all evaluated playlists.
//
// Each playlist adds its full score to every one of its matching tracks
// exactly once, so a song's total is the exact sum over the playlists that
// contain it. Pure function.
func MergeScores(evaluated []EvaluatedPlaylist) map[string]*CandidateSong {
	songs := make(map[string]*CandidateSong)

	for _, playlist := range evaluated {
		if playlist.Score == 0 {
			continue
		}
		for _, track := range playlist.Matches {
			song, ok := songs[track.ID]
			if !ok {
				song = &CandidateSong{Track: track}
				songs[track.ID] = song
			} else if song.Track.Popularity == services.PopularityUnknown && track.Popularity != services.PopularityUnknown {
				song.Track = track
			}
			song.Score += playlist.Score
			song.Sources++
		}
	}

	return songs
}

// RankSongs applies the popularity filter and produces the final ordered
// recommendation list, truncated to count. Returns the list and how many
// candidates the popularity filter removed.
//
// Ordering is fully deterministic: score descending, then lower popularity
// first (prefer less mainstream on tie), then track ID. Popularity above
// maxPopularity excludes a song; maxPopularity >= 100 disables the filter
// since popularity caps at 100. Unknown popularity never excludes. Pure
// function.
func RankSongs(songs map[string]*CandidateSong, maxPopularity, count int) ([]CandidateSong, int) {
	filtered := make([]CandidateSong, 0, len(songs))
	filteredOut := 0

	for _, song := range songs {
		if maxPopularity < 100 && song.Track.Popularity > maxPopularity {
			filteredOut++
			continue
		}
		filtered = append(filtered, *song)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		if filtered[i].Track.Popularity != filtered[j].Track.Popularity {
			return filtered[i].Track.Popularity < filtered[j].Track.Popularity
		}
		return filtered[i].Track.ID < filtered[j].Track.ID
	})

	if count > 0 && len(filtered) > count {
		filtered = filtered[:count]
	}

	return filtered, filteredOut
}
