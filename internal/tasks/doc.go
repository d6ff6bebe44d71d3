// Package tasks orchestrates the two-phase recommendation pipeline with real-time progress reporting.
//
// # Pipeline
//
// [RecommendEngine.Recommend] runs five steps:
//
//  1. Resolve seed: fetch the input playlist's full track list. Zero tracks
//     or a failed fetch is fatal; everything after degrades gracefully.
//
//  2. Discover (cheap): search for public playlists for every seed track,
//     collecting only playlist IDs. Counts how many different seed track
//     searches each playlist appeared in (the "hit count"), a cheap proxy
//     for overlap before committing to full track list fetches.
//
//  3. Rank: order candidates by hit count, truncate to the fetch limit.
//     Pure and deterministic; ties break on discovery order.
//
//  4. Evaluate (selective): fetch full track lists for the top candidates
//     only. Score each playlist with the exponential artist-diversity
//     formula score = matches * distinctArtists^2, where matches are the
//     playlist's non-seed tracks.
//
//  5. Aggregate: weight each candidate song by the summed scores of the
//     playlists it came from, resolve missing popularity in batches, filter
//     out songs above the popularity ceiling, and return the top N.
//
// # Partial failure
//
// Per-item search and fetch errors are logged and skipped; they reduce result
// quality but never abort a run. Only seed resolution and authentication
// errors propagate to the caller.
//
// # Progress reporting
//
// All operations send [ProgressUpdate] values on a caller-supplied channel
// using select with default, so a slow or absent consumer never blocks the
// pipeline.
//
// # Concurrency
//
// Search and fetch calls run on bounded worker pools sharing a [rate.Limiter]
// per phase. All merging happens on a single collecting goroutine that owns
// the maps, and every aggregation is commutative (counts, sums, min order
// keys), so worker completion order never affects the result.
package tasks
