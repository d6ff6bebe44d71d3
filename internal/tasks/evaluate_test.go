package tasks

import (
	"context"
	"testing"

	"github.com/nbailey/spotify-recommender/internal/services"
)

func testSeed(trackIDs ...string) *SeedSet {
	tracks := make([]services.Track, len(trackIDs))
	for i, id := range trackIDs {
		tracks[i] = track(id, "seed-artist", 50)
	}
	return NewSeedSet(&services.PlaylistExport{
		Playlist: services.Playlist{ID: "seedpl"},
		Tracks:   tracks,
	})
}

func TestScorePlaylist(t *testing.T) {
	seed := testSeed("s1", "s2")
	candidate := CandidatePlaylist{ID: "pl1", Hits: 2}

	t.Run("Diversity Weighting", func(t *testing.T) {
		// Four matches across three artists
		diverse := []services.Track{
			track("c1", "x1", 10),
			track("c2", "x1", 20),
			track("c3", "x2", 30),
			track("c4", "x3", 40),
		}
		ev := ScorePlaylist(seed, candidate, diverse)
		if len(ev.Matches) != 4 || ev.ArtistCount != 3 {
			t.Fatalf("matches = %d, artists = %d", len(ev.Matches), ev.ArtistCount)
		}
		if ev.Score != 36 {
			t.Errorf("score = %.0f, want 36 (4 * 3^2)", ev.Score)
		}

		// Same four matches, single artist
		narrow := []services.Track{
			track("c1", "x1", 10),
			track("c2", "x1", 20),
			track("c3", "x1", 30),
			track("c4", "x1", 40),
		}
		ev = ScorePlaylist(seed, candidate, narrow)
		if ev.Score != 4 {
			t.Errorf("score = %.0f, want 4 (4 * 1^2)", ev.Score)
		}
	})

	t.Run("Seed Tracks Excluded", func(t *testing.T) {
		tracks := []services.Track{
			track("s1", "a1", 50),
			track("s2", "a2", 60),
			track("c1", "x1", 10),
		}
		ev := ScorePlaylist(seed, candidate, tracks)
		if len(ev.Matches) != 1 || ev.Matches[0].ID != "c1" {
			t.Fatalf("matches = %+v, want only c1", ev.Matches)
		}
		if ev.TrackTotal != 3 {
			t.Errorf("track total = %d, want 3", ev.TrackTotal)
		}
	})

	t.Run("Duplicate Tracks Counted Once", func(t *testing.T) {
		tracks := []services.Track{
			track("c1", "x1", 10),
			track("c1", "x1", 10),
		}
		ev := ScorePlaylist(seed, candidate, tracks)
		if len(ev.Matches) != 1 {
			t.Errorf("matches = %d, want 1", len(ev.Matches))
		}
		if ev.Score != 1 {
			t.Errorf("score = %.0f, want 1", ev.Score)
		}
	})

	t.Run("Only Seed Tracks Scores Zero", func(t *testing.T) {
		tracks := []services.Track{track("s1", "a1", 50), track("s2", "a2", 60)}
		ev := ScorePlaylist(seed, candidate, tracks)
		if ev.Score != 0 {
			t.Errorf("score = %.0f, want 0", ev.Score)
		}
	})

	t.Run("Empty Playlist Scores Zero", func(t *testing.T) {
		ev := ScorePlaylist(seed, candidate, nil)
		if ev.Score != 0 || ev.TrackTotal != 0 {
			t.Errorf("score = %.0f, total = %d", ev.Score, ev.TrackTotal)
		}
	})
}

func TestEvaluatePreservesRankOrder(t *testing.T) {
	seed := testSeed("s1")

	svc := &mockService{
		exports: map[string]*services.PlaylistExport{
			// pl1 (higher ranked) fetches fine, as does pl3
			"pl1": {Playlist: services.Playlist{ID: "pl1"}, Tracks: []services.Track{track("c1", "x1", 10)}},
			"pl3": {Playlist: services.Playlist{ID: "pl3"}, Tracks: []services.Track{track("c2", "x2", 20)}},
			// pl2 holds only seed tracks and scores zero
			"pl2": {Playlist: services.Playlist{ID: "pl2"}, Tracks: []services.Track{track("s1", "a1", 50)}},
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	ranked := []CandidatePlaylist{
		{ID: "pl1", Hits: 3},
		{ID: "pl2", Hits: 2},
		{ID: "pl3", Hits: 1},
	}

	evaluated, failed, err := engine.Evaluate(context.Background(), nil, seed, ranked, RecommendOpts{RateLimit: 500}.withDefaults())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}

	if len(evaluated) != 2 {
		t.Fatalf("evaluated = %d, want 2 (zero-score playlist dropped)", len(evaluated))
	}
	if evaluated[0].ID != "pl1" || evaluated[1].ID != "pl3" {
		t.Errorf("order = %s, %s; want pl1, pl3", evaluated[0].ID, evaluated[1].ID)
	}
}
