package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type mockService struct {
	mu            sync.Mutex
	searchResults map[string][]services.Playlist
	searchErrs    map[string]error
	exports       map[string]*services.PlaylistExport
	exportErrs    map[string]error
	trackPop      map[string]int
	severalErr    error
	createResult  *services.Playlist
	createErr     error
	searchCalls   int
	severalCalls  int
	severalIDs    [][]string
}

func (m *mockService) Name() string { return "mock" }

func (m *mockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *mockService) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if export, ok := m.exports[playlistID]; ok {
		return &export.Playlist, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockService) ExportPlaylist(ctx context.Context, playlistID string) (*services.PlaylistExport, error) {
	if err, ok := m.exportErrs[playlistID]; ok {
		return nil, err
	}
	if export, ok := m.exports[playlistID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *mockService) SearchPlaylists(ctx context.Context, query string, limit int) ([]services.Playlist, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()

	if err, ok := m.searchErrs[query]; ok {
		return nil, err
	}
	results := m.searchResults[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockService) SeveralTracks(ctx context.Context, trackIDs []string) ([]services.Track, error) {
	m.mu.Lock()
	m.severalCalls++
	m.severalIDs = append(m.severalIDs, trackIDs)
	m.mu.Unlock()

	if m.severalErr != nil {
		return nil, m.severalErr
	}

	tracks := make([]services.Track, 0, len(trackIDs))
	for _, id := range trackIDs {
		pop, ok := m.trackPop[id]
		if !ok {
			continue
		}
		tracks = append(tracks, services.Track{ID: id, Popularity: pop})
	}
	return tracks, nil
}

func (m *mockService) CreatePlaylist(ctx context.Context, name, description string, public bool, trackURIs []string) (*services.Playlist, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResult, nil
}

// track builds a test track with a single primary artist.
func track(id, artist string, popularity int) services.Track {
	return services.Track{
		ID:         id,
		URI:        "spotify:track:" + id,
		Title:      "Title " + id,
		Artists:    []services.Artist{{ID: artist, Name: "Name " + artist}},
		Popularity: popularity,
	}
}

func playlist(id string) services.Playlist {
	return services.Playlist{ID: id, Name: "Playlist " + id}
}

func TestSearchQuery(t *testing.T) {
	q := SearchQuery(track("t1", "a1", 50))
	if q != "Title t1 Name a1" {
		t.Errorf("SearchQuery = %q", q)
	}

	noArtist := services.Track{ID: "t2", Title: "Solo"}
	if q := SearchQuery(noArtist); q != "Solo" {
		t.Errorf("SearchQuery without artist = %q", q)
	}
}

func TestDiscover(t *testing.T) {
	seedExport := &services.PlaylistExport{
		Playlist: services.Playlist{ID: "seedpl", Name: "Seed"},
		Tracks:   []services.Track{track("s1", "a1", 50), track("s2", "a2", 60), track("s3", "a3", 70)},
	}
	seed := NewSeedSet(seedExport)

	svc := &mockService{
		searchResults: map[string][]services.Playlist{
			// pl1 surfaces for every seed track; duplicated within s1's results
			SearchQuery(seedExport.Tracks[0]): {playlist("pl1"), playlist("pl1"), playlist("pl2"), playlist("seedpl")},
			SearchQuery(seedExport.Tracks[1]): {playlist("pl1"), playlist("pl3")},
			SearchQuery(seedExport.Tracks[2]): {playlist("pl1")},
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	candidates, failed, err := engine.Discover(context.Background(), nil, seed, RecommendOpts{RateLimit: 500}.withDefaults())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if failed != 0 {
		t.Errorf("failed searches = %d, want 0", failed)
	}

	if _, ok := candidates["seedpl"]; ok {
		t.Error("seed playlist must be excluded from candidates")
	}

	if got := candidates["pl1"].Hits; got != 3 {
		t.Errorf("pl1 hits = %d, want 3 (duplicates within one search count once)", got)
	}
	if got := candidates["pl2"].Hits; got != 1 {
		t.Errorf("pl2 hits = %d, want 1", got)
	}
	if got := candidates["pl3"].Hits; got != 1 {
		t.Errorf("pl3 hits = %d, want 1", got)
	}

	for id, candidate := range candidates {
		if candidate.Hits > seed.Len() {
			t.Errorf("playlist %s hits = %d exceeds seed set size %d", id, candidate.Hits, seed.Len())
		}
	}
}

func TestDiscoverPartialFailure(t *testing.T) {
	seedExport := &services.PlaylistExport{
		Playlist: services.Playlist{ID: "seedpl"},
		Tracks:   []services.Track{track("s1", "a1", 50), track("s2", "a2", 60), track("s3", "a3", 70)},
	}
	seed := NewSeedSet(seedExport)

	svc := &mockService{
		searchResults: map[string][]services.Playlist{
			SearchQuery(seedExport.Tracks[0]): {playlist("pl1")},
			SearchQuery(seedExport.Tracks[2]): {playlist("pl1"), playlist("pl2")},
		},
		searchErrs: map[string]error{
			SearchQuery(seedExport.Tracks[1]): fmt.Errorf("503 from search"),
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	candidates, failed, err := engine.Discover(context.Background(), nil, seed, RecommendOpts{RateLimit: 500}.withDefaults())
	if err != nil {
		t.Fatalf("Discover must not fail on per-item errors: %v", err)
	}

	if failed != 1 {
		t.Errorf("failed searches = %d, want 1", failed)
	}
	if got := candidates["pl1"].Hits; got != 2 {
		t.Errorf("pl1 hits = %d, want 2 (remaining searches still counted)", got)
	}
	if got := candidates["pl2"].Hits; got != 1 {
		t.Errorf("pl2 hits = %d, want 1", got)
	}
}

func TestRankCandidates(t *testing.T) {
	candidates := map[string]*CandidatePlaylist{
		"pl1": {ID: "pl1", Hits: 2, order: discoveryOrder{seed: 0, pos: 1}},
		"pl2": {ID: "pl2", Hits: 5, order: discoveryOrder{seed: 1, pos: 0}},
		"pl3": {ID: "pl3", Hits: 2, order: discoveryOrder{seed: 0, pos: 0}},
		"pl4": {ID: "pl4", Hits: 1, order: discoveryOrder{seed: 2, pos: 3}},
	}

	ranked := RankCandidates(candidates, 3)

	if len(ranked) != 3 {
		t.Fatalf("expected truncation to 3, got %d", len(ranked))
	}
	if ranked[0].ID != "pl2" {
		t.Errorf("rank 1 = %s, want pl2 (highest hits)", ranked[0].ID)
	}
	// pl3 and pl1 tie on hits; pl3 was discovered earlier
	if ranked[1].ID != "pl3" || ranked[2].ID != "pl1" {
		t.Errorf("tie broken wrong: got %s, %s", ranked[1].ID, ranked[2].ID)
	}

	// Deterministic across repeated calls
	again := RankCandidates(candidates, 3)
	for i := range ranked {
		if ranked[i].ID != again[i].ID {
			t.Fatalf("ranking not deterministic at index %d: %s vs %s", i, ranked[i].ID, again[i].ID)
		}
	}
}

func TestRecommend(t *testing.T) {
	seedTracks := []services.Track{track("s1", "a1", 50), track("s2", "a2", 60)}

	// pl1 holds three non-seed tracks from two artists plus one seed track:
	// score = 3 * 2^2 = 12. pl2 holds one of the same tracks: score = 1 * 1 = 1.
	exports := map[string]*services.PlaylistExport{
		"seedpl": {
			Playlist: services.Playlist{ID: "seedpl", Name: "My Mix"},
			Tracks:   seedTracks,
		},
		"pl1": {
			Playlist: services.Playlist{ID: "pl1"},
			Tracks: []services.Track{
				track("s1", "a1", 50),
				track("c1", "x1", 40),
				track("c2", "x1", 95),
				track("c3", "x2", 30),
			},
		},
		"pl2": {
			Playlist: services.Playlist{ID: "pl2"},
			Tracks:   []services.Track{track("c1", "x1", 40)},
		},
	}

	svc := &mockService{
		exports: exports,
		searchResults: map[string][]services.Playlist{
			SearchQuery(seedTracks[0]): {playlist("pl1"), playlist("pl2")},
			SearchQuery(seedTracks[1]): {playlist("pl1")},
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	progress := make(chan ProgressUpdate, 100)
	result, err := engine.Recommend(context.Background(), progress, "seedpl", RecommendOpts{MaxPopularity: 80, RateLimit: 500})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if result.Discovered != 2 {
		t.Errorf("discovered = %d, want 2", result.Discovered)
	}
	if result.TopHits != 2 {
		t.Errorf("top hits = %d, want 2", result.TopHits)
	}
	if len(result.Evaluated) != 2 {
		t.Errorf("evaluated = %d, want 2", len(result.Evaluated))
	}

	// Seed tracks never appear in recommendations
	for _, rec := range result.Recommendations {
		if rec.Track.ID == "s1" || rec.Track.ID == "s2" {
			t.Errorf("seed track %s leaked into recommendations", rec.Track.ID)
		}
	}

	// c2 (popularity 95) filtered at the default ceiling of 80
	if result.FilteredOut != 1 {
		t.Errorf("filtered out = %d, want 1", result.FilteredOut)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(result.Recommendations))
	}

	// c1 appears in pl1 (score 12) and pl2 (score 1): total 13, above c3's 12
	if result.Recommendations[0].Track.ID != "c1" {
		t.Errorf("rank 1 = %s, want c1", result.Recommendations[0].Track.ID)
	}
	if result.Recommendations[0].Score != 13 {
		t.Errorf("c1 score = %.0f, want 13", result.Recommendations[0].Score)
	}
	if result.Recommendations[0].Sources != 2 {
		t.Errorf("c1 sources = %d, want 2", result.Recommendations[0].Sources)
	}
	if result.Recommendations[1].Track.ID != "c3" {
		t.Errorf("rank 2 = %s, want c3", result.Recommendations[1].Track.ID)
	}
}

func TestRecommendSeedErrors(t *testing.T) {
	t.Run("Missing Playlist", func(t *testing.T) {
		engine := NewRecommendEngine(&mockService{}, testLogger())

		_, err := engine.Recommend(context.Background(), nil, "nope", RecommendOpts{})
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Empty Playlist", func(t *testing.T) {
		svc := &mockService{
			exports: map[string]*services.PlaylistExport{
				"empty": {Playlist: services.Playlist{ID: "empty"}},
			},
		}
		engine := NewRecommendEngine(svc, testLogger())

		_, err := engine.Recommend(context.Background(), nil, "empty", RecommendOpts{})
		if !errors.Is(err, shared.ErrNoSeedTracks) {
			t.Errorf("expected ErrNoSeedTracks, got %v", err)
		}
	})
}

func TestRecommendResolvesUnknownPopularity(t *testing.T) {
	seedTracks := []services.Track{track("s1", "a1", 50)}

	unknown := track("c1", "x1", services.PopularityUnknown)

	svc := &mockService{
		exports: map[string]*services.PlaylistExport{
			"seedpl": {Playlist: services.Playlist{ID: "seedpl"}, Tracks: seedTracks},
			"pl1": {
				Playlist: services.Playlist{ID: "pl1"},
				Tracks:   []services.Track{unknown, track("c2", "x2", 20)},
			},
		},
		searchResults: map[string][]services.Playlist{
			SearchQuery(seedTracks[0]): {playlist("pl1")},
		},
		trackPop: map[string]int{"c1": 99},
	}

	engine := NewRecommendEngine(svc, testLogger())

	result, err := engine.Recommend(context.Background(), nil, "seedpl", RecommendOpts{MaxPopularity: 80, RateLimit: 500})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if svc.severalCalls != 1 {
		t.Errorf("expected 1 batched popularity lookup, got %d", svc.severalCalls)
	}

	// c1 resolved to popularity 99 and filtered; c2 survives
	if len(result.Recommendations) != 1 || result.Recommendations[0].Track.ID != "c2" {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.FilteredOut != 1 {
		t.Errorf("filtered out = %d, want 1", result.FilteredOut)
	}
}

func TestRecommendEvaluationPartialFailure(t *testing.T) {
	seedTracks := []services.Track{track("s1", "a1", 50)}

	svc := &mockService{
		exports: map[string]*services.PlaylistExport{
			"seedpl": {Playlist: services.Playlist{ID: "seedpl"}, Tracks: seedTracks},
			"pl2": {
				Playlist: services.Playlist{ID: "pl2"},
				Tracks:   []services.Track{track("c1", "x1", 10)},
			},
		},
		exportErrs: map[string]error{"pl1": fmt.Errorf("fetch exploded")},
		searchResults: map[string][]services.Playlist{
			SearchQuery(seedTracks[0]): {playlist("pl1"), playlist("pl2")},
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	result, err := engine.Recommend(context.Background(), nil, "seedpl", RecommendOpts{MaxPopularity: 80, RateLimit: 500})
	if err != nil {
		t.Fatalf("Recommend must tolerate per-playlist fetch failures: %v", err)
	}

	if result.FailedFetches != 1 {
		t.Errorf("failed fetches = %d, want 1", result.FailedFetches)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Track.ID != "c1" {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
}

func TestRecommendOutputLength(t *testing.T) {
	seedTracks := []services.Track{track("s1", "a1", 50)}

	var candidateTracks []services.Track
	for i := 0; i < 10; i++ {
		candidateTracks = append(candidateTracks, track(fmt.Sprintf("c%02d", i), fmt.Sprintf("x%d", i), 10+i))
	}

	svc := &mockService{
		exports: map[string]*services.PlaylistExport{
			"seedpl": {Playlist: services.Playlist{ID: "seedpl"}, Tracks: seedTracks},
			"pl1":    {Playlist: services.Playlist{ID: "pl1"}, Tracks: candidateTracks},
		},
		searchResults: map[string][]services.Playlist{
			SearchQuery(seedTracks[0]): {playlist("pl1")},
		},
	}

	engine := NewRecommendEngine(svc, testLogger())

	result, err := engine.Recommend(context.Background(), nil, "seedpl", RecommendOpts{Count: 3, MaxPopularity: 100, RateLimit: 500})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(result.Recommendations) != 3 {
		t.Errorf("count cap: got %d recommendations, want 3", len(result.Recommendations))
	}

	result, err = engine.Recommend(context.Background(), nil, "seedpl", RecommendOpts{Count: 50, MaxPopularity: 100, RateLimit: 500})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(result.Recommendations) != 10 {
		t.Errorf("fewer survivors than requested: got %d, want 10", len(result.Recommendations))
	}
}
