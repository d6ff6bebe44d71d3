package ui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/tasks"
)

func reviewResult(n int) *tasks.RecommendResult {
	recs := make([]tasks.CandidateSong, n)
	for i := range recs {
		recs[i] = tasks.CandidateSong{
			Track: services.Track{
				ID:         fmt.Sprintf("c%d", i),
				Title:      fmt.Sprintf("Song %d", i),
				Artists:    []services.Artist{{ID: "a1", Name: "Artist"}},
				Popularity: 10,
			},
			Score:   5,
			Sources: 1,
		}
	}
	return &tasks.RecommendResult{Recommendations: recs}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewModelKeepsAllInitially(t *testing.T) {
	model := NewModel(context.Background(), reviewResult(3), "Recs", nil)

	if got := len(model.Kept()); got != 3 {
		t.Errorf("kept = %d, want all 3", got)
	}
	if model.Cancelled() {
		t.Error("fresh model must not be cancelled")
	}
}

func TestReviewSelection(t *testing.T) {
	model := NewModel(context.Background(), reviewResult(3), "Recs", nil)

	model.Update(keyMsg("x"))
	if got := len(model.Kept()); got != 0 {
		t.Fatalf("kept = %d after drop all, want 0", got)
	}

	// Creation is blocked while nothing is kept
	model.Update(keyMsg("enter"))
	if model.view != ReviewView {
		t.Error("enter with zero kept must stay in review")
	}

	model.Update(keyMsg("a"))
	if got := len(model.Kept()); got != 3 {
		t.Fatalf("kept = %d after keep all, want 3", got)
	}

	model.Update(keyMsg(" "))
	if got := len(model.Kept()); got != 2 {
		t.Errorf("kept = %d after toggling the selected song, want 2", got)
	}

	model.Update(keyMsg("enter"))
	if model.view != ConfirmView {
		t.Errorf("view = %v after enter, want ConfirmView", model.view)
	}
}

func TestReviewQuitCancels(t *testing.T) {
	model := NewModel(context.Background(), reviewResult(1), "Recs", nil)

	_, cmd := model.Update(keyMsg("q"))
	if !model.Cancelled() {
		t.Error("quit must mark the model cancelled")
	}
	if cmd == nil {
		t.Fatal("quit must return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command must produce tea.QuitMsg")
	}
}

func TestReviewHelpToggle(t *testing.T) {
	model := NewModel(context.Background(), reviewResult(1), "Recs", nil)

	model.Update(keyMsg("?"))
	if !model.help.ShowAll {
		t.Error("? must expand the help view")
	}
	model.Update(keyMsg("?"))
	if model.help.ShowAll {
		t.Error("? again must collapse the help view")
	}
}

func TestCreateCompleteAdvancesToResult(t *testing.T) {
	model := NewModel(context.Background(), reviewResult(1), "Recs", nil)

	created := &services.Playlist{ID: "newpl", Name: "Recs"}
	model.Update(createCompleteMsg{playlist: created})

	if model.view != ResultView {
		t.Errorf("view = %v, want ResultView", model.view)
	}
	if model.Playlist() != created {
		t.Error("created playlist not exposed")
	}
	if model.Err() != nil {
		t.Errorf("unexpected error: %v", model.Err())
	}
}
