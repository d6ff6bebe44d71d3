package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/tasks"
)

// ViewState represents the current view in the review TUI.
type ViewState int

const (
	ReviewView ViewState = iota
	ConfirmView
	CreatingView
	ResultView
)

// CreateFunc creates the playlist from the kept tracks. Injected by the
// caller so the model stays decoupled from service wiring.
type CreateFunc func(ctx context.Context, tracks []services.Track) (*services.Playlist, error)

// Model represents the review TUI state.
type Model struct {
	ctx    context.Context
	view   ViewState
	create CreateFunc
	name   string

	width  int
	height int

	items    []*candidateItem
	songList list.Model

	playlist  *services.Playlist
	err       error
	cancelled bool

	help help.Model
	keys keyMap
}

// NewModel builds a review model over the ranked recommendations, all songs
// initially kept.
func NewModel(ctx context.Context, result *tasks.RecommendResult, name string, create CreateFunc) *Model {
	items := make([]*candidateItem, len(result.Recommendations))
	listItems := make([]list.Item, len(result.Recommendations))
	for i, song := range result.Recommendations {
		item := &candidateItem{song: song, rank: i + 1, kept: true}
		items[i] = item
		listItems[i] = item
	}

	songList := list.New(listItems, list.NewDefaultDelegate(), 0, 0)
	songList.Title = fmt.Sprintf("Review %d recommendations", len(items))

	return &Model{
		ctx:      ctx,
		view:     ReviewView,
		create:   create,
		name:     name,
		items:    items,
		songList: songList,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Cancelled reports whether the user quit without creating a playlist.
func (m *Model) Cancelled() bool { return m.cancelled }

// Playlist returns the created playlist, if any.
func (m *Model) Playlist() *services.Playlist { return m.playlist }

// Err returns the creation error, if any.
func (m *Model) Err() error { return m.err }

// Kept returns the tracks still selected.
func (m *Model) Kept() []services.Track {
	var kept []services.Track
	for _, item := range m.items {
		if item.kept {
			kept = append(kept, item.song.Track)
		}
	}
	return kept
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case createCompleteMsg:
		m.playlist = msg.playlist
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	switch m.view {
	case ReviewView:
		return m.renderReview()
	case ConfirmView:
		return m.renderConfirm()
	case CreatingView:
		return styles.title.Render("Creating playlist...")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.songList.SelectedItem().(*candidateItem); ok {
			item.kept = !item.kept
		}
		return m, nil

	case key.Matches(msg, m.keys.all):
		for _, item := range m.items {
			item.kept = true
		}
		return m, nil

	case key.Matches(msg, m.keys.none):
		for _, item := range m.items {
			item.kept = false
		}
		return m, nil

	case key.Matches(msg, m.keys.showHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if len(m.Kept()) == 0 {
			return m, nil
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ReviewView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = CreatingView
		return m, m.startCreate()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.enter):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startCreate() tea.Cmd {
	kept := m.Kept()
	return func() tea.Msg {
		playlist, err := m.create(m.ctx, kept)
		return createCompleteMsg{playlist: playlist, err: err}
	}
}

func (m *Model) renderReview() string {
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), m.help.View(m.keys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Create '%s'?", m.name))
	info := fmt.Sprintf("\nSongs: %d of %d kept\n", len(m.Kept()), len(m.items))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Playlist creation failed: %v", m.err)), helpView)
	}
	if m.playlist == nil {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No playlist created"), helpView)
	}

	title := styles.ok.Render("Playlist created")
	info := fmt.Sprintf("\nName: %s\nID: %s", m.playlist.Name, m.playlist.ID)
	if m.playlist.URL != "" {
		info += fmt.Sprintf("\nURL: %s", m.playlist.URL)
	}

	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}
