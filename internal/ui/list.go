package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/tasks"
)

var _ list.Item = &candidateItem{}

// candidateItem wraps [tasks.CandidateSong] to implement [list.Item] with a
// keep/drop checkbox.
type candidateItem struct {
	song tasks.CandidateSong
	rank int
	kept bool
}

func (i *candidateItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.song.Track.Title, i.song.Track.PrimaryArtist())
}

func (i *candidateItem) Title() string {
	box := "[ ]"
	if i.kept {
		box = "[x]"
	}
	return fmt.Sprintf("%s %d. %s", box, i.rank, i.song.Track.Title)
}

func (i *candidateItem) Description() string {
	desc := fmt.Sprintf("%s • score %.0f • %d playlists", i.song.Track.PrimaryArtist(), i.song.Score, i.song.Sources)
	if i.song.Track.Popularity != services.PopularityUnknown {
		desc = fmt.Sprintf("%s • popularity %d", desc, i.song.Track.Popularity)
	}
	return desc
}
