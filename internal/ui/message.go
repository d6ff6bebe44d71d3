package ui

import (
	"github.com/nbailey/spotify-recommender/internal/services"
)

// createCompleteMsg reports the outcome of playlist creation.
type createCompleteMsg struct {
	playlist *services.Playlist
	err      error
}
