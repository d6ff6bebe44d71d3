// Package ui implements the interactive review interface using bubbletea's
// Elm architecture.
//
// The review workflow walks through four views:
//  1. [ReviewView] : Browse the ranked recommendations and toggle songs
//  2. [ConfirmView] : Confirm playlist creation with the kept songs
//  3. [CreatingView] : Wait for the playlist to be created
//  4. [ResultView] : Display the created playlist or the error
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Playlist creation runs in a tea.Cmd so the UI stays responsive, and the
// caller injects the create function to keep the package free of service
// wiring.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n,
// q) with contextual help via charmbracelet/bubbles/help.
package ui
