// package services defines interface Service for interacting with music provider HTTP APIs
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the accessor boundary the recommendation pipeline consumes.
//
// The pipeline only needs playlist search, full track listings, batch track
// lookup, and playlist creation. Implementations own transport concerns:
// timeouts, retry with backoff, and rate-limit responses.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylist retrieves playlist metadata by ID (no tracks).
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// ExportPlaylist retrieves a playlist with its full track list, handling pagination.
	ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error)

	// SearchPlaylists searches for public playlists matching the query text.
	// Best effort: may return fewer than limit results.
	SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error)

	// SeveralTracks retrieves multiple tracks by ID, primarily for popularity lookups.
	// Implementations batch where the underlying API supports it.
	SeveralTracks(ctx context.Context, trackIDs []string) ([]Track, error)

	// CreatePlaylist creates a playlist for the authenticated user and adds the given track URIs.
	CreatePlaylist(ctx context.Context, name, description string, public bool, trackURIs []string) (*Playlist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers using the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login with the given CSRF state token.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the underlying OAuth2 configuration for callback handling.
	GetOAuthConfig() *oauth2.Config

	// Token returns the current token, refreshed if the token source renewed it.
	Token() (*oauth2.Token, error)
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
	URL         string
}

// PlaylistExport represents a playlist with all its tracks
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []Track
}

// Artist represents a credited artist on a track.
type Artist struct {
	ID   string
	Name string
}

// PopularityUnknown marks a track whose popularity was not included in the
// API response and must be resolved with a batch track lookup.
const PopularityUnknown = -1

// Track represents a music track from any service
type Track struct {
	ID         string
	URI        string
	Title      string
	Artists    []Artist // ordered, first entry is the primary artist
	Album      string
	Popularity int // 0-100, or PopularityUnknown
}

// PrimaryArtist returns the name of the first credited artist, or "" if none.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// PrimaryArtistID returns a stable identifier for the first credited artist.
// Falls back to the artist name when the service did not supply an ID.
func (t Track) PrimaryArtistID() string {
	if len(t.Artists) == 0 {
		return ""
	}
	if t.Artists[0].ID != "" {
		return t.Artists[0].ID
	}
	return t.Artists[0].Name
}
