// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nbailey/spotify-recommender/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify API limits
	maxSearchLimit     = 50
	maxTracksPerLookup = 50
	maxTracksPerAdd    = 100
	playlistPageSize   = 100

	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultHTTPTimeout = 30 * time.Second
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Country     string    `json:"country"`
	Followers   followers `json:"followers"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  *int            `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents one page of a playlist's track list.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists and search results).
type SpotifySimplePlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Owner        Owner               `json:"owner"`
	Public       bool                `json:"public"`
	Tracks       simplePlaylistTrack `json:"tracks"`
	ExternalURLs externalURLs        `json:"external_urls"`
	URI          string              `json:"uri"`
}

// SpotifySearchResponse represents the playlist portion of a search response.
//
// Search result arrays can contain explicit nulls, hence the pointer items.
type SpotifySearchResponse struct {
	Playlists struct {
		Items []*SpotifySimplePlaylist `json:"items"`
		Total int                      `json:"total"`
	} `json:"playlists"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for playlist, search, and track operations.
type SpotifyService struct {
	config      *oauth2.Config
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	credentials map[string]string
	maxRetries  int
	baseBackoff time.Duration
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		credentials: credentials,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Expects either an "access_token" (with optional "refresh_token" and RFC3339
// "expiry") or an "auth_code" in credentials. Tokens are wrapped in a
// refreshing token source so expired access tokens renew transparently.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
		if raw, ok := credentials["expiry"]; ok && raw != "" {
			if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
				token.Expiry = expiry
			}
		}
		s.tokenSource = s.config.TokenSource(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.tokenSource = s.config.TokenSource(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetToken installs an existing token (e.g., loaded from the token cache).
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.tokenSource = s.config.TokenSource(ctx, token)
}

// Token returns the current token from the token source, refreshed if needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.tokenSource == nil {
		return nil, shared.ErrNotAuthenticated
	}
	token, err := s.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API with bounded retries.
//
// Transport errors, 429 responses (honoring Retry-After), and 5xx responses
// are retried with exponential backoff. 401 responses surface as
// [shared.ErrNotAuthenticated] so callers can trigger reauthorization.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.tokenSource == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	apiURL := spotifyBaseURL + endpoint

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := s.tokenSource.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}

		var reqBody *bytes.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		} else {
			reqBody = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if err := s.backoff(ctx, attempt, 0); err != nil {
				return err
			}
			continue
		}

		retryAfter, retry := shouldRetry(resp)
		if retry {
			lastErr = fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: status %d", shared.ErrRateLimited, resp.StatusCode)
			}
			resp.Body.Close()
			if err := s.backoff(ctx, attempt, retryAfter); err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: status 401", shared.ErrNotAuthenticated)
		}

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: status 404", shared.ErrPlaylistNotFound)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", s.maxRetries, lastErr)
}

// shouldRetry reports whether the response warrants a retry and any server-requested delay.
func shouldRetry(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode == http.StatusTooManyRequests {
		if raw := resp.Header.Get("Retry-After"); raw != "" {
			if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second, true
			}
		}
		return 0, true
	}
	if resp.StatusCode >= 500 {
		return 0, true
	}
	return 0, false
}

// backoff sleeps for the exponential backoff duration, or the server-requested
// delay if longer, respecting context cancellation.
func (s *SpotifyService) backoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	if attempt == s.maxRetries-1 {
		return nil
	}

	wait := s.baseBackoff * time.Duration(1<<attempt)
	if retryAfter > wait {
		wait = retryAfter
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPlaylist retrieves playlist metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var sp SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &sp); err != nil {
		return nil, err
	}

	playlist := mapPlaylist(&sp)
	return &playlist, nil
}

// ExportPlaylist retrieves a playlist with its full track list, following pagination.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*PlaylistExport, error) {
	playlist, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var tracks []Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, playlistPageSize, offset)

		var page SpotifyPaginatedPlaylistTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			// Local files and removed tracks appear as null or have no ID
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, mapTrack(item.Track))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += playlistPageSize
	}

	return &PlaylistExport{
		Playlist: *playlist,
		Tracks:   tracks,
	}, nil
}

// SearchPlaylists searches for public playlists matching the query text.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=playlist&limit=%d", url.QueryEscape(query), limit)

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(response.Playlists.Items))
	for _, item := range response.Playlists.Items {
		if item == nil || item.ID == "" {
			continue
		}
		playlists = append(playlists, mapPlaylist(item))
	}

	return playlists, nil
}

// SeveralTracks retrieves multiple tracks by their IDs, batching requests in API-sized chunks.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]Track, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidArgument)
	}

	tracks := make([]Track, 0, len(trackIDs))

	for start := 0; start < len(trackIDs); start += maxTracksPerLookup {
		end := start + maxTracksPerLookup
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		ids := strings.Join(trackIDs[start:end], ",")
		endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(ids))

		var response struct {
			Tracks []*SpotifyTrack `json:"tracks"`
		}

		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, st := range response.Tracks {
			if st == nil || st.ID == "" {
				continue
			}
			tracks = append(tracks, mapTrack(st))
		}
	}

	return tracks, nil
}

// CreatePlaylist creates a playlist for the authenticated user and adds tracks
// in chunks of 100 (the API maximum per request).
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool, trackURIs []string) (*Playlist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	createBody := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, createBody, &created); err != nil {
		return nil, err
	}

	addEndpoint := fmt.Sprintf("/playlists/%s/tracks", created.ID)
	for start := 0; start < len(trackURIs); start += maxTracksPerAdd {
		end := start + maxTracksPerAdd
		if end > len(trackURIs) {
			end = len(trackURIs)
		}

		addBody := map[string]any{"uris": trackURIs[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, addEndpoint, addBody, nil); err != nil {
			return nil, fmt.Errorf("playlist created but adding tracks failed: %w", err)
		}
	}

	created.Tracks.Total = len(trackURIs)
	playlist := mapPlaylist(&created)
	return &playlist, nil
}

// mapPlaylist converts a Spotify wire playlist to the service-neutral form.
func mapPlaylist(sp *SpotifySimplePlaylist) Playlist {
	return Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       sp.Owner.DisplayName,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
		URL:         sp.ExternalURLs.Spotify,
	}
}

// mapTrack converts a Spotify wire track to the service-neutral form.
func mapTrack(st *SpotifyTrack) Track {
	track := Track{
		ID:         st.ID,
		URI:        st.URI,
		Title:      st.Name,
		Album:      st.Album.Name,
		Popularity: PopularityUnknown,
	}
	if st.Popularity != nil {
		track.Popularity = *st.Popularity
	}
	for _, artist := range st.Artists {
		track.Artists = append(track.Artists, Artist{ID: artist.ID, Name: artist.Name})
	}
	return track
}
