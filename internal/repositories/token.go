package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nbailey/spotify-recommender/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository persists OAuth tokens keyed by service name.
//
// Save upserts so each service holds at most one cached token. Expired tokens
// are returned as-is; the oauth2 token source refreshes them transparently
// when a refresh token is present.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save stores the token for a service, replacing any existing entry.
func (r *TokenRepository) Save(service string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token for service %s", shared.ErrInvalidInput, service)
	}

	now := time.Now().UTC()

	var expiry any
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.UTC()
	}

	var refreshToken any
	if token.RefreshToken != "" {
		refreshToken = token.RefreshToken
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	query := `
		INSERT INTO tokens (id, service, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = COALESCE(excluded.refresh_token, tokens.refresh_token),
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, shared.GenerateID(), service, token.AccessToken, refreshToken, tokenType, expiry, now, now)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Get retrieves the cached token for a service.
//
// Returns shared.ErrNotAuthenticated when no token has been stored.
func (r *TokenRepository) Get(service string) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM tokens
		WHERE service = ?
	`

	var (
		accessToken  string
		refreshToken sql.NullString
		tokenType    string
		expiry       sql.NullTime
	)

	err := r.db.QueryRow(query, service).Scan(&accessToken, &refreshToken, &tokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no cached token for %s", shared.ErrNotAuthenticated, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.String,
		TokenType:    tokenType,
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return token, nil
}

// Delete removes the cached token for a service. Deleting a missing token is
// not an error.
func (r *TokenRepository) Delete(service string) error {
	if _, err := r.db.Exec("DELETE FROM tokens WHERE service = ?", service); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// TokenStatus describes a cached token for display purposes.
type TokenStatus struct {
	Service    string    `json:"service"`
	HasRefresh bool      `json:"has_refresh"`
	Expiry     time.Time `json:"expiry"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Expired reports whether the token's expiry has passed. Tokens without an
// expiry never expire here.
func (s TokenStatus) Expired() bool {
	return !s.Expiry.IsZero() && time.Now().After(s.Expiry)
}

// Status lists the cached tokens across all services.
func (r *TokenRepository) Status() ([]TokenStatus, error) {
	query := `
		SELECT service, refresh_token, expiry, updated_at
		FROM tokens
		ORDER BY service
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var statuses []TokenStatus
	for rows.Next() {
		var (
			status       TokenStatus
			refreshToken sql.NullString
			expiry       sql.NullTime
		)
		if err := rows.Scan(&status.Service, &refreshToken, &expiry, &status.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		status.HasRefresh = refreshToken.Valid && refreshToken.String != ""
		if expiry.Valid {
			status.Expiry = expiry.Time
		}
		statuses = append(statuses, status)
	}

	return statuses, rows.Err()
}
