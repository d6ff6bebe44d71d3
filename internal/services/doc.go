// Package services provides API clients for music service providers.
//
// The [Service] interface is the boundary the recommendation pipeline consumes:
// playlist search, full track listings, batch track lookup, and playlist
// creation. [SpotifyService] implements it against the Spotify Web API with
// typed wire structs, request timeouts, and bounded retry with exponential
// backoff (Retry-After aware for 429 responses).
//
// The [OAuthService] interface extends Service for OAuth providers, exposing
// the authorization URL and config needed by the local callback server during
// the authorization code flow.
package services
