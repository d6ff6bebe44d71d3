package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/nbailey/spotify-recommender/internal/repositories"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/urfave/cli/v3"
)

const spotifyServiceName = "spotify"

func main() {
	godotenv.Load()

	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loaded, err := shared.LoadConfig("config.toml"); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	applyEnvOverrides(config)

	var db *sql.DB
	var tokens *repositories.TokenRepository
	if database, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(database, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := repositories.Migrate(database); err == nil {
			db = database
			tokens = repositories.NewTokenRepository(database)
		} else {
			logger.Warn("failed to prepare token cache", "error", err)
			database.Close()
		}
	} else {
		logger.Warn("failed to open token cache", "path", config.Database.Path, "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	var spotify services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if tokens != nil {
				if token, err := tokens.Get(spotifyServiceName); err == nil {
					svc.SetToken(context.Background(), token)
				}
			}
			spotify = svc
		} else {
			logger.Warn("failed to create Spotify service", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotify,
		Tokens:  tokens,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "sprec",
		Usage:    "Recommend songs by mining public Spotify playlists that overlap your own",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not authenticated, run 'sprec auth login' first")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// applyEnvOverrides lets environment variables (including a local .env) take
// precedence over config.toml for credentials.
func applyEnvOverrides(config *shared.Config) {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		config.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		config.Credentials.Spotify.RedirectURI = v
	}
}
