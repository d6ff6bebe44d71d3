package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nbailey/spotify-recommender/internal/server"
	"github.com/nbailey/spotify-recommender/internal/services"
	"github.com/nbailey/spotify-recommender/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization,
// exchanges the auth code for tokens, and caches them in the database.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		if _, err := os.Stat(configPath); err == nil {
			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			config = loaded
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment", shared.ErrMissingCredentials, configPath)
	}

	oauthSvc, ok := r.spotify.(services.OAuthService)
	if !ok {
		svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.spotify = svc
		r.SetLogger(r.logger)
		oauthSvc = svc
	}

	token, err := r.doOAuth(config, oauthSvc)
	if err != nil {
		return err
	}

	if err := oauthSvc.Authenticate(ctx, map[string]string{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expiry":        token.Expiry.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to apply new token: %w", err)
	}

	if r.tokens != nil {
		if err := r.tokens.Save(spotifyServiceName, token); err != nil {
			r.logger.Warn("failed to cache token", "error", err)
		} else {
			r.logger.Info("token cached", "service", spotifyServiceName)
		}
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: sprec recommend <playlist>\n")

	return nil
}

// AuthStatus reports the cached token state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: token cache not available", shared.ErrServiceUnavailable)
	}

	statuses, err := r.tokens.Status()
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		r.writePlain("✗ Not authenticated. Run 'sprec auth login' first.\n")
		return nil
	}

	for _, status := range statuses {
		r.writePlain("Service: %s\n", status.Service)
		if status.Expired() {
			r.writePlain("  Token: ✗ expired %s\n", status.Expiry.Format(time.RFC3339))
		} else if !status.Expiry.IsZero() {
			r.writePlain("  Token: ✓ valid until %s\n", status.Expiry.Format(time.RFC3339))
		} else {
			r.writePlain("  Token: ✓ cached\n")
		}
		if status.HasRefresh {
			r.writePlain("  Refresh: ✓ refresh token cached\n")
		} else {
			r.writePlain("  Refresh: ✗ no refresh token\n")
		}
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSvc services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSvc.GetAuthURL(state)
	callback := server.NewCallbackHandler(oauthSvc.GetOAuthConfig(), state)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(callback)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callback.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
