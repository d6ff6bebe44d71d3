// Package server implements the temporary localhost HTTP server used during
// the Spotify OAuth authorization code flow.
//
// When the user runs the auth login command, a server starts on the
// configured host and port, the browser opens the Spotify consent page, and
// the [CallbackHandler] receives the redirect. The handler validates the
// state parameter, exchanges the authorization code for a token, and delivers
// the result over a channel so the CLI can persist it and shut the server
// down. Each handler processes exactly one callback.
//
// The [Router] keeps routing and middleware separate from the handlers so the
// logging middleware can observe callback traffic without the handlers
// knowing about it.
package server
