package server

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// CallbackResult carries the outcome of the authorization flow to the CLI.
type CallbackResult struct {
	Token *oauth2.Token
	err   error
}

func (r CallbackResult) Error() error {
	return r.err
}

// CallbackHandler receives the OAuth2 redirect, validates the state
// parameter, and exchanges the authorization code for a token.
//
// A handler serves exactly one authorization attempt: the first callback wins
// and later requests are rejected, so a replayed redirect cannot overwrite
// the delivered token.
type CallbackHandler struct {
	config  *oauth2.Config
	state   string
	results chan CallbackResult
	once    sync.Once

	mu       sync.Mutex
	consumed bool
}

// NewCallbackHandler creates a handler expecting the given CSRF state token.
func NewCallbackHandler(config *oauth2.Config, state string) *CallbackHandler {
	return &CallbackHandler{
		config:  config,
		state:   state,
		results: make(chan CallbackResult, 1),
	}
}

// Routes implements [Handler].
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// Result returns the channel carrying the single flow outcome. The channel is
// closed after the result is delivered.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.consumed {
		h.mu.Unlock()
		http.Error(w, "Authorization already completed", http.StatusBadRequest)
		return
	}
	h.consumed = true
	h.mu.Unlock()

	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.deliver(CallbackResult{err: fmt.Errorf("state parameter mismatch")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.deliver(CallbackResult{err: fmt.Errorf("authorization denied: %s (%s)",
			query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.deliver(CallbackResult{err: fmt.Errorf("code exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.deliver(CallbackResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *CallbackHandler) deliver(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Spotify Connected</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Spotify Connected</h1>
        <p>You can close this window and return to the terminal to run recommendations.</p>
    </div>
</body>
</html>
`
