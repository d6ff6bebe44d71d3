package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

// tokenEndpoint fakes the OAuth provider's token exchange endpoint.
func tokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"exchanged-token","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		RedirectURL:  "http://127.0.0.1:8080/callback",
	}
}

func TestCallbackHandler(t *testing.T) {
	provider := tokenEndpoint(t)
	handler := NewCallbackHandler(testConfig(provider.URL), "expected-state")

	req := httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=auth-code", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	result := <-handler.Result()
	if result.Error() != nil {
		t.Fatalf("unexpected error: %v", result.Error())
	}
	if result.Token == nil || result.Token.AccessToken != "exchanged-token" {
		t.Errorf("unexpected token: %+v", result.Token)
	}

	// Replayed redirect is rejected
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=auth-code", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replay status = %d, want 400", rec.Code)
	}
}

func TestCallbackHandlerStateMismatch(t *testing.T) {
	handler := NewCallbackHandler(testConfig("http://invalid"), "expected-state")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=auth-code", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := (<-handler.Result()).Error(); err == nil {
		t.Error("expected state mismatch error")
	}
}

func TestCallbackHandlerDenied(t *testing.T) {
	handler := NewCallbackHandler(testConfig("http://invalid"), "expected-state")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/callback?state=expected-state&error=access_denied&error_description=User%20declined", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := (<-handler.Result()).Error(); err == nil {
		t.Error("expected authorization denied error")
	}
}

func TestBasicRouter(t *testing.T) {
	router := NewBasicRouter()

	var order []string
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "outer")
			next.ServeHTTP(w, r)
		})
	})
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "inner")
			next.ServeHTTP(w, r)
		})
	})

	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Errorf("middleware order = %v", order)
	}

	// Method filtering comes from the mux pattern
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong-method status = %d, want 405", rec.Code)
	}
}
