package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/trackcast/internal/shared"
)

// CallbackHandler receives the provider's authorization redirect and hands the
// code to the auth flow through a single-slot channel.
//
// Slot policy: replace. If a second code arrives before the first is consumed
// (the user restarted the consent screen), the newer code wins; the older one
// was invalidated by the provider the moment a new consent completed.
type CallbackHandler struct {
	state string
	mu    sync.Mutex
	slot  chan string
}

// NewCallbackHandler creates a handler expecting the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state: state,
		slot:  make(chan string, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the redirect parameters and deposits the code.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		http.Error(w, fmt.Sprintf("Authorization failed: %s", errParam), http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code parameter", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != h.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.put(code)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body>
    <h2>Authorization complete</h2>
    <p>You can close this tab and return to the terminal.</p>
</body>
</html>
`)
}

// put deposits a code, replacing any unconsumed one.
func (h *CallbackHandler) put(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.slot:
	default:
	}
	h.slot <- code
}

// Wait blocks until a code arrives, the timeout elapses, or ctx is cancelled.
func (h *CallbackHandler) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-h.slot:
		return code, nil
	case <-timer.C:
		return "", fmt.Errorf("%w: no authorization code received within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
