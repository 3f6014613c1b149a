package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackcast/internal/shared"
)

// RequestLogger returns middleware logging each request at debug level.
//
// The overlay page is polled every couple of seconds by the browser source, so
// anything louder drowns the log.
func RequestLogger(logger *log.Logger) Middleware {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
