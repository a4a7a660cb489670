package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramiqadoumi/go-drive-quest/internal/cache"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

// HeaderCache reports HIT or MISS on cacheable responses.
const HeaderCache = "X-Cache"

// bufferedWriter tees the response body so a 200 can be stored after the
// handler returns.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (bw *bufferedWriter) WriteHeader(code int) {
	bw.status = code
	bw.ResponseWriter.WriteHeader(code)
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	bw.buf.Write(p)
	return bw.ResponseWriter.Write(p)
}

// Cache serves GET responses from store, keyed by request URI, and stores
// successful JSON responses for ttl. Store errors degrade to a pass-through.
// Only mount it on routes whose body does not depend on the caller.
func Cache(store cache.Store, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			uri := r.URL.RequestURI()

			body, ok, err := store.Get(r.Context(), uri)
			if err != nil {
				logger.Warn("response cache read failed", slog.String("uri", uri), slog.String("error", err.Error()))
			}
			if ok {
				telemetry.APICacheLookups.WithLabelValues("hit").Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(HeaderCache, "HIT")
				_, _ = w.Write(body)
				return
			}
			telemetry.APICacheLookups.WithLabelValues("miss").Inc()

			w.Header().Set(HeaderCache, "MISS")
			bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)

			if bw.status != http.StatusOK {
				return
			}
			if err := store.Set(r.Context(), uri, bw.buf.Bytes(), ttl); err != nil {
				logger.Warn("response cache write failed", slog.String("uri", uri), slog.String("error", err.Error()))
			}
		})
	}
}
