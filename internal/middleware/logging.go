package middleware

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"chublink/internal/logger"
)

var reqCounter atomic.Uint64

// RequestLogger injects a request id into the context and logs the request
// at the INFO level once it is served.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := fmt.Sprintf("%d-%d", start.UnixMilli(), reqCounter.Add(1))
			r = r.WithContext(logger.ContextWithID(r.Context(), id))
			w.Header().Set("X-Request-ID", id)

			next.ServeHTTP(w, r)

			log.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"query":      r.URL.Query(),
				"remote":     r.RemoteAddr,
				"agent":      r.UserAgent(),
				"took":       time.Since(start),
			}).Info("http.request")
		})
	}
}
