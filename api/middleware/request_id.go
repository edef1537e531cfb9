package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags the request with a correlation id and echoes it back. A
// client-supplied id is kept only when it is a well-formed uuid.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
