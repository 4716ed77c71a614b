package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// CorrelationID rides on chi's request-id middleware (already a
// teacher dependency) and surfaces it under the wire name every
// downstream service and response uses: correlation-id.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		r.Header.Set("correlation-id", id)
		w.Header().Set("correlation-id", id)
		next.ServeHTTP(w, r)
	})
}
