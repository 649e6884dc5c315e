package server

import (
	"net/http"

	"github.com/fekuna/omnipos-ledger-service/internal/auth"
)

// CallerHeader carries the caller identity. The surrounding platform is
// trusted to authenticate it before the request reaches this service.
const CallerHeader = "X-Caller-Id"

// CallerMiddleware copies the caller identity from the request header into
// the request context, where handlers and the use case read it.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller := r.Header.Get(CallerHeader); caller != "" {
			r = r.WithContext(auth.WithCaller(r.Context(), caller))
		}
		next.ServeHTTP(w, r)
	})
}
