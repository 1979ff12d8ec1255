package testutil

import (
	"net/http"
	"time"

	id "coverbook/pkg/domain"
	"coverbook/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), id.Principal(principal))
	return req.WithContext(ctx)
}

// WithRequestTime pins the request's observed time, so expiry checks in
// handlers under test are deterministic.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), now)
	return req.WithContext(ctx)
}
