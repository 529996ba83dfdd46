package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/buyerleads/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to ctx for service logging.
// RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
