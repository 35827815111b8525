package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/datops/internal/core"
)

// WithRequestMetadata copies the client address and User-Agent into ctx so
// the run history records who started an operation.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithRemoteAddr(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
