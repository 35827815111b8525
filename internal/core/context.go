package core

import "context"

type contextKey string

const (
	ctxKeyRemoteAddr contextKey = "run_remote_addr"
	ctxKeyUserAgent  contextKey = "run_user_agent"
)

// ContextWithRemoteAddr attaches the caller's address for run history.
func ContextWithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKeyRemoteAddr, addr)
}

// ContextWithUserAgent attaches the caller's User-Agent for run history.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// RemoteAddrFromContext returns the address set by ContextWithRemoteAddr.
func RemoteAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRemoteAddr).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the value set by ContextWithUserAgent.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
