package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "origin_ip"
	ctxKeyUserAgent contextKey = "origin_ua"
)

// ContextWithIPAddress records the operator's address for import logs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent records the operator's browser for import logs.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// originAttrs returns slog key/value pairs describing who triggered an
// operation. Empty values are left out.
func originAttrs(ctx context.Context) []any {
	var attrs []any
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		attrs = append(attrs, "ip", ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		attrs = append(attrs, "user_agent", ua)
	}
	return attrs
}
