package routing

import "context"

type clientIPKey struct{}

// WithClientIP attaches the caller's IP so audit events can record it.
// HTTP handlers resolve it with gin's ClientIP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	s, _ := ctx.Value(clientIPKey{}).(string)
	return s
}
