package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "audit_client"

// ClientInfo identifies the caller of an operation for audit entries.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// WithClientInfo attaches caller details to ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, info)
}

// ClientInfoFromContext returns the caller details, or the zero value.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	if v, ok := ctx.Value(ctxKeyClient).(ClientInfo); ok {
		return v
	}
	return ClientInfo{}
}
