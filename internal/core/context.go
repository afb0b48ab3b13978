package core

import "context"

type contextKey string

const ctxKeyRemoteAddr contextKey = "remote_addr"

// ContextWithRemoteAddr records the caller's address for import logging.
func ContextWithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKeyRemoteAddr, addr)
}

// RemoteAddrFromContext returns the address recorded by ContextWithRemoteAddr.
func RemoteAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRemoteAddr).(string); ok {
		return v
	}
	return ""
}
