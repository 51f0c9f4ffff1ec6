package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyConnectionID ctxKey = "connection_id"
	ctxKeyStartTime    ctxKey = "start_time"
	ctxKeyRoute        ctxKey = "route"
)

// ContextWithConnectionID adds a connection ID to the context.
func ContextWithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyConnectionID, id)
}

// ConnectionIDFromContext extracts the connection ID from context.
func ConnectionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyConnectionID).(string); ok {
		return v
	}
	return ""
}

// ContextWithStartTime adds the connection start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ContextWithRoute adds the resolved route path to the context.
func ContextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, ctxKeyRoute, route)
}

// RouteFromContext extracts the resolved route path from context.
func RouteFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRoute).(string); ok {
		return v
	}
	return ""
}
