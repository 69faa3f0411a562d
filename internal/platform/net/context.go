// Package net carries request-scoped ids shared by the HTTP layer
package net

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyVisitorID ctxKey = "visitor_id"

// VisitorHeader is the header browsers send with their anonymous visitor id
const VisitorHeader = "X-Visitor-ID"

// WithRequest annotates ctx with the request id and the anonymous visitor id
func WithRequest(ctx context.Context, reqID, visitorID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if visitorID != "" {
		ctx = context.WithValue(ctx, keyVisitorID, visitorID)
	}
	return ctx
}

// RequestID returns the chi request id, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// VisitorID returns the visitor id on ctx, if any
func VisitorID(ctx context.Context) string {
	v, _ := ctx.Value(keyVisitorID).(string)
	return v
}

// VisitorFromRequest reads the visitor header, trimmed and capped at 64 bytes
func VisitorFromRequest(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get(VisitorHeader))
	if len(v) > 64 {
		v = v[:64]
	}
	return v
}
