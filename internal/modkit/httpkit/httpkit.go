// Package httpkit re-exports the platform http helpers so modules do not
// import internal/platform/net/http directly
package httpkit

import (
	"net/http"
	"time"

	phttp "leadfunnel/internal/platform/net/http"
	"leadfunnel/internal/platform/net/http/bind"
	"leadfunnel/internal/platform/net/middleware"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Response is the return-style handler result
	Response = phttp.Response

	// Envelope is the response body wrapper
	Envelope = phttp.Envelope
)

// APIV1 is the mount point for every versioned route
const APIV1 = "/api/v1"

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error maps err onto a status and envelope
func Error(err error) Response { return phttp.Error(err) }

// JSON binds and validates T from the body before calling fn
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.JSONHandler(fn)
}

// JSONLimit is JSON with a custom body cap
func JSONLimit[T any](maxBytes int64, fn func(*http.Request, T) (any, error)) Handler {
	opt := bind.DefaultJSONOptions()
	opt.MaxBytes = maxBytes
	return phttp.JSONHandler(fn, opt)
}

// Call adapts a handler that reads no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.CallHandler(fn) }

// StackOptions tunes CommonStack
type StackOptions struct {
	Origins     []string
	Timeout     time.Duration
	SlowRequest time.Duration
	Heartbeat   string
}

// CommonStack is the middleware chain every API server runs
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Heartbeat == "" {
		o.Heartbeat = "/health"
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.Visitor(),
		middleware.RecoverJSON,
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins, MaxAge: 300}),
		middleware.Heartbeat(o.Heartbeat),
		middleware.StripSlashes(),
		middleware.Compress(5),
		middleware.Timeout(o.Timeout),
	}
}

// MountAPIV1 mounts fn under /api/v1 with the given middleware
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, fn func(Router)) {
	r.Route(APIV1, func(v1 Router) {
		if len(mw) > 0 {
			v1.Use(mw...)
		}
		fn(v1)
	})
}
