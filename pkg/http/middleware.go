package xhttp

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

const (
	HeaderRequestID  = "X-Request-Id"
	requestIDUserKey = "request_id"
)

var skipPaths = []string{"/api/health", "/health", "/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

// TimeoutMiddleware answers a json 408 once timeout elapses while the rest
// of the chain keeps running on its own goroutine. Paths starting with one of
// exempt run without a deadline. Register RecoverMiddleware inside it, a
// panic on that goroutine is not seen by outer middleware.
func TimeoutMiddleware(timeout time.Duration, exempt ...string) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		if timeout <= 0 {
			return next
		}
		return func(ctx *RequestCtx) {
			if hasPathPrefix(string(ctx.Path()), exempt) {
				next(ctx)
				return
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				next(ctx)
			}()

			timer := time.NewTimer(timeout)
			defer timer.Stop()
			select {
			case <-done:
			case <-timer.C:
				var resp fasthttp.Response
				resp.Header.SetContentType(contentTypeJSON)
				resp.SetStatusCode(StatusRequestTimeout)
				resp.SetBodyString(statusBody(StatusRequestTimeout, "request_timeout"))
				ctx.TimeoutErrorWithResponse(&resp)
			}
		}
	}
}

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.CompressHandlerBrotliLevel(next, level, level)
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				writeStatusJSON(ctx, StatusInternalServerError, "internal_error")
				logger.Error("[xhttp] panic recovered", "error", err, "path", string(ctx.Path()))
			}
		}()
		next(ctx)
	}
}

// CORSMiddleware answers preflight requests and decorates every response.
// An empty allowOrigin means "*".
func CORSMiddleware(allowOrigin string) MiddlewareFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			h := &ctx.Response.Header
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			if string(ctx.Method()) == "OPTIONS" {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// RequestIDMiddleware keeps the caller's X-Request-Id or assigns a new one,
// and echoes it on the response.
func RequestIDMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		rid := string(ctx.Request.Header.Peek(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
			ctx.Request.Header.Set(HeaderRequestID, rid)
		}
		ctx.SetUserValue(requestIDUserKey, rid)
		ctx.Response.Header.Set(HeaderRequestID, rid)
		next(ctx)
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(ctx *RequestCtx) string {
	if v, ok := ctx.UserValue(requestIDUserKey).(string); ok {
		return v
	}
	return string(ctx.Request.Header.Peek(HeaderRequestID))
}

func RequestLoggerMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		latency := time.Since(start)
		resp := &ctx.Response
		// a timed out handler may still be writing ctx.Response
		if tr := ctx.LastTimeoutErrorResponse(); tr != nil {
			resp = tr
		}
		status := resp.StatusCode()
		method := string(ctx.Method())
		ip := ctx.RemoteIP().String()
		ua := string(ctx.Request.Header.UserAgent())
		rid := RequestID(ctx)

		fields := []any{
			"status", status,
			"method", method,
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(resp.Body()),
			"ip", ip,
			"ua", ua,
			"request_id", rid,
		}

		lg := logger.GetLogger()

		// choose level
		switch {
		case status >= 500:
			lg.Error("http_request", fields...)
		case status >= 400 || latency > slowThreshold:
			lg.Warn("http_request", fields...)
		default:
			lg.Info("http_request", fields...)
		}
	}
}

func shouldSkip(p string) bool {
	return hasPathPrefix(p, skipPaths)
}

func hasPathPrefix(p string, prefixes []string) bool {
	for _, sp := range prefixes {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}
