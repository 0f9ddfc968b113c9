package xhttp

import (
	"context"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/valyala/fasthttp"
)

var DefaultServerOption = ServerOption{
	Name:               "appointment-api",
	IdleTimeout:        time.Second * 10,
	MaxRequestBodySize: 1 * 1024 * 1024, // appointment payloads are tiny
	ReadBufferSize:     1024 * 4,        // also, max header size
	WriteBufferSize:    1024 * 4,
	ReadTimeout:        time.Millisecond * 2500,
	WriteTimeout:       time.Millisecond * 2500,
	Concurrency:        10_000,
	MaxConnsPerIP:      1_000,
	TCPKeepalive:       true,
	CloseOnShutdown:    true,
}

type Server = fasthttp.Server

type ServerOption struct {
	Name string

	// idle keep-alive connections are closed after this long
	IdleTimeout time.Duration

	MaxRequestBodySize int
	ReadBufferSize     int
	WriteBufferSize    int

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	Concurrency     int
	MaxConnsPerIP   int
	TCPKeepalive    bool
	CloseOnShutdown bool
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:               NotFoundHandler,
		ErrorHandler:          errorHandler,
		Name:                  options.Name,
		Concurrency:           options.Concurrency,
		ReadBufferSize:        options.ReadBufferSize,
		WriteBufferSize:       options.WriteBufferSize,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		IdleTimeout:           options.IdleTimeout,
		MaxConnsPerIP:         options.MaxConnsPerIP,
		MaxRequestBodySize:    options.MaxRequestBodySize,
		TCPKeepalive:          options.TCPKeepalive,
		CloseOnShutdown:       options.CloseOnShutdown,
		NoDefaultServerHeader: true,
		NoDefaultContentType:  true,
		Logger:                logger.GetLogger(),
	}
}

func errorHandler(ctx *RequestCtx, err error) {
	logger.Warn("[xhttp] request error", "error", err)
	writeStatusJSON(ctx, StatusBadRequest, "bad_request")
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption)
}

func (e *Engine) ListenAndServe(addr string) error {
	e.DoRouting()
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

// DoRouting installs the router as the server handler and wraps it with the
// registered middleware, first registered runs outermost.
func (e *Engine) DoRouting() {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route registered", "method", method, "path", r)
		}
	}
	handler := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for i, m := range middle {
		handler = m(handler)
		logger.Debug("[xhttp] middleware registered", "index", i+1, "func", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = handler
}

// Use adds middleware to the end of the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// ChainOption configures UseDefaultChain.
type ChainOption struct {
	CorsAllowOrigin string
	RequestTimeout  time.Duration
	// TimeoutExempt lists path prefixes served without RequestTimeout.
	TimeoutExempt []string
	CompressLevel int
}

// UseDefaultChain registers the api middleware, outermost first. Recover is
// innermost so it shares the goroutine the timeout layer runs handlers on.
func (e *Engine) UseDefaultChain(opt ChainOption) {
	e.Use(RequestIDMiddleware)
	e.Use(CORSMiddleware(opt.CorsAllowOrigin))
	e.Use(RequestLoggerMiddleware)
	e.Use(TimeoutMiddleware(opt.RequestTimeout, opt.TimeoutExempt...))
	e.Use(CompressMiddleware(opt.CompressLevel))
	e.Use(RecoverMiddleware)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (e *Engine) Shutdown(ctx context.Context) error {
	logger.Info("[xhttp] server is shutting down")
	return e.Server.ShutdownWithContext(ctx)
}
