package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fusionstack/fusion"
)

// Router adapts a fusion container to HTTP. Each registered handler gets a
// plan compiled at registration time, so declaration and cycle faults abort
// startup instead of surfacing per-request. Per request the router opens a
// resolution context seeded with the *http.Request, resolves the handler's
// arguments, invokes it, encodes the result, and unwinds.
type Router struct {
	mux       *chi.Mux
	container *fusion.Container
	log       *slog.Logger
}

// Option configures the router.
type Option func(*Router)

// WithLogger sets the logger used for teardown and encoding failures.
func WithLogger(log *slog.Logger) Option {
	return func(rt *Router) {
		rt.log = log
	}
}

// NewRouter creates an HTTP router backed by the container. The *http.Request
// seed must be declared on the registry before build (NewRegistry in this
// package does so).
func NewRouter(container *fusion.Container, opts ...Option) *Router {
	rt := &Router{
		mux:       chi.NewRouter(),
		container: container,
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(rt)
	}

	return rt
}

// NewRegistry creates a fusion registry with the request seed declared, ready
// for binding declarations and application providers.
func NewRegistry() *fusion.Registry {
	reg := fusion.NewRegistry()
	// Cannot fail on an empty registry.
	_ = fusion.Seed[*http.Request](reg)
	return reg
}

// Handle registers a handler for the method and chi pattern, compiling its
// resolution plan immediately.
func (rt *Router) Handle(method, pattern string, handler any) error {
	plan, err := rt.container.Plan(handler)
	if err != nil {
		return err
	}

	rt.mux.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt.serve(w, r, plan)
	}))

	return nil
}

// Get registers a GET handler.
func (rt *Router) Get(pattern string, handler any) error {
	return rt.Handle(http.MethodGet, pattern, handler)
}

// Post registers a POST handler.
func (rt *Router) Post(pattern string, handler any) error {
	return rt.Handle(http.MethodPost, pattern, handler)
}

// Put registers a PUT handler.
func (rt *Router) Put(pattern string, handler any) error {
	return rt.Handle(http.MethodPut, pattern, handler)
}

// Delete registers a DELETE handler.
func (rt *Router) Delete(pattern string, handler any) error {
	return rt.Handle(http.MethodDelete, pattern, handler)
}

// Use appends chi middleware to the router.
func (rt *Router) Use(middlewares ...func(http.Handler) http.Handler) {
	rt.mux.Use(middlewares...)
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// serve runs one request through the resolution engine.
func (rt *Router) serve(w http.ResponseWriter, r *http.Request, plan *fusion.Plan) {
	rc, err := rt.container.Open(r.Context(), r)
	if err != nil {
		rt.respondError(w, r, err)
		return
	}

	// The deferred close releases acquired resources when the handler panics
	// past us; on the normal path below the context is already closed and
	// this is a no-op.
	defer rc.Close()

	result, primary := rc.Call(plan)

	// Unwind before responding so teardown failures can be attached to the
	// log entry for this request. The primary outcome is never replaced.
	if terr := rc.Close(); terr != nil {
		rt.log.ErrorContext(r.Context(), "request teardown failed",
			slog.String("path", r.URL.Path),
			slog.String("resolution_context", rc.ID()),
			slog.Any("error", terr),
		)
	}

	if primary != nil {
		rt.respondError(w, r, primary)
		return
	}

	rt.respond(w, r, result)
}

// respond encodes a successful handler result.
func (rt *Router) respond(w http.ResponseWriter, r *http.Request, result any) {
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := writeJSON(w, http.StatusOK, result); err != nil {
		rt.log.ErrorContext(r.Context(), "response encoding failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

// respondError maps an error to its HTTP response. Bind failures are client
// errors; everything else, including resolution failures, is a server error
// for this request only.
func (rt *Router) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var httpErr *Error
	var bindErr *BindError

	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Status
		message = httpErr.Message
	case errors.As(err, &bindErr):
		status = http.StatusBadRequest
		message = bindErr.Error()
	}

	if status >= http.StatusInternalServerError {
		rt.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	_ = writeJSON(w, status, map[string]string{"error": message})
}
