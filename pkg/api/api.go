// Package api implements the pagescope REST API: a thin HTTP surface over
// the Confluence client, with the parent-page scope guard applied to every
// write before it can reach upstream.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pagescope/pagescope/pkg/confluence"
	"github.com/pagescope/pagescope/pkg/logging"
	"github.com/pagescope/pagescope/pkg/metrics"
	"github.com/pagescope/pagescope/pkg/scope"
)

// API exposes the simplified Confluence surface over HTTP.
type API struct {
	client   *confluence.Client
	policy   scope.Policy
	spaceKey string

	httpServer *http.Server
	addr       string
	boundAddr  string
	startTime  time.Time
	log        *slog.Logger

	corsConfig      CORSConfig
	metricsRegistry *metrics.Registry
	version         string

	openapiJSON []byte
	openapiYAML []byte
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		a.log = log
	}
}

// WithCORSConfig sets the CORS configuration.
func WithCORSConfig(cfg CORSConfig) Option {
	return func(a *API) {
		a.corsConfig = cfg
	}
}

// WithVersion sets the version reported in the OpenAPI document.
func WithVersion(version string) Option {
	return func(a *API) {
		a.version = version
	}
}

// New creates the API server bound to addr. The client performs all upstream
// calls; policy confines writes; spaceKey is the space every page operation
// targets.
func New(addr string, client *confluence.Client, policy scope.Policy, spaceKey string, opts ...Option) *API {
	a := &API{
		client:          client,
		policy:          policy,
		spaceKey:        spaceKey,
		addr:            addr,
		startTime:       time.Now(),
		log:             logging.Nop(),
		corsConfig:      DefaultCORSConfig(),
		metricsRegistry: metrics.Get(),
		version:         "dev",
	}
	for _, opt := range opts {
		opt(a)
	}

	a.buildOpenAPIDocument()

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.withMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return a
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.httpServer.Handler
}

// Addr returns the address the server is bound to. Before Start it is the
// configured address; after a successful Start it is the actual listen
// address, which differs when the configured port is 0.
func (a *API) Addr() string {
	if a.boundAddr != "" {
		return a.boundAddr
	}
	return a.addr
}

// Start binds the listener and begins serving in the background. The bind
// happens synchronously so a busy port is reported to the caller instead of
// a background goroutine.
func (a *API) Start() error {
	a.startTime = time.Now()

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	a.boundAddr = ln.Addr().String()

	a.log.Info("starting pagescope API", "addr", a.boundAddr)
	if a.corsConfig.allowsAllOrigins() {
		a.log.Warn("CORS allows all origins; restrict with an explicit allow-list for production")
	}
	if !a.policy.Restricted() {
		a.log.Warn("no parent page restriction configured; writes may target any page in the space")
	}

	go func() {
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("pagescope API error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (a *API) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.httpServer.Shutdown(ctx)
}

func (a *API) withMiddleware(handler http.Handler) http.Handler {
	// Access logging and metrics sit closest to the mux so the matched
	// route pattern is available after dispatch.
	logged := a.accessMiddleware(handler)

	// CORS wraps everything and answers preflight requests itself.
	corsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Always set Vary to indicate an origin-dependent response
		w.Header().Add("Vary", "Origin")

		allowOrigin := a.corsConfig.getAllowOriginValue(origin)
		if allowOrigin == "" {
			// Origin not allowed. Preflights get refused outright; other
			// requests are served and the browser blocks the response.
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			logged.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", a.corsConfig.getMethods())
		w.Header().Set("Access-Control-Allow-Headers", a.corsConfig.getHeaders())
		w.Header().Set("Access-Control-Max-Age", a.corsConfig.getMaxAge())
		if a.corsConfig.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		logged.ServeHTTP(w, r)
	})

	return corsHandler
}
