// Package api exposes the voting core over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/zkvote-core/audit"
	"github.com/vocdoni/zkvote-core/authority"
	"github.com/vocdoni/zkvote-core/blobstore"
	"github.com/vocdoni/zkvote-core/election"
	"github.com/vocdoni/zkvote-core/log"
	"github.com/vocdoni/zkvote-core/metrics"
	"github.com/vocdoni/zkvote-core/prover"
)

// APIConfig type represents the configuration for the API HTTP server.
// Manager and Registry are required, the rest enables optional endpoints.
type APIConfig struct {
	Host       string
	Port       int
	Manager    *election.Manager
	Registry   *authority.Registry
	Dispatcher *prover.Dispatcher // Optional: enables POST /proofs
	Blobs      blobstore.Store    // Optional: enables the metadata endpoints
	Audit      *audit.Log         // Optional: enables GET /audit
}

// API type represents the API HTTP server.
type API struct {
	router     *chi.Mux
	manager    *election.Manager
	registry   *authority.Registry
	dispatcher *prover.Dispatcher
	blobs      blobstore.Store
	audit      *audit.Log

	host   string
	port   int
	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a new API instance with the given configuration. The server
// is not started, see Start.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Manager == nil || conf.Registry == nil {
		return nil, fmt.Errorf("missing election manager or authority registry")
	}
	a := &API{
		manager:    conf.Manager,
		registry:   conf.Registry,
		dispatcher: conf.Dispatcher,
		blobs:      conf.Blobs,
		audit:      conf.Audit,
		host:       conf.Host,
		port:       conf.Port,
	}
	a.initRouter()
	return a, nil
}

// Start listens on the configured address and serves in the background.
func (a *API) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return fmt.Errorf("API server already started")
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", a.host, a.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	a.addr = ln.Addr()
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := a.server
	go func() {
		log.Infow("starting API server", "address", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server failed")
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx is
// done.
func (a *API) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown(ctx)
	a.server = nil
	return err
}

// Addr returns the listening address once started.
func (a *API) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	handle := func(method, endpoint string, h http.HandlerFunc) {
		log.Debugw("register handler", "endpoint", endpoint, "method", method)
		a.router.Method(method, endpoint, h)
	}
	handle(http.MethodGet, PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	handle(http.MethodGet, HealthEndpoint, a.health)
	a.router.Method(http.MethodGet, MetricsEndpoint, metrics.Handler())

	handle(http.MethodPost, ElectionsEndpoint, a.newElection)
	handle(http.MethodGet, ElectionsEndpoint, a.elections)
	handle(http.MethodGet, ElectionEndpoint, a.election)
	handle(http.MethodPost, CandidatesEndpoint, a.newCandidate)
	handle(http.MethodPost, ElectionTransitionEndpoint, a.transition)
	handle(http.MethodPost, VotesEndpoint, a.vote)
	handle(http.MethodPost, HumanityEndpoint, a.humanity)
	handle(http.MethodPost, HumanityAttestEndpoint, a.attestHumanity)
	handle(http.MethodPost, EligibilityEndpoint, a.eligibility)
	handle(http.MethodGet, ResultsEndpoint, a.results)

	handle(http.MethodPost, AuthoritiesEndpoint, a.newAuthority)
	handle(http.MethodGet, AuthoritiesEndpoint, a.authorities)
	handle(http.MethodGet, AuthoritiesAuditEndpoint, a.authoritiesAudit)
	handle(http.MethodGet, AuthorityEndpoint, a.authority)
	handle(http.MethodDelete, AuthorityEndpoint, a.removeAuthority)
	handle(http.MethodGet, AuthorityActionsEndpoint, a.authorityActions)
	handle(http.MethodGet, AuditEndpoint, a.auditLog)

	handle(http.MethodPost, ProofsEndpoint, a.prove)
	handle(http.MethodPost, MetadataEndpoint, a.newMetadata)
	handle(http.MethodGet, MetadataCIDEndpoint, a.metadata)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
