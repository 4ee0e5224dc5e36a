package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mnv-dev/vyahan-core/internal/audit"
	"github.com/mnv-dev/vyahan-core/internal/auth"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/config"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/database"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/logging"
	"github.com/mnv-dev/vyahan-core/internal/shipment"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// auditQueueSize bounds the audit write queue. Entries beyond this are
// dropped with a warning rather than blocking request handling.
const auditQueueSize = 256

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	DB        *database.DB
	Auth      *auth.Service
	Orgs      tenant.OrganizationRepository
	Branches  tenant.BranchRepository
	Shipments *shipment.Service
	AuditRepo audit.Repository
	Version   string
}

// Server is the HTTP API server for Vyahan Core.
//
// It manages the HTTP listener, routes, middleware, the tenant
// resolver, and the audit writer goroutine. The server is created with
// New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	db        *database.DB
	auth      *auth.Service
	orgs      tenant.OrganizationRepository
	branches  tenant.BranchRepository
	shipments *shipment.Service
	auditRepo audit.Repository
	resolver  *tenant.Resolver
	version   string

	server  *http.Server
	auditCh chan audit.AuditLog
	cancel  context.CancelFunc // stops the audit drain goroutine on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Orgs == nil || deps.Branches == nil {
		return nil, fmt.Errorf("tenant repositories are required")
	}
	if deps.Shipments == nil {
		return nil, fmt.Errorf("shipment service is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		db:        deps.DB,
		auth:      deps.Auth,
		orgs:      deps.Orgs,
		branches:  deps.Branches,
		shipments: deps.Shipments,
		auditRepo: deps.AuditRepo,
		resolver:  tenant.NewResolver(deps.Orgs),
		version:   deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the audit drain goroutine, and launches
// the HTTP listener in a background goroutine. The server is stopped
// with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.auditCh = make(chan audit.AuditLog, auditQueueSize)
	go s.drainAuditLog(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// audit queues an audit entry without blocking the request path. A full
// queue drops the entry and logs a warning.
func (s *Server) audit(entry audit.AuditLog) {
	if s.auditRepo == nil || s.auditCh == nil {
		return
	}
	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit queue full, dropping entry", "action", entry.Action)
	}
}

// drainAuditLog persists queued audit entries until the server context
// is cancelled, then drains what remains.
func (s *Server) drainAuditLog(ctx context.Context) {
	write := func(entry audit.AuditLog) {
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.auditRepo.Create(wctx, &entry); err != nil {
			s.logger.Warn("writing audit entry failed", "action", entry.Action, "error", err)
		}
	}

	for {
		select {
		case entry := <-s.auditCh:
			write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					write(entry)
				default:
					return
				}
			}
		}
	}
}
