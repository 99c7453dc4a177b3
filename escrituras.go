package escrituras

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LACSistemas/EscriturasNew/internal/logging"
	"github.com/LACSistemas/EscriturasNew/pkg/adapters/extraction"
	"github.com/LACSistemas/EscriturasNew/pkg/adapters/httpapi"
	"github.com/LACSistemas/EscriturasNew/pkg/adapters/memory"
	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/engine"
	"github.com/LACSistemas/EscriturasNew/pkg/observability"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
	"github.com/LACSistemas/EscriturasNew/pkg/session"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// Interview is the high-level entry point for the library. It wires the
// deed workflow, the session layer, and the engine behind a simplified API.
type Interview struct {
	engine   *engine.Engine
	registry *prometheus.Registry

	store     ports.SessionStore
	locker    ports.DistributedLocker
	extractor ports.Extractor
	retry     *workflow.RetryPolicy
	lockTTL   time.Duration
	logger    *slog.Logger
	metrics   bool
}

// Option defines a functional option for configuring the Interview.
type Option func(*Interview)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(i *Interview) { i.store = store }
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(i *Interview) { i.locker = locker }
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(i *Interview) { i.lockTTL = ttl }
}

// WithExtractor sets the document extraction gateway client.
func WithExtractor(extractor ports.Extractor) Option {
	return func(i *Interview) { i.extractor = extractor }
}

// WithRetryPolicy overrides the extraction retry policy.
func WithRetryPolicy(p workflow.RetryPolicy) Option {
	return func(i *Interview) { i.retry = &p }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interview) { i.logger = logger }
}

// WithMetrics enables prometheus instrumentation on a private registry,
// exposed through Handler at /metrics.
func WithMetrics() Option {
	return func(i *Interview) { i.metrics = true }
}

// New builds the deed interview and its engine. It fails if the workflow
// definition does not pass its build-time checks.
func New(opts ...Option) (*Interview, error) {
	i := &Interview{
		lockTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.store == nil {
		i.store = memory.NewStore()
	}
	if i.extractor == nil {
		i.extractor = &extraction.Static{}
	}
	if i.logger == nil {
		i.logger = logging.NewNop()
	}

	gatewayOpts := []workflow.GatewayOption{workflow.WithGatewayLogger(i.logger)}
	if i.retry != nil {
		gatewayOpts = append(gatewayOpts, workflow.WithRetryPolicy(*i.retry))
	}
	gateway := workflow.NewGateway(i.extractor, gatewayOpts...)

	def, err := workflow.NewDeedDefinition(workflow.Toolbox{Gateway: gateway})
	if err != nil {
		return nil, err
	}

	managerOpts := []session.Option{
		session.WithLogger(i.logger),
		session.WithLockTTL(i.lockTTL),
	}
	if i.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(i.locker))
	}
	manager := session.NewManager(i.store, managerOpts...)

	engineOpts := []engine.Option{engine.WithLogger(i.logger)}
	if i.metrics {
		i.registry = prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(observability.NewMetrics(i.registry)))
	}

	i.engine = engine.New(def, manager, engineOpts...)
	return i, nil
}

// Start creates the session (or resumes it) and returns the current prompt.
func (i *Interview) Start(ctx context.Context, sessionID string) (*engine.Outcome, error) {
	return i.engine.StartSession(ctx, sessionID)
}

// Prompt returns the current step's prompt without advancing anything.
func (i *Interview) Prompt(ctx context.Context, sessionID string) (*engine.Outcome, error) {
	return i.engine.Prompt(ctx, sessionID)
}

// Submit applies one response to the session and returns the next prompt.
func (i *Interview) Submit(ctx context.Context, sessionID string, resp engine.Response) (*engine.Outcome, error) {
	return i.engine.ProcessStep(ctx, sessionID, resp)
}

// Reset restarts the interview from the entry step.
func (i *Interview) Reset(ctx context.Context, sessionID string) (*engine.Outcome, error) {
	return i.engine.Reset(ctx, sessionID)
}

// Delete removes the session.
func (i *Interview) Delete(ctx context.Context, sessionID string) error {
	return i.engine.Delete(ctx, sessionID)
}

// Sessions lists known session IDs.
func (i *Interview) Sessions(ctx context.Context) ([]string, error) {
	return i.engine.Sessions(ctx)
}

// Snapshot returns a copy of the session for inspection.
func (i *Interview) Snapshot(ctx context.Context, sessionID string) (*domain.Session, error) {
	return i.engine.Snapshot(ctx, sessionID)
}

// Definition returns the workflow definition for introspection.
func (i *Interview) Definition() *workflow.Definition {
	return i.engine.Definition()
}

// Handler returns the HTTP handler exposing the interview API.
func (i *Interview) Handler() http.Handler {
	httpOpts := []httpapi.Option{httpapi.WithLogger(i.logger)}
	if i.registry != nil {
		httpOpts = append(httpOpts, httpapi.WithGatherer(i.registry))
	}
	return httpapi.NewHandler(i.engine, httpOpts...)
}
