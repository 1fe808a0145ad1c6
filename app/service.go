package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apiaudit "github.com/gep-platform/assignd/api/audit"
	"github.com/gep-platform/assignd/config"
	"github.com/gep-platform/assignd/core/assign"
	"github.com/gep-platform/assignd/core/audit"
	coremetrics "github.com/gep-platform/assignd/core/metrics"
	coremon "github.com/gep-platform/assignd/core/monitoring"
	"github.com/gep-platform/assignd/infra/logger"
	"github.com/gep-platform/assignd/infra/metrics"
	"github.com/gep-platform/assignd/infra/monitoring"
	"github.com/gep-platform/assignd/infra/mqtt"
	"github.com/gep-platform/assignd/infra/store"
	"github.com/gep-platform/assignd/internal/eventbus"
)

// Service orchestrates the assignment manager, timeout watcher and transports.
type Service struct {
	Manager   *assign.Manager
	Watcher   *assign.TimeoutWatcher
	Directory *store.MemoryDirectory
	Audit     audit.Store

	notifier    *mqtt.PahoNotifier
	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
	api         config.APIConfig
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	notifier, err := mqtt.NewPahoNotifier(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt notifier: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	auditStore, err := newAuditStore(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	assignStore, err := newAssignmentStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("assignment store: %w", err)
	}

	dir := store.NewMemoryDirectory()
	bus := eventbus.New()
	filter := assign.NewHardConstraintFilter(dir, cfg.Engine)
	scorer, err := assign.NewWeightedScorer(cfg.Weights, cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	manager, err := assign.NewManager(filter, scorer, assignStore, auditStore, dir, dir, notifier, cfg.Engine, sink, bus, logg)
	if err != nil {
		return nil, fmt.Errorf("assignment manager: %w", err)
	}
	manager.SetAvailabilityCommitter(dir)
	manager.SetRequestUpdater(dir)
	watcher := assign.NewTimeoutWatcher(manager, 0, logg)

	return &Service{
		Manager:     manager,
		Watcher:     watcher,
		Directory:   dir,
		Audit:       auditStore,
		notifier:    notifier,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
		api:         cfg.API,
	}, nil
}

func newAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "memory":
		return audit.NewMemoryStore(), nil
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return audit.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return audit.NewJSONLStore(cfg.Path)
	}
}

func newAssignmentStore(cfg config.StoreConfig) (assign.AssignmentStore, error) {
	if cfg.Backend == "sqlite" {
		return store.NewSQLiteAssignmentStore(cfg.Path)
	}
	return assign.NewMemoryAssignmentStore(), nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx, s.notifier.Responses())
	go s.Watcher.Run(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.api.Enabled {
		go s.serveAPI(ctx)
	}
	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/api/audit", apiaudit.NewHandler(s.Audit, s.api.Token))
	srv := &http.Server{Addr: s.api.Address, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.notifier.Close()
	coremon.Flush(2 * time.Second)
	if err := s.Audit.Close(); err != nil {
		return err
	}
	return s.Manager.Close()
}
