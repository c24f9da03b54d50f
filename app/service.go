package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/liftsim/api/cars"
	"github.com/kilianp07/liftsim/api/stream"
	"github.com/kilianp07/liftsim/api/trips"
	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/core/carstatus"
	"github.com/kilianp07/liftsim/core/dispatch"
	"github.com/kilianp07/liftsim/core/dispatch/logging"
	"github.com/kilianp07/liftsim/core/elevator"
	coremetrics "github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	coremon "github.com/kilianp07/liftsim/core/monitoring"
	"github.com/kilianp07/liftsim/core/scheduler"
	"github.com/kilianp07/liftsim/infra/logger"
	"github.com/kilianp07/liftsim/infra/metrics"
	"github.com/kilianp07/liftsim/infra/monitoring"
	"github.com/kilianp07/liftsim/infra/mqtt"
	"github.com/kilianp07/liftsim/internal/eventbus"
)

// Service orchestrates the simulation clock, the dispatch manager and the
// surfaces around it: HTTP API, MQTT bridge, metrics and trip log.
type Service struct {
	cfg     *config.Config
	sched   *scheduler.Scheduler
	manager *dispatch.Manager
	status  *carstatus.MemoryStore
	bus     *eventbus.Bus
	snaps   *eventbus.TypedBus[elevator.Snapshot]
	sink    coremetrics.MetricsSink
	trips   logging.LogStore
	mqtt    *mqtt.PahoClient
	log     logger.Logger

	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	sched := scheduler.New(cfg.Scheduler)
	b, err := elevator.NewBuilding(cfg.Building, sched, elevator.Options{
		Profile:         cfg.Motion,
		ConcurrentTrips: cfg.Dispatch.ConcurrentTrips,
		Log:             logger.New("building"),
	})
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	manager := dispatch.NewManager(b, cfg.Dispatch, bus, logger.New("dispatch"))
	status := carstatus.NewMemoryStore()
	manager.SetStatusStore(status)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := logging.NewStore(cfg.TripLog.Module())
	if err != nil {
		return nil, fmt.Errorf("trip log: %w", err)
	}

	svc := &Service{
		cfg:     cfg,
		sched:   sched,
		manager: manager,
		status:  status,
		bus:     bus,
		snaps:   eventbus.NewTypedWithBuffer[elevator.Snapshot](4),
		sink:    sink,
		trips:   store,
		log:     logg,
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
	}
	return svc, nil
}

// Manager returns the dispatch manager. Its methods must run on the
// scheduler goroutine, see Do.
func (s *Service) Manager() *dispatch.Manager { return s.manager }

// Status returns the concurrency-safe copy of the building state.
func (s *Service) Status() carstatus.Store { return s.status }

// Do runs fn on the scheduler goroutine and waits for it.
func (s *Service) Do(ctx context.Context, fn func()) error { return s.sched.Do(ctx, fn) }

// Press applies a button press on the scheduler goroutine.
func (s *Service) Press(ctx context.Context, req model.Request) error {
	var perr error
	if err := s.sched.Do(ctx, func() { perr = s.manager.Press(req) }); err != nil {
		return err
	}
	return perr
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	api := cars.NewHandler(s.status, s, s.cfg.HTTP.Token)
	mux.Handle("/api/cars", api)
	mux.Handle("/api/cars/", api)
	mux.Handle("/api/requests", api)
	mux.Handle("/api/calls", api)
	mux.Handle("/api/snapshot", api)
	mux.Handle("/api/trips", trips.NewLogHandler(s.trips, s.cfg.HTTP.Token))
	mux.Handle("/ws", stream.NewHandler(s.snaps, logger.New("stream")))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// startSnapshots pushes a building snapshot to stream subscribers every
// snapshot_ms of simulated time.
func (s *Service) startSnapshots() {
	s.sched.Every(time.Duration(s.cfg.HTTP.SnapshotMS)*time.Millisecond, func() {
		s.manager.RefreshStatus()
		s.snaps.Publish(s.manager.Snapshot())
	})
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var waits []<-chan struct{}
	waits = append(waits, metrics.StartEventCollector(ctx, s.bus, s.sink))
	waits = append(waits, logging.StartRecorder(ctx, s.bus, s.trips, logger.New("trip-log")))
	if s.mqtt != nil {
		bridge := mqtt.NewBridge(s.mqtt, s.cfg.MQTT.TopicPrefix, s, s.status, logger.New("mqtt-bridge"))
		done, err := bridge.Start(ctx, s.bus)
		if err != nil {
			return fmt.Errorf("mqtt bridge: %w", err)
		}
		waits = append(waits, done)
	}

	promErr := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr)
	httpErr := s.startHTTP(ctx)

	s.startSnapshots()

	s.log.Infof("simulation running: %d floors, %d cars, time scale %.1f",
		s.cfg.Building.FloorCount(), len(s.cfg.Building.Cars), s.cfg.Scheduler.TimeScale)

	schedErr := make(chan error, 1)
	go func() { schedErr <- s.sched.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-promErr:
		runErr = err
	case err := <-httpErr:
		runErr = err
	}
	cancel()
	if err := <-schedErr; err != nil && runErr == nil {
		runErr = err
	}
	for _, w := range waits {
		<-w
	}
	if runErr != nil {
		s.log.Errorf("service stopped: %v", runErr)
	}
	return runErr
}

func (s *Service) startHTTP(ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	if s.cfg.HTTP.Addr == "" {
		return errc
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		s.log.Infof("http api listening on %s", s.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	return errc
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.bus.Close()
		s.snaps.Close()
		if s.mqtt != nil {
			s.mqtt.Disconnect()
		}
		err = s.trips.Close()
		coremon.Flush(2 * time.Second)
	})
	return err
}
