// Package service wires the ledger, poller and notification hub into the
// operations the HTTP API exposes.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/crease/internal/adapters/mq/queue"
	"github.com/okian/crease/internal/adapters/mq/worker"
	"github.com/okian/crease/internal/adapters/push"
	"github.com/okian/crease/internal/adapters/repository"
	"github.com/okian/crease/internal/adapters/source"
	"github.com/okian/crease/internal/domain/dedupe"
	"github.com/okian/crease/internal/domain/ledger"
	"github.com/okian/crease/internal/domain/notify"
	"github.com/okian/crease/internal/domain/poller"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

// Service implements the API dependencies for live match tracking.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store  repository.Store
	source source.Source
	pusher push.Pusher

	// Core components
	ledger  *ledger.Ledger
	hub     *notify.Hub
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	poller  *poller.Poller

	followMu  sync.Mutex
	followers map[string]map[string]*follow

	// Configuration
	pollInterval time.Duration
	fetchTimeout time.Duration
	maxBackoff   time.Duration
	retention    int
	dedupeSize   int
	queueSize    int
	workerCount  int
	pushTimeout  time.Duration

	// State
	started  bool
	stopPool context.CancelFunc

	logger logger.Logger
}

// follow is one user's interest in a match. handle is nil until the poller
// subscription completes.
type follow struct {
	handle *poller.Handle
}

// New constructs a Service. Missing collaborators default to an in-memory
// store, the demo source and a pusher that discards.
func New(opts ...Option) *Service {
	s := &Service{
		followers:    make(map[string]map[string]*follow),
		pollInterval: 5 * time.Second,
		fetchTimeout: 10 * time.Second,
		maxBackoff:   time.Minute,
		retention:    100,
		dedupeSize:   50_000,
		queueSize:    1_024,
		workerCount:  runtime.NumCPU(),
		pushTimeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.source == nil {
		s.source = source.NewDemo()
	}
	if s.pusher == nil {
		s.pusher = push.Discard{}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.hub = notify.New(
		notify.WithRetention(s.retention),
		notify.WithDeduper(s.deduper),
		notify.WithDispatcher(s.queue),
	)
	s.ledger = ledger.New(s.store, ledger.WithListener(s.onScoreEvent))
	s.poller = poller.New(s.source, s,
		poller.WithInterval(s.pollInterval),
		poller.WithFetchTimeout(s.fetchTimeout),
		poller.WithMaxBackoff(s.maxBackoff),
		poller.WithErrorHandler(s.onPollError),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.pusher, worker.WithPushTimeout(s.pushTimeout))
	return s
}

// Start starts the push workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting live service...")

	// workers outlive the caller's ctx so Stop can drain the queue
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = cancel
	s.pool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "live service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("retention", s.retention),
		logger.Duration("pollInterval", s.pollInterval),
	)
	return nil
}

// Stop stops polling, drains the push queue and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping live service...")

	s.poller.Close(ctx)

	s.followMu.Lock()
	s.followers = make(map[string]map[string]*follow)
	s.followMu.Unlock()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "push pool shutdown", logger.Error(err))
	}
	s.stopPool()

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "store close", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "live service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"retention":    s.retention,
		"pollInterval": s.pollInterval.String(),
	}

	active := s.poller.Active()
	stats["liveMatches"] = active
	stats["subscribers"] = s.hub.Subscribers()
	stats["dedupeKeys"] = s.deduper.Size()
	stats["followers"] = s.followerCount()

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	if n, err := s.ledger.Count(ctx); err == nil {
		stats["totalScores"] = n
	} else {
		s.logger.Warn(ctx, "count scores", logger.Error(err))
	}
	return stats
}
