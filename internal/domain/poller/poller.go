// Package poller keeps one polling schedule per live match, shared by every
// subscriber of that match.
//
// The first Subscribe for a match starts the schedule and returns once the
// immediate first tick has completed. The last Unsubscribe stops it and
// returns after the schedule goroutine has exited. A tick whose scorecard hashes
// the same as the last applied one does nothing.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

const (
	defaultInterval     = 5 * time.Second
	defaultFetchTimeout = 10 * time.Second
	defaultMaxBackoff   = time.Minute
)

// Fetcher reads the current scorecard of a match.
type Fetcher interface {
	FetchScorecard(ctx context.Context, matchID string) (model.Scorecard, error)
}

// Snapshot is a changed scorecard handed to the Updater.
type Snapshot struct {
	MatchID   string
	Card      model.Scorecard
	Hash      uint64
	FetchedAt time.Time
}

// Updater applies changed snapshots.
type Updater interface {
	ApplySnapshot(ctx context.Context, snap Snapshot) error
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, snap Snapshot) error

func (f UpdaterFunc) ApplySnapshot(ctx context.Context, snap Snapshot) error { return f(ctx, snap) }

// Subscription describes a live schedule.
type Subscription struct {
	MatchID   string    `json:"matchId"`
	Refs      int       `json:"refs"`
	CreatedAt time.Time `json:"createdAt"`
	LastHash  uint64    `json:"lastHash"`
	Failures  int       `json:"failures"`
}

// Poller owns the per-match schedules.
type Poller struct {
	mu     sync.Mutex
	subs   map[string]*schedule
	closed bool

	fetcher      Fetcher
	updater      Updater
	interval     time.Duration
	fetchTimeout time.Duration
	maxBackoff   time.Duration
	onError      ErrorHandler
	log          logger.Logger
}

type schedule struct {
	matchID   string
	createdAt time.Time
	refs      int // guarded by Poller.mu

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	lastHash uint64
	hasHash  bool
	failures int
}

type tickKey struct{}

// New creates a Poller reading from fetcher and applying to updater.
func New(fetcher Fetcher, updater Updater, opts ...Option) *Poller {
	p := &Poller{
		subs:         make(map[string]*schedule),
		fetcher:      fetcher,
		updater:      updater,
		interval:     defaultInterval,
		fetchTimeout: defaultFetchTimeout,
		maxBackoff:   defaultMaxBackoff,
		log:          logger.Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxBackoff < p.interval {
		p.maxBackoff = p.interval
	}
	return p
}

// Handle is one subscriber's reference to a schedule.
type Handle struct {
	p    *Poller
	s    *schedule
	once sync.Once
}

// Unsubscribe releases this handle's reference. Calls after the first do nothing.
func (h *Handle) Unsubscribe(ctx context.Context) {
	h.once.Do(func() { h.p.release(ctx, h.s) })
}

// Subscribe adds a reference to matchID's schedule, creating it if needed.
func (p *Poller) Subscribe(ctx context.Context, matchID string) (*Handle, error) {
	if matchID == "" {
		return nil, ErrInvalidMatchID
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	s, ok := p.subs[matchID]
	if ok {
		s.refs++
	} else {
		s = p.newSchedule(matchID)
		p.subs[matchID] = s
		go p.run(s)
	}
	active := len(p.subs)
	p.mu.Unlock()
	metrics.UpdateActiveSubscriptions(active)

	h := &Handle{p: p, s: s}
	if inTick(ctx, s) {
		return h, nil
	}
	select {
	case <-s.ready:
		return h, nil
	case <-ctx.Done():
		h.Unsubscribe(context.Background())
		return nil, ctx.Err()
	}
}

// Unsubscribe releases one reference to matchID's schedule. Unknown matches are ignored.
func (p *Poller) Unsubscribe(ctx context.Context, matchID string) {
	p.mu.Lock()
	s, ok := p.subs[matchID]
	p.mu.Unlock()
	if !ok {
		return
	}
	p.release(ctx, s)
}

func (p *Poller) release(ctx context.Context, s *schedule) {
	p.mu.Lock()
	if p.subs[s.matchID] != s {
		p.mu.Unlock()
		return
	}
	s.refs--
	if s.refs > 0 {
		p.mu.Unlock()
		return
	}
	delete(p.subs, s.matchID)
	active := len(p.subs)
	p.mu.Unlock()
	metrics.UpdateActiveSubscriptions(active)

	p.stop(ctx, s)
	p.log.Info(ctx, "schedule stopped", logger.String("match_id", s.matchID))
}

// stop cancels s and waits for its goroutine unless called from inside s's own tick.
func (p *Poller) stop(ctx context.Context, s *schedule) {
	s.cancel()
	if inTick(ctx, s) {
		return
	}
	<-s.done
}

// Active lists live schedules ordered by match id.
func (p *Poller) Active() []Subscription {
	p.mu.Lock()
	out := make([]Subscription, 0, len(p.subs))
	for _, s := range p.subs {
		s.mu.Lock()
		out = append(out, Subscription{
			MatchID:   s.matchID,
			Refs:      s.refs,
			CreatedAt: s.createdAt,
			LastHash:  s.lastHash,
			Failures:  s.failures,
		})
		s.mu.Unlock()
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// Close stops every schedule. Later Subscribe calls fail with ErrClosed.
func (p *Poller) Close(ctx context.Context) {
	p.mu.Lock()
	p.closed = true
	subs := make([]*schedule, 0, len(p.subs))
	for id, s := range p.subs {
		subs = append(subs, s)
		delete(p.subs, id)
	}
	p.mu.Unlock()
	metrics.UpdateActiveSubscriptions(0)

	for _, s := range subs {
		p.stop(ctx, s)
	}
}

func (p *Poller) newSchedule(matchID string) *schedule {
	ctx, cancel := context.WithCancel(context.Background())
	return &schedule{
		matchID:   matchID,
		createdAt: time.Now(),
		refs:      1,
		ctx:       ctx,
		cancel:    cancel,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (p *Poller) run(s *schedule) {
	defer close(s.done)
	p.log.Info(s.ctx, "schedule started", logger.String("match_id", s.matchID))

	p.tick(s)
	close(s.ready)

	timer := time.NewTimer(p.nextDelay(s))
	defer timer.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			p.tick(s)
			timer.Reset(p.nextDelay(s))
		}
	}
}

func (p *Poller) tick(s *schedule) {
	if s.ctx.Err() != nil {
		return
	}
	ctx := context.WithValue(s.ctx, tickKey{}, s)

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	start := time.Now()
	card, err := p.fetcher.FetchScorecard(fetchCtx, s.matchID)
	cancel()
	metrics.RecordFetchLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		s.failures++
		failures := s.failures
		s.mu.Unlock()
		metrics.RecordTick(metrics.TickFailed)
		metrics.RecordErrorByComponent("poller", "upstream")
		err = fmt.Errorf("%w: match %s: %v", ErrUpstreamUnavailable, s.matchID, err)
		p.log.Warn(ctx, "fetch failed",
			logger.String("match_id", s.matchID),
			logger.Int("failures", failures),
			logger.Error(err))
		p.report(ctx, s.matchID, err)
		return
	}

	hash, err := hashScorecard(card)
	if err != nil {
		p.report(ctx, s.matchID, err)
		return
	}

	s.mu.Lock()
	s.failures = 0
	unchanged := s.hasHash && s.lastHash == hash
	s.mu.Unlock()
	if unchanged {
		metrics.RecordTick(metrics.TickUnchanged)
		return
	}

	snap := Snapshot{MatchID: s.matchID, Card: card, Hash: hash, FetchedAt: time.Now()}
	if err := p.updater.ApplySnapshot(ctx, snap); err != nil {
		metrics.RecordApplyError()
		p.log.Error(ctx, "apply snapshot failed",
			logger.String("match_id", s.matchID),
			logger.Error(err))
		p.report(ctx, s.matchID, err)
		return
	}

	s.mu.Lock()
	s.lastHash = hash
	s.hasHash = true
	s.mu.Unlock()
	metrics.RecordTick(metrics.TickChanged)
}

func (p *Poller) report(ctx context.Context, matchID string, err error) {
	if p.onError != nil {
		p.onError(ctx, matchID, err)
	}
}

func (p *Poller) nextDelay(s *schedule) time.Duration {
	s.mu.Lock()
	failures := s.failures
	s.mu.Unlock()
	return backoff(p.interval, p.maxBackoff, failures)
}

// backoff returns interval * 2^failures, capped at maxDelay.
func backoff(interval, maxDelay time.Duration, failures int) time.Duration {
	d := interval
	for i := 0; i < failures && d < maxDelay; i++ {
		d *= 2
	}
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

func hashScorecard(card model.Scorecard) (uint64, error) {
	payload, err := json.Marshal(card)
	if err != nil {
		return 0, fmt.Errorf("hash scorecard: %w", err)
	}
	return xxhash.Sum64(payload), nil
}

func inTick(ctx context.Context, s *schedule) bool {
	if ctx == nil {
		return false
	}
	cur, _ := ctx.Value(tickKey{}).(*schedule)
	return cur == s
}
