// Package service wires the roster, the matcher and the async pipeline
// together and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/teammatch/internal/adapters/mq/queue"
	"github.com/okian/teammatch/internal/adapters/mq/worker"
	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/internal/domain/dedupe"
	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/internal/domain/model"
	"github.com/okian/teammatch/pkg/logger"
	"github.com/okian/teammatch/pkg/metrics"
)

const (
	modeSync  = "sync"
	modeAsync = "async"

	stopTimeout = 5 * time.Second
)

// asyncRanker adapts the service to worker.Ranker.
type asyncRanker struct {
	s *Service
}

func (a asyncRanker) Rank(ctx context.Context, teamID string, limit int) (matching.Result, error) {
	return a.s.rank(ctx, modeAsync, teamID, limit)
}

// Service implements the API dependencies for the shortlist system.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster     *repository.MemoryStore
	shortlists *repository.ShortlistStore
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	source     repository.Source

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	defaultLimit int
	maxLimit     int
	refresh      time.Duration

	// State
	started bool
	cancel  context.CancelFunc
	loops   sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		roster:       repository.NewMemoryStore(),
		shortlists:   repository.NewShortlistStore(),
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   50_000,
		defaultLimit: matching.DefaultLimit,
		maxLimit:     50,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = s.defaultLimit
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start loads the roster from the configured source and starts the workers.
// The components outlive ctx; call Stop to release them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting shortlist service...")

	if s.source != nil {
		if err := s.loadRoster(ctx); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, asyncRanker{s: s}, s.shortlists,
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(runCtx)

	if s.source != nil && s.refresh > 0 {
		s.loops.Add(1)
		go s.refreshLoop(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "shortlist service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("defaultLimit", s.defaultLimit),
	)
	return nil
}

// Stop drains queued requests and shuts the workers down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping shortlist service...")

	_ = s.queue.Close()
	if err := s.pool.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "workers did not drain", logger.Error(err))
	}
	s.cancel()
	s.loops.Wait()

	if c, ok := s.source.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "closing roster source", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "shortlist service stopped")
}

// Shortlist ranks candidates for teamID against the current roster. A limit
// of 0 uses the default.
func (s *Service) Shortlist(ctx context.Context, teamID string, limit int) (repository.Shortlist, error) {
	n, err := s.resolveLimit(limit)
	if err != nil {
		return repository.Shortlist{}, err
	}
	res, err := s.rank(ctx, modeSync, teamID, n)
	if err != nil {
		return repository.Shortlist{}, err
	}
	return repository.Shortlist{
		TeamID:    teamID,
		UserIDs:   res.UserIDs,
		Skipped:   res.Skipped,
		Limit:     n,
		CreatedAt: time.Now(),
	}, nil
}

// Submit queues req for asynchronous ranking. It returns the request id, which
// is generated when req has none, and whether the id was already seen.
func (s *Service) Submit(ctx context.Context, req model.MatchRequest) (string, bool, error) {
	if req.TeamID == "" {
		return "", false, fmt.Errorf("%w: team_id is required", ErrInvalidRequest)
	}
	n, err := s.resolveLimit(req.Limit)
	if err != nil {
		return "", false, err
	}
	req.Limit = n
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.TS.IsZero() {
		req.TS = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, req.RequestID) {
		metrics.RecordMatchDuplicate()
		s.logger.Debug(ctx, "duplicate match request", logger.String("requestID", req.RequestID))
		return req.RequestID, true, nil
	}

	if err := s.queue.Enqueue(ctx, req); err != nil {
		// Let the client retry the same id.
		s.deduper.Unrecord(ctx, req.RequestID)
		return req.RequestID, false, fmt.Errorf("enqueue %s: %w", req.RequestID, err)
	}
	return req.RequestID, false, nil
}

// Latest returns the most recent async shortlist for teamID.
func (s *Service) Latest(ctx context.Context, teamID string) (repository.Shortlist, error) {
	return s.shortlists.Get(ctx, teamID)
}

// ReplaceRoster swaps the roster used by subsequent rankings.
func (s *Service) ReplaceRoster(ctx context.Context, snap repository.Snapshot) {
	s.roster.Replace(ctx, snap)
	s.publishRosterCounts(snap.Counts())
	s.logger.Info(ctx, "roster replaced", logger.Any("records", snap.Counts()))
}

// Roster returns a copy of the current roster.
func (s *Service) Roster(ctx context.Context) (repository.Snapshot, error) {
	return s.roster.Snapshot(ctx)
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
		"dedupeSize":   s.dedupeSize,
		"defaultLimit": s.defaultLimit,
		"maxLimit":     s.maxLimit,
		"roster":       s.roster.Counts(),
		"shortlists":   s.shortlists.Count(ctx),
		"dedupeCount":  s.deduper.Size(),
	}
	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func (s *Service) resolveLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return s.defaultLimit, nil
	case limit < 0 || limit > s.maxLimit:
		return 0, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidLimit, limit, s.maxLimit)
	default:
		return limit, nil
	}
}

func (s *Service) rank(ctx context.Context, mode, teamID string, limit int) (matching.Result, error) {
	start := time.Now()
	snap, err := s.roster.Snapshot(ctx)
	if err != nil {
		s.recordRun(ctx, mode, metrics.OutcomeError)
		return matching.Result{}, fmt.Errorf("roster snapshot: %w", err)
	}

	res, err := matching.Rank(teamID, snap.Members, snap.Teams, snap.Users, snap.Beacons, matching.WithLimit(limit))
	metrics.RecordMatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, matching.ErrTeamNotFound) {
			outcome = metrics.OutcomeTeamNotFound
		}
		s.recordRun(ctx, mode, outcome)
		return matching.Result{}, err
	}

	s.recordRun(ctx, mode, metrics.OutcomeOK)
	metrics.RecordShortlistSize(len(res.UserIDs))
	if fault := res.Fault(); fault != nil {
		metrics.RecordSkippedMembers(len(res.Skipped))
		s.logger.Warn(ctx, "members skipped during ranking",
			logger.String("teamID", teamID),
			logger.Int("skipped", len(res.Skipped)),
			logger.Error(fault),
		)
	}
	return res, nil
}

func (s *Service) recordRun(ctx context.Context, mode, outcome string) {
	if err := metrics.RecordMatchRun(mode, outcome); err != nil {
		s.logger.Debug(ctx, "match run metric dropped", logger.Error(err))
	}
}

func (s *Service) loadRoster(ctx context.Context) error {
	name := sourceName(s.source)
	snap, err := s.source.Snapshot(ctx)
	metrics.RecordRosterLoad(name, err == nil)
	if err != nil {
		metrics.RecordErrorByComponent("roster", name)
		return fmt.Errorf("%w: %s: %w", ErrRosterLoad, name, err)
	}
	s.roster.Replace(ctx, snap)
	s.publishRosterCounts(snap.Counts())
	s.logger.Info(ctx, "roster loaded",
		logger.String("source", name),
		logger.Any("records", snap.Counts()),
	)
	return nil
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The previous roster stays in place when a reload fails.
			if err := s.loadRoster(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "roster refresh failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) publishRosterCounts(counts map[string]int) {
	for kind, n := range counts {
		metrics.UpdateRosterRecords(kind, n)
	}
}

func sourceName(src repository.Source) string {
	switch src.(type) {
	case *repository.PostgresSource:
		return "postgres"
	case *repository.FileSource:
		return "file"
	default:
		return "custom"
	}
}
