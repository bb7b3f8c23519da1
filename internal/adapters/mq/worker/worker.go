// Package worker runs queued match requests and stores their shortlists.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/teammatch/internal/adapters/mq/queue"
	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/internal/domain/matching"
	"github.com/okian/teammatch/pkg/logger"
	"github.com/okian/teammatch/pkg/metrics"
)

// Ranker computes a shortlist for a team against the current roster.
type Ranker interface {
	Rank(ctx context.Context, teamID string, limit int) (matching.Result, error)
}

// Recorder stores computed shortlists.
type Recorder interface {
	Put(ctx context.Context, s repository.Shortlist) bool
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue() <-chan queue.Request
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	size     int
	queue    Queue
	ranker   Ranker
	recorder Recorder

	wg     sync.WaitGroup
	logger logger.Logger
	now    func() time.Time
}

// NewPool creates a worker pool. A size below 1 uses one worker per CPU.
func NewPool(size int, q Queue, ranker Ranker, recorder Recorder, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:     size,
		queue:    q,
		ranker:   ranker,
		recorder: recorder,
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They stop when ctx is cancelled or the queue is
// closed and drained.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, p.logger.Named("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(p.size)
}

// Wait blocks until every worker has returned or ctx expires.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

func (p *Pool) run(ctx context.Context, log logger.Logger) {
	defer p.wg.Done()

	requests := p.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := p.process(ctx, log, req); err != nil {
				log.Error(ctx, "match request failed",
					logger.String("requestID", req.RequestID),
					logger.String("teamID", req.TeamID),
					logger.Error(err),
				)
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, log logger.Logger, req queue.Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := p.ranker.Rank(ctx, req.TeamID, req.Limit)
	if err != nil {
		kind := "rank_error"
		if errors.Is(err, matching.ErrTeamNotFound) {
			kind = "team_not_found"
		}
		metrics.RecordErrorByComponent("worker", kind)
		return fmt.Errorf("rank team %s: %w", req.TeamID, err)
	}

	stored := p.recorder.Put(ctx, repository.Shortlist{
		RequestID: req.RequestID,
		TeamID:    req.TeamID,
		UserIDs:   res.UserIDs,
		Skipped:   res.Skipped,
		Limit:     req.Limit,
		CreatedAt: p.now(),
	})
	log.Debug(ctx, "shortlist computed",
		logger.String("requestID", req.RequestID),
		logger.String("teamID", req.TeamID),
		logger.Strings("userIDs", res.UserIDs),
		logger.Any("stored", stored),
	)
	return nil
}
