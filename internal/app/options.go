package service

import (
	"time"

	"github.com/okian/teammatch/internal/adapters/repository"
	"github.com/okian/teammatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the match request queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultLimit sets the shortlist size used when a request names none.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the shortlist size a request may ask for.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource loads the roster from src on Start.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithRosterRefresh reloads the roster from the source every d. Zero disables.
func WithRosterRefresh(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refresh = d
		}
	}
}
