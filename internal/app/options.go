package service

import (
	repository "github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/domain/rating"
	"github.com/okian/boared/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the session store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithParams sets the rating model constants.
func WithParams(p rating.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithExposureK sets k in the displayed rating mu - k*sigma.
func WithExposureK(k float64) Option {
	return func(s *Service) {
		if k >= 0 {
			s.exposureK = k
		}
	}
}

// WithPublisher mirrors the leaderboard to p after every write.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMaxLeaderboardLimit caps the limit accepted by Leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithAsyncPublish publishes from a background worker instead of inside
// each write. capacity bounds pending publish jobs; 0 keeps publishing
// synchronous.
func WithAsyncPublish(capacity int) Option {
	return func(s *Service) {
		if capacity >= 0 {
			s.asyncCapacity = capacity
		}
	}
}
