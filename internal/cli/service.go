package cli

import (
	"context"

	"github.com/okian/boared/internal/adapters/cache"
	repository "github.com/okian/boared/internal/adapters/repository"
	service "github.com/okian/boared/internal/app"
	"github.com/okian/boared/pkg/logger"
)

// openService opens the configured store and wraps it in a started service.
// withPublisher also connects the Redis publisher when one is configured.
func (st *state) openService(ctx context.Context, withPublisher bool) (*service.Service, error) {
	store, err := repository.Open(st.cfg.StoreDriver, st.cfg.StorePath)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger.Get().Named("service")),
		service.WithStore(store),
		service.WithParams(st.cfg.RatingParams()),
		service.WithExposureK(st.cfg.ExposureK),
		service.WithMaxLeaderboardLimit(st.cfg.MaxLeaderboardLimit),
	}
	if withPublisher && st.cfg.RedisURL != "" {
		pub, err := cache.New(st.cfg.RedisURL, st.cfg.RedisKey)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, service.WithPublisher(pub), service.WithAsyncPublish(st.cfg.PublishQueueSize))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}
