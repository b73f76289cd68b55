package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
)

// Store wraps the single shared redis client. Every operation checks
// connection liveness first and transparently (re)connects, so callers
// never manage the connection. Transport failures are logged in full here
// and re-signaled as api.ErrServer; clients of the API never see redis
// error shapes.
//
// The client itself is safe for concurrent use, so the mutex only guards
// the lazy dial.
type Store struct {
	logger *slog.Logger
	cfg    config.RedisConfig

	mu     sync.Mutex
	client *redis.Client
}

func NewStore(cfg config.RedisConfig, logger *slog.Logger) *Store {
	return &Store{logger: logger, cfg: cfg}
}

// NewStoreWithClient builds a Store around an existing client. Used by tests
// and by the queue registry which shares the redis deployment.
func NewStoreWithClient(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{logger: logger, client: client}
}

// Connect establishes the shared connection if not already open.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.ensure(ctx)
	return err
}

func (s *Store) ensure(ctx context.Context) (*redis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		s.client = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Addr(),
			Password: s.cfg.Password,
			DB:       s.cfg.DB,
		})
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return nil, s.serverError(ctx, "ping", err)
	}
	return s.client, nil
}

// HashSet writes the given field/value pairs into the hash at key as one
// batched command, so a concurrent reader never observes a partial record.
func (s *Store) HashSet(ctx context.Context, key string, pairs ...interface{}) error {
	client, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	if err := client.HSet(ctx, key, pairs...).Err(); err != nil {
		return s.serverError(ctx, "hset", err)
	}
	return nil
}

// HashGetAll returns every field of the hash at key. An empty map means the
// record is not cached, never that it does not exist.
func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	client, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, s.serverError(ctx, "hgetall", err)
	}
	return fields, nil
}

// SortedSetAdd inserts member into the sorted set at setKey with the given score.
func (s *Store) SortedSetAdd(ctx context.Context, setKey string, score float64, member string) error {
	client, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	if err := client.ZAdd(ctx, setKey, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return s.serverError(ctx, "zadd", err)
	}
	return nil
}

// Close releases the shared connection. Called once at shutdown.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// serverError logs the transport failure with full detail, then returns the
// generic sentinel the rest of the system is allowed to see.
func (s *Store) serverError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "Cache operation failed",
		slog.String("op", op),
		slog.String("addr", s.cfg.Addr()),
		slog.Any("error", err),
	)
	return api.ServerError()
}
