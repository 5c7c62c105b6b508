package cache

import (
	"context"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shaderflow/shaderflow/pkg/errors"
)

// EnvRedisAddr configures the redis address when RedisOptions.Addr is empty.
const EnvRedisAddr = "SHADERFLOW_REDIS_ADDR"

// RedisOptions configure the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a redis-backed cache for the shared compile service, letting
// several service replicas reuse each other's compilations.
type Redis struct {
	client *goredis.Client
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	addr := opts.Addr
	if addr == "" {
		addr = os.Getenv(EnvRedisAddr)
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis at %s", addr)
	}
	return &Redis{client: client}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "redis get")
	}
	return data, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, data, normalizeTTL(ttl)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis set")
	}
	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis delete")
	}
	return nil
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.client.Close()
}
