package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the client shared by the rebuild-job queue and the health check.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects with the configured dial timeout. Read and write stay
// short; go-redis extends the deadline itself for blocking pops.
func NewRedis(addr string, dialTimeout time.Duration) *Redis {
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity for the /healthz report.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
