package redis_client

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"
)

// NewClient builds a client without touching the network; go-redis dials on
// first command.
func NewClient(cnf Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cnf.Addr(),
		Password:    cnf.Password,
		DB:          cnf.DB,
		DialTimeout: cnf.DialTimeout,
	})
}

// NewRedis builds a client and pings it.
func NewRedis(ctx context.Context, cnf Config) (*redis.Client, error) {
	client := NewClient(cnf)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", redisConfigLogFields(cnf), err)
	}
	return client, nil
}

func redisConfigLogFields(cnf Config) string {
	return fmt.Sprintf("addr=%s db=%d password=%s", cnf.Addr(), cnf.DB, redactedPassword(cnf.Password))
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
