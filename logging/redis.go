package logging

import (
	"bytes"
	"context"
	"sync"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/logfactory/errors"
	"github.com/leeforge/logfactory/redis_client"
	"go.uber.org/zap/zapcore"
)

// KindRedis pushes records onto a Redis list for a Logstash redis input.
const KindRedis = "redis"

// RedisOptions configures a redis handler.
type RedisOptions struct {
	redis_client.Config `mapstructure:",squash"`
	Key                 string        `mapstructure:"key" validate:"required"`
	Level               string        `mapstructure:"level" validate:"required"`
	PushTimeout         time.Duration `mapstructure:"push_timeout" default:"2s"`
}

// RedisHandler RPUSHes each formatted record onto Key. The client is created
// on the first record.
type RedisHandler struct {
	baseHandler
	opts RedisOptions

	cmu    sync.Mutex
	client *redis.Client
}

// NewRedisHandlerFromOptions is the HandlerConstructor for KindRedis.
func NewRedisHandlerFromOptions(options map[string]any) (Handler, error) {
	var opts RedisOptions
	if err := decodeOptions(KindRedis, options, &opts); err != nil {
		return nil, err
	}
	h, err := NewRedisHandler(opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func NewRedisHandler(opts RedisOptions) (*RedisHandler, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, errors.Wrap(err, KindRedis).WithDetail("handler", KindRedis)
	}
	return &RedisHandler{
		baseHandler: baseHandler{kind: KindRedis, level: level},
		opts:        opts,
	}, nil
}

// Key is the list records are pushed onto.
func (h *RedisHandler) Key() string { return h.opts.Key }

func (h *RedisHandler) Core() zapcore.Core {
	return newHandlerCore(h.level, h.Formatter().Encoder(), h)
}

func (h *RedisHandler) redis() *redis.Client {
	h.cmu.Lock()
	defer h.cmu.Unlock()
	if h.client == nil {
		h.client = redis_client.NewClient(h.opts.Config)
	}
	return h.client
}

func (h *RedisHandler) emit(_ zapcore.Entry, line []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.PushTimeout)
	defer cancel()

	payload := string(bytes.TrimRight(line, "\r\n"))
	if err := h.redis().RPush(ctx, h.opts.Key, payload).Err(); err != nil {
		return errors.NewExternal(KindRedis, err).
			WithDetail("addr", h.opts.Addr()).
			WithDetail("key", h.opts.Key)
	}
	return nil
}

func (h *RedisHandler) Sync() error { return nil }

func (h *RedisHandler) Close() error {
	h.cmu.Lock()
	defer h.cmu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
