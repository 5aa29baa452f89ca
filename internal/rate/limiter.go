// Package rate limita intentos por clave sobre Redis (ventana fija).
// Sin Redis configurado el portal no limita; el límite de login es una
// defensa operativa, no un requisito funcional.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es la decisión del limitador para un intento.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decide si un intento identificado por key puede pasar.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter implementa ventana fija con INCR + EXPIRE NX: el contador
// nace con la ventana y muere con ella, sin estado en el proceso.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisLimiter) bucketKey(key string) string {
	window := time.Now().UTC().Truncate(l.window).Unix()
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' {
			return '_'
		}
		return r
	}, key)
	return fmt.Sprintf("%s%s:%d", l.prefix, clean, window)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	bucket := l.bucketKey(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	// NX: solo el primer hit de la ventana fija la expiración.
	pipe.ExpireNX(ctx, bucket, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	hits := incr.Val()
	if hits <= l.max {
		return Result{Allowed: true, Remaining: l.max - hits}, nil
	}

	retry, err := l.client.TTL(ctx, bucket).Result()
	if err != nil || retry <= 0 {
		retry = l.window
	}
	return Result{Allowed: false, RetryAfter: retry}, nil
}
