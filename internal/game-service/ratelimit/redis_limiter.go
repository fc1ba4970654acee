package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter é uma janela fixa por usuário: INCR na chave da janela, EXPIRE na primeira batida
type RedisLimiter struct {
	r      *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(r *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{r: r, limit: int64(limit), window: window, now: time.Now}
}

func (l *RedisLimiter) key(userID string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return "wingo:ratelimit:bet:" + userID + ":" + strconv.FormatInt(bucket, 10)
}

// Allow retorna false quando o usuário já esgotou a janela corrente
func (l *RedisLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	k := l.key(userID)

	pipe := l.r.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}
