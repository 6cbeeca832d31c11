package redisad

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estate_reviews/internal/domain"
)

// SubmissionLog keeps one sorted set per hashed IP, scored by insert time in
// milliseconds, so every API instance sees the same trailing window.
type SubmissionLog struct {
	c         *redis.Client
	retention time.Duration
}

func NewSubmissionLog(c *redis.Client, retention time.Duration) *SubmissionLog {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &SubmissionLog{c: c, retention: retention}
}

func logKey(ipHash string) string { return "sublog:" + ipHash }

func (l *SubmissionLog) Append(ctx context.Context, e domain.SubmissionLogEntry) error {
	key := logKey(e.IPHash)
	at := e.InsertedAt.UnixMilli()
	cutoff := e.InsertedAt.Add(-l.retention).UnixMilli()
	_, err := l.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: float64(at), Member: uuid.NewString()})
		p.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		p.Expire(ctx, key, l.retention)
		return nil
	})
	return err
}

func (l *SubmissionLog) CountSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	n, err := l.c.ZCount(ctx, logKey(ipHash), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
