package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/agentauth/core"
)

// DecisionLog records authentication decisions to a capped Redis list so
// recent outcomes are visible across instances without a database.
type DecisionLog struct {
	rdb *redis.Client
	key string
	max int64
	ttl time.Duration
}

// NewDecisionLog creates a Redis-backed decision log writing to a single
// list under key. key defaults to "auth:decisions", max (list cap) to 10000,
// ttl to 24h.
func NewDecisionLog(rdb *redis.Client, key string, max int64, ttl time.Duration) *DecisionLog {
	if key == "" {
		key = "auth:decisions"
	}
	if max <= 0 {
		max = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DecisionLog{rdb: rdb, key: key, max: max, ttl: ttl}
}

func (l *DecisionLog) LogDecision(ctx context.Context, ev core.DecisionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := l.rdb.TxPipeline()
	pipe.LPush(ctx, l.key, b)
	pipe.LTrim(ctx, l.key, 0, l.max-1)
	pipe.Expire(ctx, l.key, l.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n of the most recent events, newest first.
func (l *DecisionLog) Recent(ctx context.Context, n int64) ([]core.DecisionEvent, error) {
	vals, err := l.rdb.LRange(ctx, l.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]core.DecisionEvent, 0, len(vals))
	for _, v := range vals {
		var ev core.DecisionEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
