// Package ratelimit implements fixed-window admission control over an
// atomic counter store. The store's increment is the race-free
// check-and-increment; the limiter only compares the returned count
// against the per-action budget.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agoraboard/agora/pkg/config"
	"github.com/agoraboard/agora/pkg/logging"
)

// Action enumerates rate-limited operations
type Action string

// Rate-limited actions
const (
	ActionSignup        Action = "signup"
	ActionLogin         Action = "login"
	ActionCreatePost    Action = "create_post"
	ActionCreateComment Action = "create_comment"
	ActionReport        Action = "report"
)

// CounterStore is an atomic windowed counter. Incr must increment the
// key atomically and start the key's expiry window on the first hit.
type CounterStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter admits or rejects actions per (action, actor key) pair
type Limiter struct {
	store  CounterStore
	window time.Duration
	maxima map[Action]int64
	logger *zap.Logger
}

// New creates a limiter from config. A nil store makes the limiter fail
// open: every consume is admitted with a warning log.
func New(store CounterStore, cfg *config.RateLimitConfig) *Limiter {
	return &Limiter{
		store:  store,
		window: cfg.Window(),
		maxima: map[Action]int64{
			ActionSignup:        int64(cfg.MaxSignup),
			ActionLogin:         int64(cfg.MaxLogin),
			ActionCreatePost:    int64(cfg.MaxCreatePost),
			ActionCreateComment: int64(cfg.MaxCreateComment),
			ActionReport:        int64(cfg.MaxReport),
		},
		logger: logging.GetLogger().With(zap.String("component", "ratelimit")),
	}
}

// Consume spends one unit of the actor's budget for the action. Returns
// true when admitted. Unknown actions are always admitted.
func (l *Limiter) Consume(ctx context.Context, action Action, actorKey string) (bool, error) {
	max, ok := l.maxima[action]
	if !ok {
		return true, nil
	}

	if l.store == nil {
		l.logger.Warn("rate limit store unavailable, failing open",
			zap.String("action", string(action)))
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", action, actorKey)
	count, err := l.store.IncrWindow(ctx, key, l.window)
	if err != nil {
		return false, err
	}
	return count <= max, nil
}

// ConsumeAll spends budget on every given key and admits only when all
// of them are within budget. Gated endpoints pass two keys (per-IP plus
// per-user or per-email) so no single dimension can be farmed.
func (l *Limiter) ConsumeAll(ctx context.Context, action Action, actorKeys ...string) (bool, error) {
	allowed := true
	for _, key := range actorKeys {
		ok, err := l.Consume(ctx, action, key)
		if err != nil {
			return false, err
		}
		if !ok {
			allowed = false
		}
	}
	return allowed, nil
}

// ActorKey hashes a raw identity string (ip:<ip>, user:<id>,
// email:<addr>) so the counter store never holds PII in the clear.
func ActorKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
