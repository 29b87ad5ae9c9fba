// Package moderation records admin actions in an append-only ledger.
package moderation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/pkg/logging"
)

// Ledger target type constants
const (
	TargetUser    = "user"
	TargetPost    = "post"
	TargetComment = "comment"
	TargetReport  = "report"
	TargetBoard   = "board"
)

// entryStore appends ledger rows; *db.ModerationRepository satisfies it
type entryStore interface {
	Create(ctx context.Context, entry *models.ModerationAction) error
}

// Ledger appends admin audit entries. Recording is best-effort: a
// failed write is logged but never fails the admin operation that
// produced it.
type Ledger struct {
	store  entryStore
	logger *zap.Logger
}

// NewLedger creates a moderation ledger
func NewLedger(store entryStore) *Ledger {
	return &Ledger{
		store:  store,
		logger: logging.GetLogger().With(zap.String("component", "moderation")),
	}
}

// Record appends one ledger entry
func (l *Ledger) Record(ctx context.Context, adminID, actionType, targetType, targetID string, meta map[string]interface{}) {
	metaJSON := "{}"
	if len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			metaJSON = string(raw)
		} else {
			l.logger.Error("failed to encode ledger meta",
				zap.String("action_type", actionType),
				zap.Error(err))
		}
	}

	entry := &models.ModerationAction{
		ID:         uuid.NewString(),
		AdminID:    adminID,
		ActionType: actionType,
		TargetType: targetType,
		TargetID:   targetID,
		Meta:       metaJSON,
		CreatedAt:  time.Now().UTC(),
	}

	if err := l.store.Create(ctx, entry); err != nil {
		l.logger.Error("failed to record moderation action",
			zap.String("admin_id", adminID),
			zap.String("action_type", actionType),
			zap.String("target_type", targetType),
			zap.String("target_id", targetID),
			zap.Error(err))
	}
}
