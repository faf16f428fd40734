package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stechuhr/attendance-engine/store/sqlite"
)

// audit appends an audit record without blocking the calling operation. A
// failed audit write is logged and swallowed: it must never roll back or
// mask a successful accounting mutation.
func (s *Service) audit(actorID, action, targetType, targetID string, payload any) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit payload not serializable")
		payloadJSON = nil
	}

	rec := sqlite.AuditRecord{
		ID:          uuid.NewString(),
		ActorUserID: actorID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		PayloadJSON: string(payloadJSON),
		CreatedAt:   s.now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.InsertAudit(ctx, rec); err != nil {
			s.log.Warn().Err(err).Str("action", action).Msg("audit write failed")
		}
	}()
}

// RecentAudits exposes the newest audit records for the admin screen.
func (s *Service) RecentAudits(ctx context.Context, limit int) ([]sqlite.AuditRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.RecentAudits(ctx, limit)
}
