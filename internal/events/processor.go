package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"farmmarket/internal/models"
)

type AuditStore interface {
	Record(ctx context.Context, event models.AuditEvent) error
}

// Processor writes every known marketplace event to the audit trail. The
// stream entry id doubles as the audit row id, so redelivery is harmless.
type Processor struct {
	audit  AuditStore
	logger zerolog.Logger
}

func NewProcessor(audit AuditStore, logger zerolog.Logger) *Processor {
	return &Processor{
		audit:  audit,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, data, err := Decode(msg.Values)
	if err != nil {
		// A malformed entry will never decode; log it and let it be acked.
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable event")
		return nil
	}

	if !event.Type.Known() {
		p.logger.Warn().Str("type", string(event.Type)).Str("message_id", msg.ID).Msg("unknown event type")
		return nil
	}

	if err := p.audit.Record(ctx, models.AuditEvent{
		ID:         msg.ID,
		Type:       string(event.Type),
		SubjectID:  event.SubjectID,
		ActorID:    event.ActorID,
		Payload:    data,
		OccurredAt: event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	p.logger.Debug().
		Str("type", string(event.Type)).
		Str("subject", event.SubjectID).
		Str("message_id", msg.ID).
		Msg("audit event recorded")
	return nil
}
