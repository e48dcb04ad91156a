package models

import (
	"encoding/json"
	"time"
)

type AuditEvent struct {
	ID         string
	Type       string
	SubjectID  string
	ActorID    string
	Payload    json.RawMessage
	OccurredAt time.Time
	RecordedAt time.Time
}
