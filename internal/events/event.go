package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	UserRegistered  Type = "user.registered"
	FarmerApproved  Type = "farmer.approved"
	ProductCreated  Type = "product.created"
	ProductUpdated  Type = "product.updated"
	ProductDeleted  Type = "product.deleted"
	ApprovalBacklog Type = "approval.backlog"
)

func (t Type) Known() bool {
	switch t {
	case UserRegistered, FarmerApproved, ProductCreated, ProductUpdated, ProductDeleted, ApprovalBacklog:
		return true
	default:
		return false
	}
}

type Event struct {
	Type       Type
	SubjectID  string
	ActorID    string
	Data       map[string]any
	OccurredAt time.Time
}

// streamPayload is the flat string form stored in a redis stream entry.
type streamPayload struct {
	Type       string `json:"type"`
	Subject    string `json:"subject"`
	Actor      string `json:"actor"`
	Data       string `json:"data"`
	OccurredAt string `json:"occurredAt"`
}

func (e Event) values() (map[string]any, error) {
	data := []byte("{}")
	if len(e.Data) > 0 {
		var err error
		data, err = json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	return map[string]any{
		"type":       string(e.Type),
		"subject":    e.SubjectID,
		"actor":      e.ActorID,
		"data":       string(data),
		"occurredAt": occurred.UTC().Format(time.RFC3339Nano),
	}, nil
}

// Decode rebuilds an event from stream entry values. The data field is
// returned raw so it can be stored without a second round trip.
func Decode(values map[string]interface{}) (Event, json.RawMessage, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Event{}, nil, err
	}
	var payload streamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Event{}, nil, err
	}
	if payload.Type == "" {
		return Event{}, nil, fmt.Errorf("missing event type")
	}

	occurred, err := time.Parse(time.RFC3339Nano, payload.OccurredAt)
	if err != nil {
		return Event{}, nil, fmt.Errorf("parse occurredAt: %w", err)
	}

	data := json.RawMessage(payload.Data)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Event{}, nil, fmt.Errorf("decode data: %w", err)
	}

	return Event{
		Type:       Type(payload.Type),
		SubjectID:  payload.Subject,
		ActorID:    payload.Actor,
		Data:       fields,
		OccurredAt: occurred,
	}, data, nil
}
