package mail

import (
	"encoding/json"
	"time"

	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced = "order.placed"
	headerEventType  = "x-event-type"
	headerTenantID   = "x-tenant-id"
)

// Envelope wraps every mail job written to the queue.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func newOrderPlacedEnvelope(job shared.OrderPlacedMail, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  EventOrderPlaced,
		OccurredAt: now,
		Payload:    payload,
	}, nil
}

func DecodeOrderPlaced(value []byte) (Envelope, shared.OrderPlacedMail, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, shared.OrderPlacedMail{}, err
	}
	var job shared.OrderPlacedMail
	if err := json.Unmarshal(env.Payload, &job); err != nil {
		return env, shared.OrderPlacedMail{}, err
	}
	return env, job, nil
}
