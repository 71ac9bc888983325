package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/pkg/errors"
)

const (
	SourceService = "toxinsight"
	SchemaVersion = "v1"

	HeaderEventType     = "event_type"
	HeaderSourceService = "source_service"
	HeaderSchemaVersion = "schema_version"
	HeaderRequestID     = "request_id"
)

// EventEnvelope wraps a domain event on the wire.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope marshals ev into an envelope.
func NewEventEnvelope(ev *molecule.Event) (*EventEnvelope, error) {
	if ev == nil {
		return nil, errors.New(errors.ErrCodeValidation, "event required")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event")
	}
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(ev.Type),
		Source:        SourceService,
		Timestamp:     ts,
		SchemaVersion: SchemaVersion,
		RequestID:     ev.RequestID,
		Payload:       data,
	}, nil
}

// DecodeEvent unmarshals the payload back into a domain event.
func (e *EventEnvelope) DecodeEvent() (*molecule.Event, error) {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil, errors.New(errors.ErrCodeValidation, "empty payload")
	}
	var ev molecule.Event
	if err := json.Unmarshal(e.Payload, &ev); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event")
	}
	return &ev, nil
}

// ToMessage keys the record by SMILES so that events for one structure stay
// on one partition.
func (e *EventEnvelope) ToMessage(key string) (*Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		HeaderEventType:     e.EventType,
		HeaderSourceService: e.Source,
		HeaderSchemaVersion: e.SchemaVersion,
	}
	if e.RequestID != "" {
		headers[HeaderRequestID] = e.RequestID
	}
	return &Message{
		Key:       []byte(key),
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// EventPublisher adapts a Producer to molecule.EventPublisher.
type EventPublisher struct {
	producer *Producer
}

var _ molecule.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher wraps p.
func NewEventPublisher(p *Producer) *EventPublisher {
	return &EventPublisher{producer: p}
}

// Publish wraps ev in an envelope and writes it.
func (p *EventPublisher) Publish(ctx context.Context, ev *molecule.Event) error {
	env, err := NewEventEnvelope(ev)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(ev.SMILES)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

//Personal.AI order the ending
