package eventbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ProtocolVersion identifies the bridge contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// EventSchemaVersion is the currently supported inbound event version.
	EventSchemaVersion = 1
)

// Event types a host may post.
const (
	TypeDocumentChanged = "document_changed"
	TypeSliderEdited    = "slider_edited"
	TypeOperator        = "operator"
)

// Event captures a single notification emitted by the host application.
type Event struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	Sequence   int64           `json:"sequence"`
	Type       string          `json:"type"`
	Object     string          `json:"object,omitempty"`
	Attribute  string          `json:"attribute,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ClientTime time.Time       `json:"client_time"`
	ServerTime time.Time       `json:"server_time"`
}

// OperatorPayload is the payload of an operator event: an entry point name
// and its arguments.
type OperatorPayload struct {
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// Normalize applies defaults and canonical formatting before validation.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Version == 0 {
		e.Version = EventSchemaVersion
	}
	e.EventID = strings.TrimSpace(e.EventID)
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.Object = strings.TrimSpace(e.Object)
	e.Attribute = strings.TrimSpace(e.Attribute)
}

// StampServerTime overwrites ServerTime with the supplied clock reading (UTC).
func (e *Event) StampServerTime(now time.Time) {
	if e == nil {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	e.ServerTime = now.UTC()
}

// Validate enforces baseline schema requirements for incoming events.
func (e Event) Validate() error {
	if e.Version != EventSchemaVersion {
		return fmt.Errorf("version %d not supported", e.Version)
	}
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	switch e.Type {
	case TypeDocumentChanged:
	case TypeSliderEdited:
		if e.Attribute == "" {
			return errors.New("attribute is required for slider_edited")
		}
		if e.Value == nil {
			return errors.New("value is required for slider_edited")
		}
	case TypeOperator:
		op, err := e.Operator()
		if err != nil {
			return err
		}
		if op.Operation == "" {
			return errors.New("payload.operation is required for operator")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("type %q not supported", e.Type)
	}
	return nil
}

// Operator decodes the payload of an operator event.
func (e Event) Operator() (OperatorPayload, error) {
	var op OperatorPayload
	if len(e.Payload) == 0 {
		return op, errors.New("payload is required for operator")
	}
	if err := json.Unmarshal(e.Payload, &op); err != nil {
		return op, fmt.Errorf("payload: %w", err)
	}
	op.Operation = strings.TrimSpace(op.Operation)
	return op, nil
}

// EventProcessor consumes validated events.
type EventProcessor interface {
	HandleEvent(Event) error
}

// EventProcessorFunc adapts a function into an EventProcessor.
type EventProcessorFunc func(Event) error

// HandleEvent executes f(e).
func (f EventProcessorFunc) HandleEvent(e Event) error {
	if f == nil {
		return nil
	}
	return f(e)
}

// Logger records bridge status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}
