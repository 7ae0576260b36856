package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// SpecVersion is the envelope version stamped on every dispatched event.
const SpecVersion = "1.0"

// ExtCorrelationID is the extension attribute carrying the saga correlation id.
const ExtCorrelationID = "correlationid"

// Envelope is the wire unit handed to and received from the broker. Core
// attributes follow the CloudEvents 1.0 JSON format; extension attributes are
// flattened alongside them and treated as opaque strings.
type Envelope struct {
	SpecVersion     string
	ID              string
	Type            string
	Source          string
	DataContentType string
	Data            json.RawMessage
	Extensions      map[string]string
}

var reservedAttributes = map[string]struct{}{
	"specversion":     {},
	"id":              {},
	"type":            {},
	"source":          {},
	"datacontenttype": {},
	"data":            {},
}

// NewEnvelope wraps a serialized payload for dispatch. A fresh envelope id is
// generated and the correlation id, when present, is stamped as an extension.
func NewEnvelope(eventType, source string, data json.RawMessage, correlationID string) Envelope {
	envelope := Envelope{
		SpecVersion:     SpecVersion,
		ID:              uuid.NewString(),
		Type:            eventType,
		Source:          source,
		DataContentType: "application/json",
		Data:            data,
		Extensions:      map[string]string{},
	}
	if correlationID != "" {
		envelope.Extensions[ExtCorrelationID] = correlationID
	}
	return envelope
}

// CorrelationID returns the correlation id extension, if set.
func (e Envelope) CorrelationID() string {
	return e.Extensions[ExtCorrelationID]
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"specversion":     e.SpecVersion,
		"id":              e.ID,
		"type":            e.Type,
		"source":          e.Source,
		"datacontenttype": e.DataContentType,
	}
	if len(e.Data) > 0 {
		out["data"] = e.Data
	}
	for key, value := range e.Extensions {
		if _, reserved := reservedAttributes[key]; reserved {
			continue
		}
		out[key] = value
	}
	return json.Marshal(out)
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decodeString := func(key string, dst *string) error {
		value, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("envelope attribute %q: %w", key, err)
		}
		return nil
	}

	if err := decodeString("specversion", &e.SpecVersion); err != nil {
		return err
	}
	if err := decodeString("id", &e.ID); err != nil {
		return err
	}
	if err := decodeString("type", &e.Type); err != nil {
		return err
	}
	if err := decodeString("source", &e.Source); err != nil {
		return err
	}
	if err := decodeString("datacontenttype", &e.DataContentType); err != nil {
		return err
	}
	if value, ok := raw["data"]; ok {
		e.Data = value
	}

	e.Extensions = map[string]string{}
	for key, value := range raw {
		if _, reserved := reservedAttributes[key]; reserved {
			continue
		}
		var str string
		if err := json.Unmarshal(value, &str); err != nil {
			// Non-string attributes are not extensions; skip them.
			continue
		}
		e.Extensions[key] = str
	}
	return nil
}

// CausalContext annotates outgoing envelopes with causal-linkage attributes and
// restores them on the consuming side. Implementations come from the tracing
// layer; this package passes the attributes through untouched.
type CausalContext interface {
	Inject(ctx context.Context, extensions map[string]string)
	Extract(ctx context.Context, extensions map[string]string) context.Context
}

// NoopCausalContext is the default collaborator when no tracing layer is wired.
type NoopCausalContext struct{}

func (NoopCausalContext) Inject(context.Context, map[string]string) {}

func (NoopCausalContext) Extract(ctx context.Context, _ map[string]string) context.Context {
	return ctx
}
