package opportunities

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/catalyst/internal/domain"
)

// Projection is the JSON-compatible wire form of a Record. Timestamps are
// ISO-8601 strings rendered with full sub-second precision; this is the only
// wire format the core defines, used between discovery and ranking when they
// run in separate processes.
type Projection struct {
	Ticker            string      `json:"ticker"`
	CatalystType      string      `json:"catalyst_type"`
	EventDate         string      `json:"event_date"`
	ConfidenceScore   float64     `json:"confidence_score"`
	EstimatedUpside   *float64    `json:"estimated_upside"`
	EstimatedDownside *float64    `json:"estimated_downside"`
	Source            string      `json:"source"`
	SourceURL         string      `json:"source_url"`
	Headline          string      `json:"headline"`
	Details           *domain.Map `json:"details"`
	DiscoveredAt      string      `json:"discovered_at"`
}

// SerializationError is returned by the deserializing half when a required
// key is absent or a value has the wrong shape. It names the malformed key;
// validation failures past the shape check surface as ValidationError
// instead.
type SerializationError struct {
	Key    string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot deserialize opportunity: key %q %s", e.Key, e.Reason)
}

// requiredKeys are the projection keys that must be present on the wire.
// The optional upside/downside estimates and free-form fields may be absent.
var requiredKeys = []string{"ticker", "event_date", "confidence_score", "source_url", "discovered_at"}

// ToProjection produces the lossless wire form of a record.
func ToProjection(r Record) Projection {
	return Projection{
		Ticker:            r.Ticker,
		CatalystType:      r.CatalystType,
		EventDate:         r.EventDate.Format(time.RFC3339Nano),
		ConfidenceScore:   r.ConfidenceScore,
		EstimatedUpside:   r.EstimatedUpside,
		EstimatedDownside: r.EstimatedDownside,
		Source:            r.Source,
		SourceURL:         r.SourceURL,
		Headline:          r.Headline,
		Details:           r.Details,
		DiscoveredAt:      r.DiscoveredAt.Format(time.RFC3339Nano),
	}
}

// FromProjection reconstructs a record through the validating factory, so
// invalid serialized data fails exactly the way invalid construction input
// does. Shape problems (bad timestamps) are reported as SerializationError;
// rule violations propagate as ValidationError.
func FromProjection(p Projection) (Record, error) {
	eventDate, err := time.Parse(time.RFC3339Nano, p.EventDate)
	if err != nil {
		return Record{}, &SerializationError{Key: "event_date", Reason: "is not an ISO-8601 timestamp"}
	}
	discoveredAt, err := time.Parse(time.RFC3339Nano, p.DiscoveredAt)
	if err != nil {
		return Record{}, &SerializationError{Key: "discovered_at", Reason: "is not an ISO-8601 timestamp"}
	}

	return NewRecord(Record{
		Ticker:            p.Ticker,
		CatalystType:      p.CatalystType,
		EventDate:         eventDate,
		ConfidenceScore:   p.ConfidenceScore,
		EstimatedUpside:   p.EstimatedUpside,
		EstimatedDownside: p.EstimatedDownside,
		Source:            p.Source,
		SourceURL:         p.SourceURL,
		Headline:          p.Headline,
		Details:           p.Details,
		DiscoveredAt:      discoveredAt,
	})
}

// EncodeRecord renders a record as its JSON wire form.
func EncodeRecord(r Record) ([]byte, error) {
	return json.Marshal(ToProjection(r))
}

// DecodeRecord parses the JSON wire form and reconstructs the record via the
// validating factory. Missing required keys and shape mismatches are
// reported as SerializationError naming the key.
func DecodeRecord(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, &SerializationError{Key: ".", Reason: "is not a JSON object"}
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return Record{}, &SerializationError{Key: key, Reason: "is missing"}
		}
	}

	var p Projection
	if err := json.Unmarshal(data, &p); err != nil {
		return Record{}, &SerializationError{Key: malformedKey(raw, err), Reason: "has the wrong shape"}
	}

	return FromProjection(p)
}

// DecodeFields reconstructs a record from an untyped field set, the form in
// which discovery collaborators hand over candidates.
func DecodeFields(fields map[string]any) (Record, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return Record{}, &SerializationError{Key: ".", Reason: "is not JSON-compatible"}
	}
	return DecodeRecord(data)
}

// malformedKey pins a JSON type error to the projection key it occurred on.
func malformedKey(raw map[string]json.RawMessage, err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	// Fall back to probing each key individually, in field order.
	probe := Projection{}
	probes := []struct {
		key string
		dst any
	}{
		{"ticker", &probe.Ticker},
		{"catalyst_type", &probe.CatalystType},
		{"event_date", &probe.EventDate},
		{"confidence_score", &probe.ConfidenceScore},
		{"estimated_upside", &probe.EstimatedUpside},
		{"estimated_downside", &probe.EstimatedDownside},
		{"source", &probe.Source},
		{"source_url", &probe.SourceURL},
		{"headline", &probe.Headline},
		{"details", &probe.Details},
		{"discovered_at", &probe.DiscoveredAt},
	}
	for _, p := range probes {
		rawVal, ok := raw[p.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawVal, p.dst); err != nil {
			return p.key
		}
	}
	return "?"
}
