// Package opportunities provides the catalyst opportunity model, its derived
// analytics, and the deduplication/ranking step over discovery batches.
package opportunities

import (
	"strings"
	"time"

	"github.com/aristath/catalyst/internal/domain"
)

// Known catalyst types. The vocabulary is deliberately open: unrecognized
// values are accepted as opaque strings, never rejected, because the set of
// catalyst kinds is expected to grow.
const (
	CatalystFDAApproval = "FDA_APPROVAL"
	CatalystSECFiling   = "SEC_FILING"
	CatalystEarnings    = "EARNINGS"
	CatalystMergers     = "M_AND_A"
	CatalystPartnership = "PARTNERSHIP"
)

// Record is one validated catalyst event candidate. Instances are immutable
// by convention: they are only created through NewRecord, and no code in this
// module mutates a Record after construction. Derived values (urgency,
// risk/reward) are computed on demand and never cached on the record, so they
// always reflect the evaluation-time clock.
type Record struct {
	Ticker            string      `json:"ticker" validate:"required,max=6"`
	CatalystType      string      `json:"catalyst_type"`
	EventDate         time.Time   `json:"event_date"`
	ConfidenceScore   float64     `json:"confidence_score" validate:"gte=0,lte=1"`
	EstimatedUpside   *float64    `json:"estimated_upside"`
	EstimatedDownside *float64    `json:"estimated_downside"`
	Source            string      `json:"source"`
	SourceURL         string      `json:"source_url" validate:"httpurl"`
	Headline          string      `json:"headline"`
	Details           *domain.Map `json:"details"`
	DiscoveredAt      time.Time   `json:"discovered_at"`
}

// NewRecord validates and normalizes one catalyst candidate. The ticker is
// trimmed and upper-cased; the details map defaults to empty. On any
// violation the zero Record and a domain.ValidationError are returned -
// invalid input never produces a half-formed record.
func NewRecord(r Record) (Record, error) {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	if r.Details == nil {
		r.Details = domain.NewMap()
	}

	if err := domain.ValidateStruct("opportunity", r); err != nil {
		return Record{}, err
	}

	return r, nil
}
