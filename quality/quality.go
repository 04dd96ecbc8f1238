// Package quality validates normalized documents against required-field and
// date-format invariants, producing a data-quality score and diagnostics.
// Nothing here is fatal: for a read-mostly lookup service, partial data beats
// no data, so problems surface as warnings and score deductions.
package quality

import (
	"fmt"
	"time"

	"github.com/registrylabs/rdapnorm"
)

// Score deductions. The score starts at 1.0 and floors at 0.0.
const (
	missingFieldWeight = 0.25
	invalidDateWeight  = 0.05
)

// Report is the outcome of one consistency check.
type Report struct {
	DataQuality   float64
	Warnings      []string
	MissingFields []string
}

// Check validates doc and returns its quality report. Required fields are
// domain, status, and nameservers; every event date must parse as ISO-8601
// (dates arrive already converted, so a zero Timestamp next to a non-empty
// Date means the conversion stage could not parse it).
func Check(doc *rdapnorm.NormalizedDocument) Report {
	r := Report{DataQuality: 1.0}

	if doc.Domain == "" {
		r.miss("domain")
	}
	if len(doc.Status) == 0 {
		r.miss("status")
	}
	if len(doc.Nameservers) == 0 {
		r.miss("nameservers")
	}

	for i, ev := range doc.Events {
		if ev.Date == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, ev.Date); err != nil {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("events.%d.date %q is not ISO-8601", i, ev.Date))
			r.deduct(invalidDateWeight)
		}
	}

	return r
}

func (r *Report) miss(field string) {
	r.MissingFields = append(r.MissingFields, field)
	r.Warnings = append(r.Warnings, "missing required field "+field)
	r.deduct(missingFieldWeight)
}

func (r *Report) deduct(w float64) {
	r.DataQuality -= w
	if r.DataQuality < 0 {
		r.DataQuality = 0
	}
}
