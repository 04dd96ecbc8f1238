package pii

import (
	"strings"

	"github.com/registrylabs/rdapnorm"
)

// Policy selects which PII classes are detected for a jurisdiction. The
// detector itself is jurisdiction-agnostic; callers derive a Policy from the
// request's NormalizationContext.
type Policy struct {
	Jurisdiction string
	Types        []rdapnorm.PIIType
}

func (p Policy) includes(t rdapnorm.PIIType) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

var allTypes = []rdapnorm.PIIType{
	rdapnorm.PIIName, rdapnorm.PIIEmail, rdapnorm.PIIPhone, rdapnorm.PIIAddress,
}

// gdprJurisdictions covers the EU27 plus EEA members and the UK, along with
// the aggregate codes registries use in practice.
var gdprJurisdictions = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
	"IS": true, "LI": true, "NO": true, "GB": true, "UK": true,
	"EU": true, "EEA": true, "GDPR": true,
}

// PolicyFor returns the detection policy for a jurisdiction code. GDPR
// jurisdictions protect all four classes; the US carve-out leaves postal
// addresses detectable but unprotected. Unknown jurisdictions get the full
// set — when in doubt, detect everything and let redaction policy decide.
func PolicyFor(jurisdiction string) Policy {
	j := strings.ToUpper(strings.TrimSpace(jurisdiction))
	switch {
	case gdprJurisdictions[j]:
		return Policy{Jurisdiction: j, Types: allTypes}
	case j == "US":
		return Policy{Jurisdiction: j, Types: []rdapnorm.PIIType{
			rdapnorm.PIIName, rdapnorm.PIIEmail, rdapnorm.PIIPhone,
		}}
	default:
		return Policy{Jurisdiction: j, Types: allTypes}
	}
}
