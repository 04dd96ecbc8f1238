package pii

import (
	"regexp"
	"strings"

	"github.com/registrylabs/rdapnorm"
)

// Value patterns. Email matches anywhere in a string; phone and address are
// anchored so that incidental digit runs (handles, DS digests) don't match.
var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	// Phone: optional +, then 7+ digits with common separators. ISO-8601
	// dates also look like digit runs with dashes, so isoDatePattern values
	// are excluded before this is consulted.
	phonePattern   = regexp.MustCompile(`^\+?[0-9][0-9\s().\-]{5,}[0-9]$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

	// Street address: house number plus a street designator.
	addressPattern = regexp.MustCompile(`(?i)\b\d+\s+[^,\n]{1,60}\b(street|st\.?|avenue|ave\.?|road|rd\.?|boulevard|blvd\.?|lane|ln\.?|drive|dr\.?|court|ct\.?|place|pl\.?|way|suite)\b`)
)

// Key classification. Key-based detection catches fields whose values are not
// regexable (personal names) and fields that are PII by position regardless
// of value shape.
var keyTypes = map[string]rdapnorm.PIIType{
	"email":      rdapnorm.PIIEmail,
	"emails":     rdapnorm.PIIEmail,
	"tel":        rdapnorm.PIIPhone,
	"phone":      rdapnorm.PIIPhone,
	"phones":     rdapnorm.PIIPhone,
	"voice":      rdapnorm.PIIPhone,
	"fax":        rdapnorm.PIIPhone,
	"adr":        rdapnorm.PIIAddress,
	"address":    rdapnorm.PIIAddress,
	"addresses":  rdapnorm.PIIAddress,
	"street":     rdapnorm.PIIAddress,
	"city":       rdapnorm.PIIAddress,
	"state":      rdapnorm.PIIAddress,
	"postalcode": rdapnorm.PIIAddress,
	"fn":         rdapnorm.PIIName,
	"name":       rdapnorm.PIIName,
}

// keyType classifies a map key, lowercased for registry spelling variations.
func keyType(key string) (rdapnorm.PIIType, bool) {
	t, ok := keyTypes[strings.ToLower(key)]
	return t, ok
}
