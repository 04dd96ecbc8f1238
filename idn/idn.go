// Package idn canonicalizes text in normalized documents: NFC for every
// string value, and Unicode conversion of punycode (xn--) domain labels.
package idn

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// domainKeys are the standardized keys whose values are DNS names and get the
// full lowercase-and-decode treatment.
var domainKeys = map[string]bool{
	"domain":   true,
	"hostname": true,
}

// ToUnicode converts a punycode LDH name to its Unicode form, lowercased.
// Names without xn-- labels pass through unchanged apart from lowercasing.
func ToUnicode(name string) (string, error) {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "xn--") {
		return lower, nil
	}
	u, err := idna.Lookup.ToUnicode(lower)
	if err != nil {
		return lower, fmt.Errorf("punycode conversion of %q: %w", name, err)
	}
	return norm.NFC.String(u), nil
}

// NormalizeDocument applies NFC to every string in doc (in place) and
// converts domain-name fields to Unicode. The original LDH form of the
// top-level domain is retained under "ldhName" when it differs. Returns
// warnings for labels that fail punycode conversion; those keep their
// lowercased LDH form, which is still a valid name.
func NormalizeDocument(doc map[string]any) []string {
	original, _ := doc["domain"].(string)

	var warnings []string
	normalizeValue(doc, &warnings)

	// Retain the LDH original for round-tripping and registry lookups, but
	// only when Unicode conversion actually changed the name.
	if original != "" {
		ldh := strings.ToLower(original)
		if converted, ok := doc["domain"].(string); ok && converted != ldh {
			doc["ldhName"] = ldh
		}
	}
	return warnings
}

func normalizeValue(v any, warnings *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			if s, ok := item.(string); ok {
				val[k] = normalizeString(k, s, warnings)
				continue
			}
			normalizeValue(item, warnings)
		}
	case []any:
		for i, item := range val {
			if s, ok := item.(string); ok {
				val[i] = norm.NFC.String(s)
				continue
			}
			normalizeValue(item, warnings)
		}
	}
}

func normalizeString(key, s string, warnings *[]string) string {
	s = norm.NFC.String(s)
	if !domainKeys[key] {
		return s
	}
	u, err := ToUnicode(s)
	if err != nil {
		*warnings = append(*warnings, err.Error())
		return strings.ToLower(s)
	}
	return u
}
