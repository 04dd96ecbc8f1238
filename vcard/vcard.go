// Package vcard converts the nested array-based jCard format embedded in RDAP
// entity records (RFC 7095 "vcardArray") into structured contact records.
//
// Contact data is best-effort: malformed input yields an empty result plus
// warnings, never an error. Unknown property names are skipped for forward
// compatibility.
package vcard

import (
	"fmt"

	"github.com/registrylabs/rdapnorm"
)

// adr values are 7-component arrays; these are the positions we keep.
// Components 0 (post office box) and 1 (extended address) are deprecated by
// RFC 6350 and dropped.
const (
	adrStreet     = 2
	adrCity       = 3
	adrState      = 4
	adrPostalCode = 5
	adrCountry    = 6
	adrComponents = 7
)

// Extract converts a decoded vcardArray value into a Contact. It returns nil
// when the input holds no usable contact data, so absence of a vCard is
// absence of a contact — never an empty-but-present object, which would make
// redaction signaling ambiguous downstream.
func Extract(v any) (*rdapnorm.Contact, []string) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		if v == nil {
			return nil, nil
		}
		return nil, []string{"vcardArray is not a two-element array"}
	}
	if tag, _ := arr[0].(string); tag != "vcard" {
		return nil, []string{fmt.Sprintf("vcardArray tag %q is not \"vcard\"", arr[0])}
	}
	props, ok := arr[1].([]any)
	if !ok {
		return nil, []string{"vcardArray property list is not an array"}
	}

	var (
		c        rdapnorm.Contact
		warnings []string
	)
	for i, p := range props {
		prop, ok := p.([]any)
		if !ok || len(prop) < 4 {
			warnings = append(warnings, fmt.Sprintf("vcard property %d has wrong arity", i))
			continue
		}
		name, _ := prop[0].(string)
		params, _ := prop[1].(map[string]any)
		value := prop[3]

		switch name {
		case "fn":
			if s, ok := value.(string); ok && s != "" {
				c.Name = s
			}
		case "org":
			// org values may be structured (array of units); keep the first.
			switch ov := value.(type) {
			case string:
				c.Organization = ov
			case []any:
				if len(ov) > 0 {
					if s, ok := ov[0].(string); ok {
						c.Organization = s
					}
				}
			}
		case "email":
			if s, ok := value.(string); ok && s != "" {
				c.Emails = append(c.Emails, rdapnorm.TypedValue{Value: s, Type: paramType(params)})
			}
		case "tel":
			if s, ok := value.(string); ok && s != "" {
				c.Phones = append(c.Phones, rdapnorm.TypedValue{Value: s, Type: paramType(params)})
			}
		case "adr":
			addr, warn := extractAdr(value, params)
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("vcard property %d: %s", i, warn))
			}
			if addr != nil {
				c.Addresses = append(c.Addresses, *addr)
			}
		default:
			// "version", "kind", "lang", extensions: ignored, not errors.
		}
	}

	if c.Name == "" && c.Organization == "" &&
		len(c.Emails) == 0 && len(c.Phones) == 0 && len(c.Addresses) == 0 {
		return nil, warnings
	}
	return &c, warnings
}

// extractAdr maps a 7-component adr value positionally. Missing or empty
// components stay absent rather than becoming empty strings, which would
// read as false-positive PII matches downstream.
func extractAdr(value any, params map[string]any) (*rdapnorm.Address, string) {
	comps, ok := value.([]any)
	if !ok {
		return nil, "adr value is not an array"
	}
	if len(comps) != adrComponents {
		return nil, fmt.Sprintf("adr value has %d components, want %d", len(comps), adrComponents)
	}

	component := func(i int) string {
		switch cv := comps[i].(type) {
		case string:
			return cv
		case []any:
			// Multi-value components (e.g. two street lines) join on ", ".
			var out string
			for _, item := range cv {
				if s, ok := item.(string); ok && s != "" {
					if out != "" {
						out += ", "
					}
					out += s
				}
			}
			return out
		default:
			return ""
		}
	}

	addr := rdapnorm.Address{
		Type:       paramType(params),
		Street:     component(adrStreet),
		City:       component(adrCity),
		State:      component(adrState),
		PostalCode: component(adrPostalCode),
		Country:    component(adrCountry),
	}
	if addr == (rdapnorm.Address{Type: addr.Type}) {
		return nil, ""
	}
	return &addr, ""
}

// paramType extracts the "type" parameter ("work", "home", ...). jCard allows
// both a single string and an array of strings; the first wins.
func paramType(params map[string]any) string {
	if params == nil {
		return ""
	}
	switch tv := params["type"].(type) {
	case string:
		return tv
	case []any:
		if len(tv) > 0 {
			if s, ok := tv[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
