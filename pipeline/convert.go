package pipeline

import (
	"fmt"
	"time"

	"github.com/registrylabs/rdapnorm"
)

// convert turns the generic working document into the typed canonical record.
// Conversion is lenient: fields of the wrong type are skipped with a warning
// rather than failing the run, because registries disagree about shapes far
// more often than they disagree about content.
func (r *run) convert(doc map[string]any) (*rdapnorm.NormalizedDocument, error) {
	out := &rdapnorm.NormalizedDocument{
		Domain:  asString(doc["domain"]),
		LDHName: asString(doc["ldhName"]),
		Handle:  asString(doc["handle"]),
		Status:  asStringSlice(doc["status"]),
	}

	for i, ns := range asSlice(doc["nameservers"]) {
		m, ok := ns.(map[string]any)
		if !ok {
			r.warnf("nameservers.%d is not an object, dropped", i)
			continue
		}
		server := rdapnorm.Nameserver{Hostname: asString(m["hostname"])}
		if addrs, ok := m["ipAddresses"].(map[string]any); ok {
			server.IPv4 = asStringSlice(addrs["ipv4"])
			server.IPv6 = asStringSlice(addrs["ipv6"])
		}
		if server.Hostname == "" && len(server.IPv4) == 0 && len(server.IPv6) == 0 {
			r.warnf("nameservers.%d carries no hostname or address, dropped", i)
			continue
		}
		out.Nameservers = append(out.Nameservers, server)
	}

	for i, ev := range asSlice(doc["events"]) {
		m, ok := ev.(map[string]any)
		if !ok {
			r.warnf("events.%d is not an object, dropped", i)
			continue
		}
		event := rdapnorm.Event{
			Action: asString(m["action"]),
			Date:   asString(m["date"]),
		}
		if event.Date != "" {
			if t, err := time.Parse(time.RFC3339, event.Date); err == nil {
				event.Timestamp = t.UnixMilli()
			}
			// Unparsable dates keep Timestamp 0; the consistency checker
			// reports them.
		}
		out.Events = append(out.Events, event)
	}

	for _, e := range asSlice(doc["entities"]) {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		ent := rdapnorm.Entity{
			Handle:  asString(m["handle"]),
			Roles:   asStringSlice(m["roles"]),
			Country: asString(m["country"]),
			Contact: contactFromMap(m["contact"]),
		}
		out.Entities = append(out.Entities, ent)
	}

	if sd, ok := doc["secureDNS"].(map[string]any); ok {
		secure := &rdapnorm.SecureDNS{}
		secure.Enabled, _ = sd["enabled"].(bool)
		for _, ds := range asSlice(sd["dsData"]) {
			m, ok := ds.(map[string]any)
			if !ok {
				continue
			}
			secure.DSData = append(secure.DSData, rdapnorm.DSRecord{
				KeyTag:     asInt(m["keyTag"]),
				Algorithm:  asInt(m["algorithm"]),
				Digest:     asString(m["digest"]),
				DigestType: asInt(m["digestType"]),
			})
		}
		out.SecureDNS = secure
	}

	return out, nil
}

func contactFromMap(v any) *rdapnorm.Contact {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	c := &rdapnorm.Contact{
		Name:         asString(m["name"]),
		Organization: asString(m["organization"]),
		Emails:       asTypedValues(m["emails"]),
		Phones:       asTypedValues(m["phones"]),
	}
	for _, a := range asSlice(m["addresses"]) {
		am, ok := a.(map[string]any)
		if !ok {
			continue
		}
		c.Addresses = append(c.Addresses, rdapnorm.Address{
			Type:       asString(am["type"]),
			Street:     asString(am["street"]),
			City:       asString(am["city"]),
			State:      asString(am["state"]),
			PostalCode: asString(am["postalCode"]),
			Country:    asString(am["country"]),
		})
	}
	if c.Name == "" && c.Organization == "" &&
		len(c.Emails) == 0 && len(c.Phones) == 0 && len(c.Addresses) == 0 {
		// Redaction may have emptied the contact; absent beats
		// present-but-empty.
		return nil
	}
	return c
}

func (r *run) warnf(format string, args ...any) {
	r.warn(fmt.Sprintf(format, args...))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asStringSlice(v any) []string {
	var out []string
	for _, item := range asSlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asTypedValues(v any) []rdapnorm.TypedValue {
	var out []rdapnorm.TypedValue
	for _, item := range asSlice(v) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if val := asString(m["value"]); val != "" {
			out = append(out, rdapnorm.TypedValue{Value: val, Type: asString(m["type"])})
		}
	}
	return out
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
