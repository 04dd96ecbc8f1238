package pii

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/registrylabs/rdapnorm"
)

func detectPaths(t *testing.T, policy Policy, raw string) map[string]rdapnorm.PIIType {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}
	got := map[string]rdapnorm.PIIType{}
	for _, f := range New(policy).Detect(doc) {
		got[rdapnorm.JoinPath(f.Path)] = f.Type
	}
	return got
}

func TestDetectKeyBased(t *testing.T) {
	raw := `{
		"entities": [{
			"contact": {
				"fn": "Jane Operator",
				"emails": [{"value": "jane@example.net", "type": "work"}],
				"phones": [{"value": "+1.5551234567", "type": "voice"}],
				"addresses": [{"street": "123 Main St", "city": "Springfield"}]
			}
		}]
	}`
	got := detectPaths(t, PolicyFor("EU"), raw)

	want := map[string]rdapnorm.PIIType{
		"entities.0.contact.fn":                 rdapnorm.PIIName,
		"entities.0.contact.emails.0.value":     rdapnorm.PIIEmail,
		"entities.0.contact.phones.0.value":     rdapnorm.PIIPhone,
		"entities.0.contact.addresses.0.street": rdapnorm.PIIAddress,
		"entities.0.contact.addresses.0.city":   rdapnorm.PIIAddress,
	}
	for path, typ := range want {
		if got[path] != typ {
			t.Errorf("path %s: got %q, want %q", path, got[path], typ)
		}
	}
}

func TestDetectValueBased(t *testing.T) {
	// PII smuggled under keys the key rules do not know.
	raw := `{
		"remarks": [{"description": "contact admin@example.org for details"}],
		"customField": "+44 20 7946 0000"
	}`
	got := detectPaths(t, PolicyFor("EU"), raw)

	if got["remarks.0.description"] != rdapnorm.PIIEmail {
		t.Errorf("embedded email not detected: %v", got)
	}
	if got["customField"] != rdapnorm.PIIPhone {
		t.Errorf("free-standing phone not detected: %v", got)
	}
}

func TestDetectNameOnlyInsideEntities(t *testing.T) {
	// A top-level "name" labels the network or registration, not a person.
	raw := `{
		"name": "EXAMPLE-NET",
		"entities": [{"contact": {"name": "Jane Operator"}}]
	}`
	got := detectPaths(t, PolicyFor("EU"), raw)

	if _, flagged := got["name"]; flagged {
		t.Error("top-level name flagged as PII")
	}
	if got["entities.0.contact.name"] != rdapnorm.PIIName {
		t.Errorf("entity name not flagged: %v", got)
	}
}

func TestDetectUnicodeEvasion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		path string
		typ  rdapnorm.PIIType
	}{
		{
			name: "fullwidth at sign",
			raw:  `{"note": "jane＠example.net"}`,
			path: "note",
			typ:  rdapnorm.PIIEmail,
		},
		{
			name: "zero width space inside email",
			raw:  `{"note": "jane@exam` + "\u200b" + `ple.net"}`,
			path: "note",
			typ:  rdapnorm.PIIEmail,
		},
		{
			name: "word joiner inside phone",
			raw:  `{"note": "+1555` + "\u2060" + `1234567"}`,
			path: "note",
			typ:  rdapnorm.PIIPhone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectPaths(t, PolicyFor("EU"), tt.raw)
			if got[tt.path] != tt.typ {
				t.Errorf("got %v, want %s at %s", got, tt.typ, tt.path)
			}
		})
	}
}

func TestDetectSentinelExempt(t *testing.T) {
	// Redaction sentinels must not re-trigger detection, or the
	// post-condition scan could never pass on partially redacted docs.
	raw := `{
		"entities": [{"contact": {
			"emails": [{"value": "REDACTED@redacted.invalid"}],
			"fn": "REDACTED"
		}}]
	}`
	got := detectPaths(t, PolicyFor("EU"), raw)
	if len(got) != 0 {
		t.Errorf("sentinels flagged as PII: %v", got)
	}
}

func TestDetectNotPhone(t *testing.T) {
	raw := `{
		"events": [{"date": "1995-08-14T04:00:00Z"}],
		"nameservers": [{"ipAddresses": {"ipv4": ["192.0.2.1"]}}],
		"port43": "whois.example.net"
	}`
	got := detectPaths(t, PolicyFor("EU"), raw)
	if len(got) != 0 {
		t.Errorf("non-PII digit runs flagged: %v", got)
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		jurisdiction string
		wantTypes    []rdapnorm.PIIType
	}{
		{"EU", allTypes},
		{"de", allTypes},
		{" gb ", allTypes},
		{"GDPR", allTypes},
		{"US", []rdapnorm.PIIType{rdapnorm.PIIName, rdapnorm.PIIEmail, rdapnorm.PIIPhone}},
		{"", allTypes},        // unknown: fail safe, detect everything
		{"ZZ", allTypes},      // unknown code
		{"BR", allTypes},      // no carve-out defined
	}
	for _, tt := range tests {
		t.Run("jurisdiction "+tt.jurisdiction, func(t *testing.T) {
			p := PolicyFor(tt.jurisdiction)
			if len(p.Types) != len(tt.wantTypes) {
				t.Fatalf("PolicyFor(%q).Types = %v, want %v", tt.jurisdiction, p.Types, tt.wantTypes)
			}
			for i, typ := range tt.wantTypes {
				if p.Types[i] != typ {
					t.Errorf("PolicyFor(%q).Types[%d] = %q, want %q", tt.jurisdiction, i, p.Types[i], typ)
				}
			}
		})
	}
}

func TestPolicyUSAddressesNotDetected(t *testing.T) {
	raw := `{"entities": [{"contact": {"addresses": [{"street": "123 Main St"}]}}]}`
	got := detectPaths(t, PolicyFor("US"), raw)
	if len(got) != 0 {
		t.Errorf("US policy detected addresses: %v", got)
	}
}

func TestDetectDeterministic(t *testing.T) {
	raw := `{
		"entities": [{"contact": {
			"fn": "Jane",
			"emails": [{"value": "a@example.net"}, {"value": "b@example.net"}]
		}}]
	}`
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatal(err)
	}
	d := New(PolicyFor("EU"))

	first := d.Detect(doc)
	for i := 0; i < 20; i++ {
		again := d.Detect(doc)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d fields, want %d", i, len(again), len(first))
		}
		for j := range again {
			if rdapnorm.JoinPath(again[j].Path) != rdapnorm.JoinPath(first[j].Path) {
				t.Fatalf("run %d: order changed at %d", i, j)
			}
		}
	}

	if len(first) == 0 {
		t.Fatal("no fields detected")
	}
	paths := make([]string, len(first))
	for i, f := range first {
		paths[i] = rdapnorm.JoinPath(f.Path)
	}
	if !sort.StringsAreSorted(paths) {
		t.Errorf("paths not in sorted walk order: %v", paths)
	}
}

func TestStripZeroWidth(t *testing.T) {
	in := "a\u200bb\u200cc\u200dd\u2060e\ufefff"
	if got := stripZeroWidth(in); got != "abcdef" {
		t.Errorf("stripZeroWidth(%q) = %q", in, got)
	}
	// Clean strings come back without reallocation-visible change.
	if got := stripZeroWidth("clean"); got != "clean" {
		t.Errorf("stripZeroWidth(clean) = %q", got)
	}
}
