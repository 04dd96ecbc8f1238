package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/redact"
)

// verisignDomain is a trimmed gTLD lookup response in the wire shape the
// pipeline receives: registry field names, jCard contacts.
const verisignDomain = `{
	"objectClassName": "domain",
	"ldhName": "EXAMPLE.COM",
	"handle": "2336799_DOMAIN_COM-VRSN",
	"status": ["client delete prohibited", "client transfer prohibited"],
	"events": [
		{"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
		{"eventAction": "expiration", "eventDate": "2027-08-13T04:00:00Z"}
	],
	"nameservers": [
		{"objectClassName": "nameserver", "ldhName": "A.IANA-SERVERS.NET",
		 "ipAddresses": {"v4": ["199.43.135.53"], "v6": ["2001:500:8f::53"]}},
		{"objectClassName": "nameserver", "ldhName": "B.IANA-SERVERS.NET"}
	],
	"secureDNS": {"delegationSigned": true, "dsData": [
		{"keyTag": 370, "algorithm": 13, "digest": "BE74359954660069D5C63D200C39F5603827D7DD02B56F120EE9F3A86764247C", "digestType": 2}
	]},
	"entities": [{
		"objectClassName": "entity",
		"handle": "REG-1",
		"roles": ["registrant"],
		"vcardArray": ["vcard", [
			["version", {}, "text", "4.0"],
			["fn", {}, "text", "Jane Operator"],
			["email", {}, "text", "a@x.com"],
			["tel", {"type": "voice"}, "uri", "tel:+1.5551234567"],
			["adr", {}, "text", ["", "", "123 Main St", "Springfield", "IL", "62701", "US"]]
		]]
	}]
}`

func euContext() rdapnorm.NormalizationContext {
	return rdapnorm.NormalizationContext{
		Jurisdiction: "EU",
		LegalBasis:   "legitimate-interest",
		RedactPII:    true,
		RegistryID:   "verisign",
		TenantID:     "tenant-a",
	}
}

func TestNormalizeRedactsRegistrant(t *testing.T) {
	doc, err := New().Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}

	if doc.Domain != "example.com" {
		t.Errorf("Domain = %q", doc.Domain)
	}
	if doc.Handle != "2336799_DOMAIN_COM-VRSN" {
		t.Errorf("Handle = %q", doc.Handle)
	}
	if len(doc.Entities) != 1 {
		t.Fatalf("Entities = %+v", doc.Entities)
	}

	ent := doc.Entities[0]
	if ent.Handle != "REG-1" {
		t.Errorf("entity handle = %q", ent.Handle)
	}
	if len(ent.Roles) != 1 || ent.Roles[0] != "registrant" {
		t.Errorf("entity roles = %v", ent.Roles)
	}
	// Full redaction deletes every personal field. Only the address country
	// survives (it is jurisdiction data, not personal data) and it is also
	// hoisted onto the entity.
	if ent.Country != "US" {
		t.Errorf("entity country = %q, want US", ent.Country)
	}
	if c := ent.Contact; c != nil {
		if c.Name != "" || c.Organization != "" || len(c.Emails) != 0 || len(c.Phones) != 0 {
			t.Errorf("registrant contact survived EU redaction: %+v", c)
		}
		for _, a := range c.Addresses {
			if a.Street != "" || a.City != "" || a.State != "" || a.PostalCode != "" {
				t.Errorf("address fields survived EU redaction: %+v", a)
			}
		}
	}
	if doc.Diagnostics.RedactionSkipped {
		t.Error("RedactionSkipped set on a redacting run")
	}

	// Serialized output must not contain the raw PII anywhere.
	out, _ := json.Marshal(doc)
	for _, leak := range []string{"a@x.com", "Jane Operator", "+1.5551234567", "123 Main St"} {
		if strings.Contains(string(out), leak) {
			t.Errorf("serialized document leaks %q", leak)
		}
	}
}

func TestNormalizeEventTimestamps(t *testing.T) {
	doc, err := New().Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if len(doc.Events) != 2 {
		t.Fatalf("Events = %+v", doc.Events)
	}

	reg := doc.Events[0]
	if reg.Action != "registration" {
		t.Errorf("Action = %q", reg.Action)
	}
	if reg.Date != "1995-08-14T04:00:00Z" {
		t.Errorf("Date = %q", reg.Date)
	}
	if reg.Timestamp != 808372800000 {
		t.Errorf("Timestamp = %d, want 808372800000", reg.Timestamp)
	}
	if doc.Events[1].Action != "expiration" || doc.Events[1].Timestamp == 0 {
		t.Errorf("expiration event = %+v, want parsed timestamp", doc.Events[1])
	}
}

func TestNormalizeStandardizesShapes(t *testing.T) {
	doc, err := New().Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}

	if len(doc.Nameservers) != 2 {
		t.Fatalf("Nameservers = %+v", doc.Nameservers)
	}
	ns := doc.Nameservers[0]
	if ns.Hostname != "a.iana-servers.net" {
		t.Errorf("Hostname = %q", ns.Hostname)
	}
	if len(ns.IPv4) != 1 || ns.IPv4[0] != "199.43.135.53" {
		t.Errorf("IPv4 = %v", ns.IPv4)
	}
	if len(ns.IPv6) != 1 || ns.IPv6[0] != "2001:500:8f::53" {
		t.Errorf("IPv6 = %v", ns.IPv6)
	}

	if doc.SecureDNS == nil || !doc.SecureDNS.Enabled {
		t.Fatalf("SecureDNS = %+v", doc.SecureDNS)
	}
	if len(doc.SecureDNS.DSData) != 1 || doc.SecureDNS.DSData[0].KeyTag != 370 {
		t.Errorf("DSData = %+v", doc.SecureDNS.DSData)
	}

	if doc.Diagnostics.RegistryType != "verisign" {
		t.Errorf("RegistryType = %q", doc.Diagnostics.RegistryType)
	}
	if doc.Diagnostics.DataQuality != 1.0 {
		t.Errorf("DataQuality = %v, warnings %v", doc.Diagnostics.DataQuality, doc.Diagnostics.Warnings)
	}
}

func TestNormalizeOrganizationalContactKeepsChannels(t *testing.T) {
	raw := `{
		"ldhName": "example.net",
		"status": ["active"],
		"nameservers": [{"ldhName": "ns1.example.net"}],
		"entities": [{
			"handle": "RAR-9",
			"roles": ["registrar", "abuse"],
			"vcardArray": ["vcard", [
				["fn", {}, "text", "Example Registrar Inc"],
				["email", {}, "text", "abuse@registrar.example"],
				["tel", {"type": "voice"}, "uri", "tel:+1.5550100"]
			]]
		}]
	}`
	doc, err := New().Normalize(json.RawMessage(raw), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if len(doc.Entities) != 1 || doc.Entities[0].Contact == nil {
		t.Fatalf("Entities = %+v", doc.Entities)
	}
	c := doc.Entities[0].Contact
	if c.Name != "" {
		t.Errorf("organizational contact name survived: %q", c.Name)
	}
	if len(c.Emails) != 1 || c.Emails[0].Value != "abuse@registrar.example" {
		t.Errorf("operational email lost: %+v", c.Emails)
	}
	if len(c.Phones) != 1 {
		t.Errorf("operational phone lost: %+v", c.Phones)
	}
}

func TestNormalizeSkipRedactionIsExplicit(t *testing.T) {
	ctx := euContext()
	ctx.RedactPII = false
	ctx.LegalBasis = "law-enforcement-request"

	doc, err := New().Normalize(json.RawMessage(verisignDomain), ctx)
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if !doc.Diagnostics.RedactionSkipped {
		t.Error("RedactionSkipped not set")
	}
	found := false
	for _, w := range doc.Diagnostics.Warnings {
		if strings.Contains(w, "redaction skipped") {
			found = true
		}
	}
	if !found {
		t.Errorf("no skip warning in %v", doc.Diagnostics.Warnings)
	}
	// The data flows through intact.
	if len(doc.Entities) != 1 || doc.Entities[0].Contact == nil {
		t.Fatalf("Entities = %+v", doc.Entities)
	}
	if doc.Entities[0].Contact.Name != "Jane Operator" {
		t.Errorf("unredacted name = %q", doc.Entities[0].Contact.Name)
	}
}

func TestNormalizePartialPolicy(t *testing.T) {
	policy := redact.Policy{Levels: map[rdapnorm.PIIType]redact.Level{
		rdapnorm.PIIEmail: redact.LevelPartial,
	}}
	doc, err := New(WithRedactionPolicy(policy)).Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if len(doc.Entities) != 1 || doc.Entities[0].Contact == nil {
		t.Fatalf("Entities = %+v", doc.Entities)
	}
	c := doc.Entities[0].Contact
	if len(c.Emails) != 1 || c.Emails[0].Value != rdapnorm.SentinelEmail {
		t.Errorf("Emails = %+v, want sentinel", c.Emails)
	}
	if c.Name != "" {
		t.Errorf("name still defaults to full deletion, got %q", c.Name)
	}
}

func TestNormalizeIDN(t *testing.T) {
	raw := `{
		"ldhName": "XN--BCHER-KVA.example",
		"status": ["active"],
		"nameservers": [{"ldhName": "ns1.xn--bcher-kva.example"}]
	}`
	doc, err := New().Normalize(json.RawMessage(raw), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if doc.Domain != "bücher.example" {
		t.Errorf("Domain = %q", doc.Domain)
	}
	if doc.LDHName != "xn--bcher-kva.example" {
		t.Errorf("LDHName = %q", doc.LDHName)
	}
	if len(doc.Nameservers) != 1 || doc.Nameservers[0].Hostname != "ns1.bücher.example" {
		t.Errorf("Nameservers = %+v", doc.Nameservers)
	}
}

func TestNormalizeUnknownRegistryRecovers(t *testing.T) {
	ctx := euContext()
	ctx.RegistryID = "nic-zz"

	doc, err := New().Normalize(json.RawMessage(verisignDomain), ctx)
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if doc.Diagnostics.RegistryType != "default" {
		t.Errorf("RegistryType = %q, want default", doc.Diagnostics.RegistryType)
	}
	found := false
	for _, w := range doc.Diagnostics.Warnings {
		if strings.Contains(w, "nic-zz") {
			found = true
		}
	}
	if !found {
		t.Errorf("unknown registry not reported: %v", doc.Diagnostics.Warnings)
	}
	// The default table still standardizes the common shape.
	if doc.Domain != "example.com" {
		t.Errorf("Domain = %q", doc.Domain)
	}
}

func TestNormalizeNonObjectFatal(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"just a string"`, `not json`} {
		_, err := New().Normalize(json.RawMessage(raw), euContext())
		if err == nil {
			t.Errorf("Normalize(%q) succeeded", raw)
			continue
		}
		var se *rdapnorm.StageError
		if !errors.As(err, &se) || se.Stage != "schema" {
			t.Errorf("Normalize(%q) err = %v, want schema StageError", raw, err)
		}
		var sv *rdapnorm.SchemaViolation
		if !errors.As(err, &sv) {
			t.Errorf("Normalize(%q) err = %v, want SchemaViolation cause", raw, err)
		}
	}
}

func TestNormalizeMiddleware(t *testing.T) {
	stamp := func(doc map[string]any, ctx rdapnorm.NormalizationContext) (map[string]any, error) {
		doc["handle"] = "MW-" + ctx.RegistryID
		return doc, nil
	}
	doc, err := New(WithMiddleware(stamp)).Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if doc.Handle != "MW-verisign" {
		t.Errorf("Handle = %q, middleware did not run", doc.Handle)
	}
	if _, timed := doc.Diagnostics.StageTimingsMs["middleware.0"]; !timed {
		t.Errorf("middleware stage not timed: %v", doc.Diagnostics.StageTimingsMs)
	}
}

func TestNormalizeMiddlewareError(t *testing.T) {
	boom := func(doc map[string]any, _ rdapnorm.NormalizationContext) (map[string]any, error) {
		return nil, errors.New("transform rejected document")
	}
	_, err := New(WithMiddleware(boom)).Normalize(json.RawMessage(verisignDomain), euContext())
	var se *rdapnorm.StageError
	if !errors.As(err, &se) || se.Stage != "middleware.0" {
		t.Fatalf("err = %v, want middleware.0 StageError", err)
	}
}

func TestNormalizeQualityDeductions(t *testing.T) {
	raw := `{"ldhName": "example.org", "status": ["active"]}`
	doc, err := New().Normalize(json.RawMessage(raw), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if doc.Diagnostics.DataQuality != 0.75 {
		t.Errorf("DataQuality = %v", doc.Diagnostics.DataQuality)
	}
	if len(doc.Diagnostics.MissingFields) != 1 || doc.Diagnostics.MissingFields[0] != "nameservers" {
		t.Errorf("MissingFields = %v", doc.Diagnostics.MissingFields)
	}
}

func TestNormalizeStageTimings(t *testing.T) {
	doc, err := New().Normalize(json.RawMessage(verisignDomain), euContext())
	if err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	for _, stage := range []string{"schema", "vcard", "standardize", "entities", "unicode", "redact", "convert", "consistency"} {
		if _, ok := doc.Diagnostics.StageTimingsMs[stage]; !ok {
			t.Errorf("stage %q missing from timings: %v", stage, doc.Diagnostics.StageTimingsMs)
		}
	}
	if doc.Diagnostics.NormalizationTimeMs < 0 {
		t.Errorf("NormalizationTimeMs = %v", doc.Diagnostics.NormalizationTimeMs)
	}
}

func TestNormalizeInputNotMutated(t *testing.T) {
	raw := json.RawMessage(verisignDomain)
	before := string(raw)
	if _, err := New().Normalize(raw, euContext()); err != nil {
		t.Fatalf("Normalize() err = %v", err)
	}
	if string(raw) != before {
		t.Error("raw input mutated")
	}
}
