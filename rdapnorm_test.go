package rdapnorm

import (
	"encoding/json"
	"testing"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"domain"}, "domain"},
		{[]string{"entities", "0", "contact", "fn"}, "entities.0.contact.fn"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.in); got != tt.want {
			t.Errorf("JoinPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathHasSegment(t *testing.T) {
	path := []string{"entities", "0", "contact", "fn"}
	if !PathHasSegment(path, "entities") {
		t.Error("entities not found")
	}
	if !PathHasSegment(path, "fn") {
		t.Error("leaf not found")
	}
	if PathHasSegment(path, "contact.fn") {
		t.Error("joined segments must not match")
	}
	if PathHasSegment(nil, "entities") {
		t.Error("empty path matched")
	}
}

func TestIsRedactionSentinel(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{SentinelEmail, true},
		{SentinelText, true},
		{"REDACTED@redacted.invalid", true},
		{"jane@example.net", false},
		{"redacted", false}, // exact match only: real values may contain the word
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRedactionSentinel(tt.in); got != tt.want {
			t.Errorf("IsRedactionSentinel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCacheEntryJSONShape(t *testing.T) {
	entry := CacheEntry{
		Data:              json.RawMessage(`{"ldhName":"example.com"}`),
		RegistrySignature: "c2ln",
		Timestamp:         1700000000000,
		TTL:               3600000,
		ValidationContext: ValidationContext{
			RegistryID: "verisign",
			TenantID:   "tenant-a",
		},
		SecurityMetadata: SecurityMetadata{
			OriginIP:     "199.43.135.53",
			ResponseSize: 25,
		},
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded CacheEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ValidationContext.RegistryID != "verisign" {
		t.Errorf("RegistryID = %q", decoded.ValidationContext.RegistryID)
	}
	if decoded.TTL != 3600000 {
		t.Errorf("TTL = %d", decoded.TTL)
	}
	if string(decoded.Data) != `{"ldhName":"example.com"}` {
		t.Errorf("Data = %s", decoded.Data)
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := &SchemaViolation{Detail: "not an object"}
	err := &StageError{Stage: "schema", Err: cause}
	if err.Unwrap() != cause {
		t.Error("Unwrap() lost the cause")
	}
	if err.Error() == "" || cause.Error() == "" {
		t.Error("empty error strings")
	}
}
