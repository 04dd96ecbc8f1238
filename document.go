package rdapnorm

// NormalizedDocument is the canonical record produced by one pipeline run.
// It is created once per run and owned exclusively by the caller after the
// pipeline returns; the pipeline keeps no reference to it.
type NormalizedDocument struct {
	// Domain is the Unicode form of the domain name, lowercased.
	Domain string `json:"domain,omitempty"`
	// LDHName is the original letters-digits-hyphen (punycode) form when it
	// differs from Domain.
	LDHName     string       `json:"ldhName,omitempty"`
	Handle      string       `json:"handle,omitempty"`
	Status      []string     `json:"status,omitempty"`
	Nameservers []Nameserver `json:"nameservers,omitempty"`
	Events      []Event      `json:"events,omitempty"`
	Entities    []Entity     `json:"entities,omitempty"`
	SecureDNS   *SecureDNS   `json:"secureDNS,omitempty"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Nameserver is one delegated nameserver. Address lists keep registry order.
type Nameserver struct {
	Hostname string   `json:"hostname"`
	IPv4     []string `json:"ipv4,omitempty"`
	IPv6     []string `json:"ipv6,omitempty"`
}

// Event is a lifecycle event (registration, expiration, last changed, ...).
type Event struct {
	Action string `json:"action"`
	// Date is the ISO-8601 timestamp exactly as supplied by the registry.
	Date string `json:"date"`
	// Timestamp is Date as epoch milliseconds (UTC). Zero when Date did not
	// parse; the consistency checker reports those as warnings.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Entity is a contact attached to the registration (registrar, registrant,
// admin, ...). Contact is nil when the registry supplied no vCard or when
// redaction removed everything; it is never a present-but-empty object, so a
// nil Contact is an unambiguous "no contact data" signal.
type Entity struct {
	Handle  string   `json:"handle,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
	Country string   `json:"country,omitempty"`
}

// Contact holds contact data extracted from an RDAP vCard.
type Contact struct {
	Name         string       `json:"name,omitempty"`
	Organization string       `json:"organization,omitempty"`
	Emails       []TypedValue `json:"emails,omitempty"`
	Phones       []TypedValue `json:"phones,omitempty"`
	Addresses    []Address    `json:"addresses,omitempty"`
}

// TypedValue is a contact value carrying its vCard type parameter
// (e.g. "work", "voice").
type TypedValue struct {
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Address is a postal address from a vCard adr property. Missing components
// are absent, not empty strings.
type Address struct {
	Type       string `json:"type,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// SecureDNS carries DNSSEC delegation data.
type SecureDNS struct {
	Enabled bool       `json:"enabled"`
	DSData  []DSRecord `json:"dsData,omitempty"`
}

// DSRecord is a DNSSEC delegation signer record.
type DSRecord struct {
	KeyTag     int    `json:"keyTag"`
	Algorithm  int    `json:"algorithm"`
	Digest     string `json:"digest"`
	DigestType int    `json:"digestType"`
}

// Diagnostics describes the quality of one normalization run.
type Diagnostics struct {
	DataQuality         float64            `json:"dataQuality"`
	Warnings            []string           `json:"warnings,omitempty"`
	MissingFields       []string           `json:"missingFields,omitempty"`
	RegistryType        string             `json:"registryType"`
	NormalizationTimeMs float64            `json:"normalizationTimeMs"`
	StageTimingsMs      map[string]float64 `json:"stageTimingsMs,omitempty"`
	// RedactionSkipped records the explicit redactPII=false policy decision.
	RedactionSkipped bool `json:"redactionSkipped,omitempty"`
}

// NormalizationContext is the request-scoped input to one pipeline run. It is
// read-only for the pipeline and never shared between concurrent runs.
type NormalizationContext struct {
	Jurisdiction string `json:"jurisdiction"`
	LegalBasis   string `json:"legalBasis"`
	RedactPII    bool   `json:"redactPII"`
	RegistryID   string `json:"registryId"`
	TenantID     string `json:"tenantId,omitempty"`
	// RequestID correlates log lines for one run. The pipeline fills it with
	// a fresh UUID when empty.
	RequestID string `json:"requestId,omitempty"`
}

// PIIType classifies a detected personal-data field.
type PIIType string

// PII field classes recognized by the detector.
const (
	PIIName    PIIType = "name"
	PIIEmail   PIIType = "email"
	PIIPhone   PIIType = "phone"
	PIIAddress PIIType = "address"
)

// PIIField is a detection result: the path of a field matching a personal
// data pattern. It carries no value — detection results are consumed only by
// the redaction engine and must not become a leak channel themselves.
type PIIField struct {
	Path []string `json:"path"`
	Type PIIType  `json:"type"`
}
