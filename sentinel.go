package rdapnorm

// Redaction sentinels for partial-level redaction. The .invalid TLD is
// reserved (RFC 2606), so the email sentinel can never be a deliverable
// address. The detector exempts these exact values: without the exemption the
// email sentinel would re-trigger the email pattern on the redaction
// post-condition scan.
const (
	SentinelEmail = "REDACTED@redacted.invalid"
	SentinelText  = "REDACTED"
)

// IsRedactionSentinel reports whether s is one of the fixed values written by
// partial redaction.
func IsRedactionSentinel(s string) bool {
	return s == SentinelEmail || s == SentinelText
}
