// Package cachesec validates cache entries before they may be served:
// registry-signature authenticity, TTL and clock-drift bounds, tenant
// isolation, structural and size integrity, and an SSRF-indicator scan.
//
// Validation is fail-closed and fail-fast: layers run in a fixed order, the
// first failure wins, and partial success is full failure. An entry's state
// machine is Pending → {Valid, Rejected}, terminal.
package cachesec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/registrylabs/rdapnorm"
)

// State is the terminal validation state of an entry.
type State string

// Entry states.
const (
	StatePending  State = "pending"
	StateValid    State = "valid"
	StateRejected State = "rejected"
)

// Reason identifies which validation layer rejected an entry.
type Reason string

// Rejection reasons, one per layer (TTL splits into exceeded and expired).
const (
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonTTLExceeded      Reason = "ttl_exceeded"
	ReasonExpired          Reason = "expired"
	ReasonInvalidDrift     Reason = "invalid_drift"
	ReasonTenantIsolation  Reason = "tenant_isolation_violation"
	ReasonIntegrity        Reason = "integrity_violation"
	ReasonSSRFIndicator    Reason = "ssrf_indicator"
)

// ValidationError is the typed failure for a rejected entry. The entry must
// be evicted and never served; callers fall through to a live fetch.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cache validation failed: %s (%s)", e.Reason, e.Detail)
	}
	return "cache validation failed: " + string(e.Reason)
}

// SizeRange bounds the expected payload size for a registry. Truncated or
// inflated payloads indicate tampering in transit or at rest.
type SizeRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

func (r SizeRange) contains(n int64) bool {
	return n >= r.Min && (r.Max == 0 || n <= r.Max)
}

// Limits are the validator's policy knobs.
type Limits struct {
	// MaxTTL caps how long any entry may claim to live.
	MaxTTL time.Duration
	// DriftTolerance bounds how far in the future a timestamp may sit
	// before the entry is treated as forged.
	DriftTolerance time.Duration
	// SizeRanges holds per-registry expected payload sizes; registries
	// without an entry use DefaultSizeRange.
	SizeRanges       map[string]SizeRange
	DefaultSizeRange SizeRange
}

// DefaultLimits returns the production defaults: 24h max TTL, 5 minute drift
// tolerance, and a generous 2–1MiB size window.
func DefaultLimits() Limits {
	return Limits{
		MaxTTL:           24 * time.Hour,
		DriftTolerance:   5 * time.Minute,
		DefaultSizeRange: SizeRange{Min: 2, Max: 1 << 20},
	}
}

func (l Limits) sizeRange(registryID string) SizeRange {
	if r, ok := l.SizeRanges[registryID]; ok {
		return r
	}
	return l.DefaultSizeRange
}

// expectedMarkers are the top-level keys at least one of which every RDAP
// object class carries. A payload with none of them is not an RDAP document.
var expectedMarkers = []string{
	"objectClassName", "objectType", "domain", "ldhName", "handle", "name",
}

// Validator checks cache entries. Safe for concurrent use.
type Validator struct {
	keys   *keyRing
	limits Limits
	now    func() time.Time
	log    zerolog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLimits overrides the default limits.
func WithLimits(l Limits) ValidatorOption {
	return func(v *Validator) { v.limits = l }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) ValidatorOption {
	return func(v *Validator) { v.log = log }
}

// WithClock overrides the time source. Tests use it to pin "now".
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates a Validator deriving per-registry signing keys from
// the master secret.
func NewValidator(masterKey []byte, opts ...ValidatorOption) (*Validator, error) {
	keys, err := newKeyRing(masterKey)
	if err != nil {
		return nil, err
	}
	v := &Validator{
		keys:   keys,
		limits: DefaultLimits(),
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Seal signs data and assembles a servable entry. The signature, timestamp,
// and recorded response size are always computed here — the one write path —
// so a caller-supplied signature is impossible by construction.
func (v *Validator) Seal(data json.RawMessage, vc rdapnorm.ValidationContext, sm rdapnorm.SecurityMetadata, ttl time.Duration) (*rdapnorm.CacheEntry, error) {
	if ttl <= 0 || ttl > v.limits.MaxTTL {
		return nil, fmt.Errorf("ttl %v outside (0, %v]", ttl, v.limits.MaxTTL)
	}
	key, err := v.keys.keyFor(vc.RegistryID)
	if err != nil {
		return nil, err
	}
	timestamp := v.now().UnixMilli()
	signature, err := sign(key, data, vc.RegistryID, timestamp)
	if err != nil {
		return nil, err
	}
	sm.ResponseSize = int64(len(data))
	return &rdapnorm.CacheEntry{
		Data:              append(json.RawMessage(nil), data...),
		RegistrySignature: signature,
		Timestamp:         timestamp,
		TTL:               ttl.Milliseconds(),
		ValidationContext: vc,
		SecurityMetadata:  sm,
	}, nil
}

// Validate runs all five layers against an entry in order, first failure
// wins. It returns StateValid with a nil error, or StateRejected with a
// *ValidationError carrying the layer's reason.
func (v *Validator) Validate(entry *rdapnorm.CacheEntry, tenantID string) (State, error) {
	if entry == nil {
		return StateRejected, &ValidationError{Reason: ReasonIntegrity, Detail: "nil entry"}
	}

	if err := v.checkSignature(entry); err != nil {
		return v.reject(entry, err)
	}
	if err := v.checkFreshness(entry); err != nil {
		return v.reject(entry, err)
	}
	if err := checkTenant(entry, tenantID); err != nil {
		return v.reject(entry, err)
	}
	if err := v.checkIntegrity(entry); err != nil {
		return v.reject(entry, err)
	}
	if hit := scanForSSRFIndicators(entry.Data); hit != "" {
		return v.reject(entry, &ValidationError{
			Reason: ReasonSSRFIndicator,
			Detail: "payload references internal address " + hit,
		})
	}

	return StateValid, nil
}

func (v *Validator) reject(entry *rdapnorm.CacheEntry, err *ValidationError) (State, error) {
	v.log.Warn().
		Str("registry", entry.ValidationContext.RegistryID).
		Str("reason", string(err.Reason)).
		Str("detail", err.Detail).
		Msg("cache entry rejected")
	return StateRejected, err
}

// Layer 1: signature authenticity.
func (v *Validator) checkSignature(entry *rdapnorm.CacheEntry) *ValidationError {
	key, err := v.keys.keyFor(entry.ValidationContext.RegistryID)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidSignature, Detail: err.Error()}
	}
	ok, err := verifySignature(key, entry.Data, entry.ValidationContext.RegistryID, entry.Timestamp, entry.RegistrySignature)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidSignature, Detail: err.Error()}
	}
	if !ok {
		return &ValidationError{Reason: ReasonInvalidSignature}
	}
	return nil
}

// Layer 2: TTL bounds and clock drift. Catches both stale-extension (a TTL
// longer than policy allows) and forged-future entries (a mint time ahead of
// our clock beyond tolerance).
func (v *Validator) checkFreshness(entry *rdapnorm.CacheEntry) *ValidationError {
	now := v.now().UnixMilli()

	if entry.TTL <= 0 || entry.TTL > v.limits.MaxTTL.Milliseconds() {
		return &ValidationError{
			Reason: ReasonTTLExceeded,
			Detail: fmt.Sprintf("ttl %dms outside (0, %dms]", entry.TTL, v.limits.MaxTTL.Milliseconds()),
		}
	}
	if entry.Timestamp > now+v.limits.DriftTolerance.Milliseconds() {
		return &ValidationError{
			Reason: ReasonInvalidDrift,
			Detail: fmt.Sprintf("timestamp %dms in the future", entry.Timestamp-now),
		}
	}
	if entry.Timestamp+entry.TTL < now {
		return &ValidationError{Reason: ReasonExpired}
	}
	return nil
}

// Layer 3: tenant isolation. Both sides must agree, including agreeing on
// "no tenant" — absence on either side alone is not a bypass.
func checkTenant(entry *rdapnorm.CacheEntry, tenantID string) *ValidationError {
	if entry.ValidationContext.TenantID != tenantID {
		return &ValidationError{Reason: ReasonTenantIsolation}
	}
	return nil
}

// Layer 4: structural and size integrity.
func (v *Validator) checkIntegrity(entry *rdapnorm.CacheEntry) *ValidationError {
	actual := int64(len(entry.Data))
	if entry.SecurityMetadata.ResponseSize != actual {
		return &ValidationError{
			Reason: ReasonIntegrity,
			Detail: fmt.Sprintf("recorded size %d, actual %d", entry.SecurityMetadata.ResponseSize, actual),
		}
	}
	if r := v.limits.sizeRange(entry.ValidationContext.RegistryID); !r.contains(actual) {
		return &ValidationError{
			Reason: ReasonIntegrity,
			Detail: fmt.Sprintf("size %d outside expected range [%d, %d]", actual, r.Min, r.Max),
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(entry.Data, &payload); err != nil {
		return &ValidationError{Reason: ReasonIntegrity, Detail: "payload is not a JSON object"}
	}
	for _, marker := range expectedMarkers {
		if _, ok := payload[marker]; ok {
			return nil
		}
	}
	return &ValidationError{Reason: ReasonIntegrity, Detail: "payload carries no RDAP object marker"}
}
