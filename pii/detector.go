// Package pii detects personally identifiable information in decoded JSON
// documents. Detection combines key-based rules (a field named "fn" is a
// personal name whatever its value) with value-based patterns (an email
// address is an email address whatever its key), applied after zero-width
// stripping and NFKC normalization so that Unicode confusables and invisible
// separators cannot smuggle values past the patterns.
package pii

import (
	"net"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/registrylabs/rdapnorm"
)

// Detector scans documents under a fixed policy. Detectors are stateless and
// safe for concurrent use.
type Detector struct {
	policy Policy
}

// New creates a Detector for the given policy.
func New(policy Policy) *Detector {
	return &Detector{policy: policy}
}

// Detect walks doc and returns every field matching a personal-data pattern
// permitted by the policy. Results carry paths only, never values. Output is
// deterministic: maps are walked in sorted key order.
func (d *Detector) Detect(doc map[string]any) []rdapnorm.PIIField {
	w := &walker{policy: d.policy, seen: make(map[string]struct{})}
	w.walkMap(doc, nil, "")
	return w.fields
}

type walker struct {
	policy Policy
	fields []rdapnorm.PIIField
	seen   map[string]struct{}
}

func (w *walker) flag(path []string, t rdapnorm.PIIType) {
	key := rdapnorm.JoinPath(path)
	if _, dup := w.seen[key]; dup {
		return
	}
	w.seen[key] = struct{}{}
	w.fields = append(w.fields, rdapnorm.PIIField{
		Path: append([]string(nil), path...),
		Type: t,
	})
}

// inherited carries the PII class of a container key ("emails", "phones")
// down to its "value" leaves, whose own key says nothing.
func (w *walker) walkMap(m map[string]any, path []string, inherited rdapnorm.PIIType) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		w.walkValue(k, m[k], childPath(path, k), inherited)
	}
}

// childPath copies on extend so sibling branches never share backing arrays.
func childPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

func (w *walker) walkValue(key string, v any, path []string, inherited rdapnorm.PIIType) {
	t, keyed := keyType(key)
	childInherited := inherited
	if keyed && (t == rdapnorm.PIIEmail || t == rdapnorm.PIIPhone) {
		childInherited = t
	}

	switch val := v.(type) {
	case string:
		w.checkString(key, val, path, t, keyed, inherited)
	case map[string]any:
		w.walkMap(val, path, childInherited)
	case []any:
		for i, item := range val {
			w.walkValue(key, item, childPath(path, strconv.Itoa(i)), childInherited)
		}
	}
}

func (w *walker) checkString(key, raw string, path []string, t rdapnorm.PIIType, keyed bool, inherited rdapnorm.PIIType) {
	if raw == "" || rdapnorm.IsRedactionSentinel(raw) {
		return
	}
	val := norm.NFKC.String(stripZeroWidth(raw))

	// Key-based rules.
	if keyed && w.policy.includes(t) {
		switch t {
		case rdapnorm.PIIName:
			// Names are only personal inside entity records; a top-level
			// "name" is a network or organization label.
			if rdapnorm.PathHasSegment(path, "entities") {
				w.flag(path, t)
				return
			}
		default:
			w.flag(path, t)
			return
		}
	}

	// Inherited rule: "value" leaves under emails/phones containers.
	if strings.EqualFold(key, "value") && inherited != "" && w.policy.includes(inherited) {
		w.flag(path, inherited)
		return
	}

	// Value-based rules, for PII smuggled under unrecognized keys.
	if w.policy.includes(rdapnorm.PIIEmail) && emailPattern.MatchString(val) {
		w.flag(path, rdapnorm.PIIEmail)
		return
	}
	if w.policy.includes(rdapnorm.PIIPhone) && looksLikePhone(val) {
		w.flag(path, rdapnorm.PIIPhone)
		return
	}
	if w.policy.includes(rdapnorm.PIIAddress) && addressPattern.MatchString(val) {
		w.flag(path, rdapnorm.PIIAddress)
	}
}

// looksLikePhone guards the phone pattern against the two digit-run shapes
// RDAP documents are full of: ISO-8601 dates and IP addresses.
func looksLikePhone(val string) bool {
	if isoDatePattern.MatchString(val) {
		return false
	}
	if net.ParseIP(val) != nil {
		return false
	}
	return phonePattern.MatchString(val)
}

// Zero-width and invisible separator code points used to split values across
// pattern boundaries.
var zeroWidth = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // BOM / zero width no-break space
}

func stripZeroWidth(s string) string {
	clean := true
	for _, r := range s {
		if zeroWidth[r] {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if zeroWidth[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
