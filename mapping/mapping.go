// Package mapping standardizes registry-specific field names onto the
// canonical schema via declarative path-rename tables. Tables are data, not
// code: each rule renames the leaf key at a dotted path, with "*" matching
// every element of an array. Applying a table is idempotent — once the source
// key is gone the rule has nothing left to do — so re-standardizing an
// already standardized document is a no-op.
package mapping

import (
	"strings"

	"github.com/registrylabs/rdapnorm"
)

// Rename moves the value at the From path to the sibling key named by the
// last segment of To. From and To must share every segment except the leaf.
// When the target key already exists the rule is skipped: standardization
// never clobbers canonical data.
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Table is the rename set for one registry.
type Table struct {
	Registry string
	Renames  []Rename
}

// baseRenames is the common superset observed across gTLD and RIR responses.
var baseRenames = []Rename{
	{From: "ldhName", To: "domain"},
	{From: "objectClassName", To: "objectType"},
	{From: "events.*.eventAction", To: "events.*.action"},
	{From: "events.*.eventDate", To: "events.*.date"},
	{From: "nameservers.*.ldhName", To: "nameservers.*.hostname"},
	{From: "nameservers.*.ipAddresses.v4", To: "nameservers.*.ipAddresses.ipv4"},
	{From: "nameservers.*.ipAddresses.v6", To: "nameservers.*.ipAddresses.ipv6"},
	{From: "secureDNS.delegationSigned", To: "secureDNS.enabled"},
}

// registryTables holds per-registry tables. Most registries have converged on
// the RFC 9083 names, so several tables equal the base; the entries that
// differ carry each registry's legacy spellings.
var registryTables = map[string][]Rename{
	"verisign": baseRenames,
	"arin": append([]Rename{
		{From: "cidr0_cidrs", To: "cidrs"},
	}, baseRenames...),
	"ripe": append([]Rename{
		{From: "netname", To: "handle"},
	}, baseRenames...),
	"apnic":   baseRenames,
	"lacnic":  baseRenames,
	"afrinic": baseRenames,
}

// ForRegistry returns the rename table for a registry id. Unknown registries
// get the default table built from the common superset, plus a
// RegistryFormatError the caller records as a recoverable warning.
func ForRegistry(id string) (Table, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if renames, ok := registryTables[key]; ok {
		return Table{Registry: key, Renames: renames}, nil
	}
	return Table{Registry: "default", Renames: baseRenames},
		&rdapnorm.RegistryFormatError{Registry: id, Detail: "no mapping table, using default"}
}

// Override installs or replaces the table for a registry id. Used by config
// loading; not safe to call concurrently with Apply.
func Override(id string, renames []Rename) {
	registryTables[strings.ToLower(strings.TrimSpace(id))] = renames
}

// Apply runs every rename against doc, mutating it in place, and returns doc.
func (t Table) Apply(doc map[string]any) map[string]any {
	for _, r := range t.Renames {
		from := strings.Split(r.From, ".")
		to := strings.Split(r.To, ".")
		if len(from) != len(to) {
			continue // malformed rule; leaf-rename only
		}
		applyRename(doc, from, to[len(to)-1])
	}
	return doc
}

// applyRename walks one path, fanning out over "*" array segments, and
// renames the leaf key where present.
func applyRename(node any, from []string, toLeaf string) {
	if len(from) == 0 {
		return
	}
	seg := from[0]

	if seg == "*" {
		arr, ok := node.([]any)
		if !ok {
			return
		}
		for _, item := range arr {
			applyRename(item, from[1:], toLeaf)
		}
		return
	}

	m, ok := node.(map[string]any)
	if !ok {
		return
	}

	if len(from) == 1 {
		val, exists := m[seg]
		if !exists {
			return
		}
		if _, taken := m[toLeaf]; taken {
			return
		}
		m[toLeaf] = val
		delete(m, seg)
		return
	}

	applyRename(m[seg], from[1:], toLeaf)
}
