// Package entity classifies RDAP entities by their role arrays and derives
// each entity's redaction scope.
//
// A single registry contact commonly serves several functions, so an entity
// with multiple roles lands in every matching bucket, not just the first.
// Roles outside the vocabulary are preserved verbatim but carry no special
// treatment.
package entity

import (
	"strings"

	"github.com/registrylabs/rdapnorm"
)

// Role is one entry of the fixed RDAP role vocabulary.
type Role string

// The recognized vocabulary. Registrant, administrative, technical, and
// billing contacts are natural persons often enough that they are fully
// redaction-eligible; registrar and abuse contacts are organizational and
// keep their operational contact channels.
const (
	RoleRegistrar      Role = "registrar"
	RoleRegistrant     Role = "registrant"
	RoleAdministrative Role = "administrative"
	RoleTechnical      Role = "technical"
	RoleBilling        Role = "billing"
	RoleAbuse          Role = "abuse"
)

var personalRoles = map[Role]bool{
	RoleRegistrant:     true,
	RoleAdministrative: true,
	RoleTechnical:      true,
	RoleBilling:        true,
}

var organizationalRoles = map[Role]bool{
	RoleRegistrar: true,
	RoleAbuse:     true,
}

// Scope is the redaction eligibility class of one entity.
type Scope int

const (
	// ScopeNone: only unrecognized roles; no redaction eligibility.
	ScopeNone Scope = iota
	// ScopeNameOnly: organizational contact. Redaction strips personal
	// names but leaves the operational channels (email, phone, address)
	// that identify the organization, not a person.
	ScopeNameOnly
	// ScopeFull: personal contact; every PII class is eligible.
	ScopeFull
)

// Classification is the result of resolving one entity's roles.
type Classification struct {
	// Buckets holds every vocabulary role the entity matched.
	Buckets []Role
	// Unknown holds roles outside the vocabulary, verbatim.
	Unknown []string
	Scope   Scope
}

// Classify resolves a role array against the vocabulary. Any personal role
// wins the scope tie-break: a contact that is simultaneously registrar and
// registrant is still a person.
func Classify(roles []string) Classification {
	var c Classification
	for _, r := range roles {
		role := Role(strings.ToLower(strings.TrimSpace(r)))
		switch {
		case personalRoles[role]:
			c.Buckets = append(c.Buckets, role)
			c.Scope = ScopeFull
		case organizationalRoles[role]:
			c.Buckets = append(c.Buckets, role)
			if c.Scope == ScopeNone {
				c.Scope = ScopeNameOnly
			}
		default:
			c.Unknown = append(c.Unknown, r)
		}
	}
	return c
}

// Eligible reports whether a PII class is redaction-eligible under the scope.
func (s Scope) Eligible(t rdapnorm.PIIType) bool {
	switch s {
	case ScopeFull:
		return true
	case ScopeNameOnly:
		return t == rdapnorm.PIIName
	default:
		return false
	}
}
