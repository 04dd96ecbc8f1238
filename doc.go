// Package rdapnorm defines the canonical data model for normalized RDAP
// (Registration Data Access Protocol) responses and the error taxonomy shared
// by the normalization pipeline and the secure cache validator.
//
// The root package holds types only. The pipeline lives in package pipeline,
// the individual stages in their own packages (pii, vcard, mapping, entity,
// idn, redact, quality), and cache security in cachesec, cache, and kvstore.
// Network fetchers, bootstrap resolvers, and cache backends are external
// collaborators behind narrow interfaces; this module never performs I/O on
// the normalization path.
package rdapnorm
