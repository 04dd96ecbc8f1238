package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/entity"
	"github.com/registrylabs/rdapnorm/idn"
	"github.com/registrylabs/rdapnorm/mapping"
	"github.com/registrylabs/rdapnorm/pii"
	"github.com/registrylabs/rdapnorm/quality"
	"github.com/registrylabs/rdapnorm/redact"
	"github.com/registrylabs/rdapnorm/vcard"
)

// execute runs the fixed stage sequence. Each stage receives the previous
// stage's output; the first failure short-circuits the rest.
func (r *run) execute(raw json.RawMessage) (*rdapnorm.NormalizedDocument, error) {
	var doc map[string]any
	var scopes []entity.Scope
	var out *rdapnorm.NormalizedDocument

	if err := r.stage("schema", func() (err error) {
		doc, err = r.validateSchema(raw)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage("vcard", func() error {
		r.extractContacts(doc)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage("standardize", func() error {
		table, err := mapping.ForRegistry(r.ctx.RegistryID)
		if err != nil {
			// Unknown registry shape is recoverable via the default table.
			r.warn(err.Error())
		}
		r.registryType = table.Registry
		table.Apply(doc)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage("entities", func() error {
		scopes = r.resolveEntities(doc)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage("unicode", func() error {
		r.warn(idn.NormalizeDocument(doc)...)
		return nil
	}); err != nil {
		return nil, err
	}

	for i, mw := range r.pipeline.middlewares {
		if err := r.stage(fmt.Sprintf("middleware.%d", i), func() error {
			next, err := mw(doc, r.ctx)
			if err != nil {
				return err
			}
			doc = next
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := r.stage("redact", func() error {
		return r.redactPII(&doc, scopes)
	}); err != nil {
		return nil, err
	}

	if err := r.stage("convert", func() (err error) {
		out, err = r.convert(doc)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage("consistency", func() error {
		r.report = quality.Check(out)
		r.warn(r.report.Warnings...)
		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}

// validateSchema decodes the raw response into the pipeline's own working
// copy. The input itself is caller-owned and never touched again. Only a
// non-object input is fatal; missing identity fields are warnings.
func (r *run) validateSchema(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &rdapnorm.SchemaViolation{Detail: "response is not a JSON object: " + err.Error()}
	}

	hasIdentity := false
	for _, key := range []string{"ldhName", "domain", "handle", "name"} {
		if _, ok := doc[key]; ok {
			hasIdentity = true
			break
		}
	}
	if !hasIdentity {
		r.warn("response carries none of ldhName/domain/handle")
	}
	if ents, ok := doc["entities"]; ok {
		if _, isArr := ents.([]any); !isArr {
			r.warn("entities is not an array, ignoring")
			delete(doc, "entities")
		}
	}
	return doc, nil
}

// extractContacts converts each entity's vcardArray into a structured contact
// and drops the raw vCard. Malformed vCards degrade to warnings — contact
// data is best-effort.
func (r *run) extractContacts(doc map[string]any) {
	ents, _ := doc["entities"].([]any)
	for i, e := range ents {
		ent, ok := e.(map[string]any)
		if !ok {
			continue
		}
		rawCard, present := ent["vcardArray"]
		if !present {
			continue
		}
		contact, warns := vcard.Extract(rawCard)
		for _, w := range warns {
			r.warn(fmt.Sprintf("entities.%d: %s", i, w))
		}
		delete(ent, "vcardArray")
		if contact != nil {
			ent["contact"] = contactToMap(contact)
		}
	}
}

// resolveEntities classifies each entity's roles and returns the per-entity
// redaction scopes, index-aligned with the entities array. The entity country
// is hoisted from its first contact address when absent.
func (r *run) resolveEntities(doc map[string]any) []entity.Scope {
	ents, _ := doc["entities"].([]any)
	scopes := make([]entity.Scope, len(ents))
	for i, e := range ents {
		ent, ok := e.(map[string]any)
		if !ok {
			continue
		}
		var roles []string
		if rs, ok := ent["roles"].([]any); ok {
			for _, role := range rs {
				if s, ok := role.(string); ok {
					roles = append(roles, s)
				}
			}
		}
		c := entity.Classify(roles)
		scopes[i] = c.Scope

		if _, has := ent["country"]; !has {
			if country := firstAddressCountry(ent); country != "" {
				ent["country"] = country
			}
		}
	}
	return scopes
}

func firstAddressCountry(ent map[string]any) string {
	contact, _ := ent["contact"].(map[string]any)
	addrs, _ := contact["addresses"].([]any)
	for _, a := range addrs {
		if addr, ok := a.(map[string]any); ok {
			if country, ok := addr["country"].(string); ok {
				return country
			}
		}
	}
	return ""
}

// redactPII runs detection and redaction under the jurisdiction policy, or
// records the explicit skip when the context disables redaction. Skipping is
// a logged policy decision, never a silent omission.
func (r *run) redactPII(doc *map[string]any, scopes []entity.Scope) error {
	if !r.ctx.RedactPII {
		r.log.Info().
			Str("jurisdiction", r.ctx.Jurisdiction).
			Str("legal_basis", r.ctx.LegalBasis).
			Msg("PII redaction skipped by request policy (redactPII=false)")
		r.redactionSkipped = true
		r.warn("PII redaction skipped by request policy")
		return nil
	}

	detector := pii.New(pii.PolicyFor(r.ctx.Jurisdiction))
	fields := detector.Detect(*doc)
	for _, f := range fields {
		r.pipeline.metrics.RecordPIIDetected(string(f.Type))
	}

	eligible := eligibility(scopes)
	engine := redact.New(detector, r.pipeline.redactionPolicy, r.log)
	redacted, err := engine.Redact(*doc, fields, eligible)
	if err != nil {
		path := ""
		if pf, ok := err.(*rdapnorm.PIIRedactionFailure); ok {
			path = pf.Path
		}
		return &rdapnorm.StageError{Stage: "redact", Path: path, Err: err}
	}
	for _, f := range fields {
		if eligible(f.Path, f.Type) {
			r.pipeline.metrics.RecordRedaction(string(f.Type), string(r.pipeline.redactionPolicy.LevelFor(f.Type)))
		}
	}
	*doc = redacted
	return nil
}

// eligibility maps a detected field back to its entity's redaction scope.
// Fields outside any entity (PII smuggled into remarks or descriptions) are
// always eligible — when ownership is unknown, redact.
func eligibility(scopes []entity.Scope) redact.Eligibility {
	return func(path []string, t rdapnorm.PIIType) bool {
		if len(path) < 2 || path[0] != "entities" {
			return true
		}
		idx, err := strconv.Atoi(path[1])
		if err != nil || idx < 0 || idx >= len(scopes) {
			return true
		}
		return scopes[idx].Eligible(t)
	}
}

// contactToMap renders a Contact into the working document's generic form
// using the same JSON names the final conversion expects.
func contactToMap(c *rdapnorm.Contact) map[string]any {
	m := make(map[string]any)
	if c.Name != "" {
		m["name"] = c.Name
	}
	if c.Organization != "" {
		m["organization"] = c.Organization
	}
	if len(c.Emails) > 0 {
		m["emails"] = typedValuesToAny(c.Emails)
	}
	if len(c.Phones) > 0 {
		m["phones"] = typedValuesToAny(c.Phones)
	}
	if len(c.Addresses) > 0 {
		addrs := make([]any, 0, len(c.Addresses))
		for _, a := range c.Addresses {
			am := make(map[string]any)
			setIf(am, "type", a.Type)
			setIf(am, "street", a.Street)
			setIf(am, "city", a.City)
			setIf(am, "state", a.State)
			setIf(am, "postalCode", a.PostalCode)
			setIf(am, "country", a.Country)
			addrs = append(addrs, am)
		}
		m["addresses"] = addrs
	}
	return m
}

func typedValuesToAny(vals []rdapnorm.TypedValue) []any {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		m := map[string]any{"value": v.Value}
		if v.Type != "" {
			m["type"] = v.Type
		}
		out = append(out, m)
	}
	return out
}

func setIf(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}
