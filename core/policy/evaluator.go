// Package policy evaluates a license manifest for compliance.
// Every manifest maps to a decision; evaluation never fails.
package policy

import (
	"fmt"

	"font-license/core/determinism"
	"font-license/core/manifest"
	"font-license/core/types"
)

// Decision is the overall outcome of an evaluation
type Decision string

const (
	// DecisionAllow means no findings
	DecisionAllow Decision = "allow"

	// DecisionWarn means only warn-level findings
	DecisionWarn Decision = "warn"

	// DecisionEscalate means at least one finding needs human review
	DecisionEscalate Decision = "escalate"
)

// Severity levels for findings, warn < escalate
type Severity string

const (
	// SeverityWarn does not need review
	SeverityWarn Severity = "warn"

	// SeverityEscalate needs review
	SeverityEscalate Severity = "escalate"
)

// Code identifies the check that produced a finding
type Code string

const (
	CodeBYONoLicenseInstance       Code = "BYO_NO_LICENSE_INSTANCE"
	CodeBYONoEvidence              Code = "BYO_NO_EVIDENCE"
	CodeLicenseStatusNotActive     Code = "LICENSE_STATUS_NOT_ACTIVE"
	CodeDomainOutOfScope           Code = "DOMAIN_OUT_OF_SCOPE"
	CodeOfferingReferenceMissing   Code = "OFFERING_REFERENCE_MISSING"
	CodeSelfHostingNotAllowed      Code = "SELF_HOSTING_NOT_ALLOWED"
	CodeModificationNotAllowed     Code = "MODIFICATION_NOT_ALLOWED"
	CodeModificationKindNotAllowed Code = "MODIFICATION_KIND_NOT_ALLOWED"
)

// EvidencePath marks that license instances need evidence attached
const EvidencePath = "license_instances[].evidence[]"

// Reason is a single finding
type Reason struct {
	// Code identifies the check
	Code Code `json:"code"`

	// Severity is the finding strength
	Severity Severity `json:"severity"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Context carries identifiers for traceability
	Context map[string]any `json:"context"`
}

// Result is the outcome of evaluating a manifest
type Result struct {
	// Decision is derived from the most severe reason
	Decision Decision `json:"decision"`

	// Reasons are in font order, then check order
	Reasons []Reason `json:"reasons"`

	// EvidenceRequired lists evidence paths to fill in, sorted
	EvidenceRequired []string `json:"evidence_required"`
}

// HasEscalations returns true if any reason needs review
func (r *Result) HasEscalations() bool {
	return r.Decision == DecisionEscalate
}

// ByCode returns the reasons with the given code, in order
func (r *Result) ByCode(code Code) []Reason {
	var out []Reason
	for _, reason := range r.Reasons {
		if reason.Code == code {
			out = append(out, reason)
		}
	}
	return out
}

// Evaluate runs the compliance checks over every font of m, in document order.
func Evaluate(m *types.Manifest) *Result {
	e := &evaluation{
		doc:     m,
		index:   manifest.BuildIndex(m),
		reasons: make([]Reason, 0),
	}
	for _, font := range m.Fonts {
		e.font(font)
	}
	return &Result{
		Decision:         decide(e.reasons),
		Reasons:          e.reasons,
		EvidenceRequired: determinism.SortedStrings(e.evidence),
	}
}

// decide picks the strongest severity present
func decide(reasons []Reason) Decision {
	decision := DecisionAllow
	for _, r := range reasons {
		switch r.Severity {
		case SeverityEscalate:
			return DecisionEscalate
		case SeverityWarn:
			decision = DecisionWarn
		}
	}
	return decision
}

type evaluation struct {
	doc      *types.Manifest
	index    *manifest.Index
	reasons  []Reason
	evidence []string
}

func (e *evaluation) add(code Code, severity Severity, context map[string]any, format string, args ...any) {
	e.reasons = append(e.reasons, Reason{
		Code:     code,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Context:  context,
	})
}

func (e *evaluation) font(font types.Font) {
	licenseID, inst, linked := e.index.ActiveInstance(font)

	if font.Source.Type == types.SourceBYO {
		switch {
		case !linked:
			ctx := map[string]any{"font_id": font.FontID}
			if licenseID != "" {
				ctx["license_id"] = licenseID
			}
			e.add(CodeBYONoLicenseInstance, SeverityWarn, ctx,
				"BYO font %q has no resolvable license instance", font.FontID)
			e.evidence = append(e.evidence, EvidencePath)
		case len(inst.Evidence) == 0:
			e.add(CodeBYONoEvidence, SeverityWarn,
				map[string]any{"font_id": font.FontID, "license_id": inst.LicenseID},
				"BYO font %q is licensed under %q but the license has no evidence", font.FontID, inst.LicenseID)
			e.evidence = append(e.evidence, EvidencePath)
		}
	}
	if !linked {
		return
	}

	if !inst.IsActive() {
		e.add(CodeLicenseStatusNotActive, SeverityEscalate,
			map[string]any{"font_id": font.FontID, "license_id": inst.LicenseID, "status": string(inst.Status)},
			"license %q for font %q has status %q", inst.LicenseID, font.FontID, inst.Status)
	}

	e.domains(font, inst)

	offering, ok := e.index.Offering(inst.OfferingRef.Key())
	if !ok {
		e.add(CodeOfferingReferenceMissing, SeverityWarn,
			map[string]any{
				"font_id":          font.FontID,
				"license_id":       inst.LicenseID,
				"offering_id":      inst.OfferingRef.OfferingID,
				"offering_version": inst.OfferingRef.OfferingVersion,
				"known_versions":   e.index.OfferingVersions(inst.OfferingRef.OfferingID),
			},
			"license %q references unknown offering %s", inst.LicenseID, inst.OfferingRef.Key())
		return
	}

	// rights of a license that is not in force are never checked
	if !inst.IsActive() {
		return
	}

	e.selfHosting(font, inst, offering)
	e.modification(font, inst, offering)
}

func (e *evaluation) domains(font types.Font, inst types.LicenseInstance) {
	projectDomains := e.doc.Project.Domains
	if len(projectDomains) == 0 || !inst.Scope.DeclaresDomains() {
		return
	}
	covered := make(map[string]struct{}, len(inst.Scope.Domains))
	for _, d := range inst.Scope.Domains {
		covered[d] = struct{}{}
	}
	for _, d := range projectDomains {
		if _, ok := covered[d]; ok {
			continue
		}
		e.add(CodeDomainOutOfScope, SeverityWarn,
			map[string]any{"font_id": font.FontID, "license_id": inst.LicenseID, "domain": d},
			"domain %q is not covered by license %q", d, inst.LicenseID)
	}
}

func (e *evaluation) selfHosting(font types.Font, inst types.LicenseInstance, offering types.Offering) {
	if font.Usage == nil || !font.Usage.SelfHosting {
		return
	}
	if !offering.Grants(types.RightCDNHosting) || offering.Grants(types.RightSelfHosting) {
		return
	}
	e.add(CodeSelfHostingNotAllowed, SeverityWarn,
		offeringContext(font, inst, offering),
		"font %q is self-hosted but offering %s only grants CDN hosting", font.FontID, offering.Key())
}

func (e *evaluation) modification(font types.Font, inst types.LicenseInstance, offering types.Offering) {
	if font.Usage == nil {
		return
	}
	required := unique(font.Usage.RequiredModificationKinds)
	if len(required) == 0 {
		return
	}

	right, ok := offering.Right(types.RightModification)
	if !ok || !right.Allowed {
		ctx := offeringContext(font, inst, offering)
		ctx["required_kinds"] = required
		e.add(CodeModificationNotAllowed, SeverityEscalate, ctx,
			"font %q requires modification but offering %s does not allow it", font.FontID, offering.Key())
		return
	}
	if len(right.ModificationKinds) == 0 {
		return
	}

	allowed := make(map[string]struct{}, len(right.ModificationKinds))
	for _, k := range right.ModificationKinds {
		allowed[k] = struct{}{}
	}
	var disallowed []string
	for _, k := range required {
		if _, ok := allowed[k]; !ok {
			disallowed = append(disallowed, k)
		}
	}
	if len(disallowed) == 0 {
		return
	}
	ctx := offeringContext(font, inst, offering)
	ctx["disallowed_kinds"] = disallowed
	ctx["allowed_kinds"] = right.ModificationKinds
	e.add(CodeModificationKindNotAllowed, SeverityEscalate, ctx,
		"font %q requires modification kinds %v not allowed by offering %s", font.FontID, disallowed, offering.Key())
}

func offeringContext(font types.Font, inst types.LicenseInstance, offering types.Offering) map[string]any {
	return map[string]any{
		"font_id":          font.FontID,
		"license_id":       inst.LicenseID,
		"offering_id":      offering.OfferingID,
		"offering_version": offering.OfferingVersion,
	}
}

// unique keeps the first occurrence of each value, in order
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
