// Package types defines the license manifest entities shared across all layers.
// This package contains NO business logic - only type definitions and pure
// constructors.
package types

import (
	"github.com/shopspring/decimal"
)

// Currency represents a 3-letter currency code
type Currency string

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether c is three upper-case ASCII letters.
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// SourceType tells where a font file comes from
type SourceType string

const (
	// SourceOSS is an open source font
	SourceOSS SourceType = "oss"

	// SourceBYO is a font the licensee brought themselves
	SourceBYO SourceType = "byo"
)

// LicenseeType classifies a licensee
type LicenseeType string

const (
	LicenseeIndividual   LicenseeType = "individual"
	LicenseeOrganization LicenseeType = "organization"
	LicenseeAgency       LicenseeType = "agency"
	LicenseeClient       LicenseeType = "client"
	LicenseeOther        LicenseeType = "other"
)

// OfferingType classifies an offering
type OfferingType string

const (
	OfferingCommercial OfferingType = "commercial"
	OfferingTrial      OfferingType = "trial"
)

// InstanceStatus is the lifecycle state of a license instance
type InstanceStatus string

const (
	StatusActive     InstanceStatus = "active"
	StatusExpired    InstanceStatus = "expired"
	StatusSuperseded InstanceStatus = "superseded"
	StatusRevoked    InstanceStatus = "revoked"
)

// Well-known right types
const (
	RightCDNHosting   = "distribution_cdn_hosting"
	RightSelfHosting  = "distribution_self_hosting"
	RightModification = "modification"
)

// Manifest is a validated license manifest snapshot.
// Engines never mutate a Manifest; use the With* constructors to derive one.
type Manifest struct {
	// ManifestVersion is the document format version
	ManifestVersion string `json:"manifest_version,omitempty"`

	// Project is the project the manifest belongs to
	Project Project `json:"project"`

	// Licensees are the parties holding licenses
	Licensees []Licensee `json:"licensees" validate:"dive"`

	// Licensors are the parties granting licenses
	Licensors []Licensor `json:"licensors,omitempty" validate:"dive"`

	// Fonts are the fonts used by the project, in document order
	Fonts []Font `json:"fonts" validate:"dive"`

	// Offerings are the versioned license templates
	Offerings []Offering `json:"license_offerings" validate:"dive"`

	// Instances are the concrete license grants, in document order
	Instances []LicenseInstance `json:"license_instances" validate:"dive"`
}

// Project identifies the project and the domains it is served on
type Project struct {
	ProjectID string   `json:"project_id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Domains   []string `json:"domains,omitempty"`
}

// Licensee is a party holding license instances
type Licensee struct {
	LicenseeID string       `json:"licensee_id" validate:"required"`
	Type       LicenseeType `json:"type" validate:"oneof=individual organization agency client other"`
	LegalName  string       `json:"legal_name" validate:"required"`
}

// Licensor is a party publishing offerings
type Licensor struct {
	LicensorID string `json:"licensor_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

// Font is a font family used by the project
type Font struct {
	FontID                  string     `json:"font_id" validate:"required"`
	FamilyName              string     `json:"family_name" validate:"required"`
	Source                  FontSource `json:"source"`
	Usage                   *Usage     `json:"usage,omitempty"`
	LicenseInstanceIDs      []string   `json:"license_instance_ids"`
	ActiveLicenseInstanceID string     `json:"active_license_instance_id,omitempty"`
}

// FontSource describes the origin of a font
type FontSource struct {
	Type SourceType `json:"type" validate:"oneof=oss byo"`
}

// Usage is the typed view of a font's usage bag.
// Values of the wrong type in the raw bag are dropped during parsing.
type Usage struct {
	// SelfHosting signals the font files are served from the project's own origin
	SelfHosting bool `json:"self_hosting,omitempty"`

	// RequiredModificationKinds are the modifications the project performs
	RequiredModificationKinds []string `json:"required_modification_kinds,omitempty"`

	// Raw is the original bag, kept for traceability
	Raw map[string]any `json:"-"`
}

// Right is a single permission granted by an offering
type Right struct {
	RightID           string   `json:"right_id" validate:"required"`
	RightType         string   `json:"right_type" validate:"required"`
	Allowed           bool     `json:"allowed"`
	ModificationKinds []string `json:"modification_kinds,omitempty"`
}

// OfferingKey is the identity of an offering version
type OfferingKey struct {
	ID      string
	Version string
}

// String returns id@version for messages
func (k OfferingKey) String() string {
	return k.ID + "@" + k.Version
}

// Offering is a versioned license template
type Offering struct {
	OfferingID      string        `json:"offering_id" validate:"required"`
	OfferingVersion string        `json:"offering_version" validate:"required,semver"`
	OfferingType    OfferingType  `json:"offering_type" validate:"oneof=commercial trial"`
	LicensorID      string        `json:"licensor_id,omitempty"`
	Rights          []Right       `json:"rights" validate:"min=1,dive"`
	PriceFormula    *PriceFormula `json:"price_formula,omitempty"`
}

// Key returns the composite identity of the offering
func (o Offering) Key() OfferingKey {
	return OfferingKey{ID: o.OfferingID, Version: o.OfferingVersion}
}

// Right returns the first right of the given type
func (o Offering) Right(rightType string) (Right, bool) {
	for _, r := range o.Rights {
		if r.RightType == rightType {
			return r, true
		}
	}
	return Right{}, false
}

// Grants reports whether the offering carries an allowed right of the given type
func (o Offering) Grants(rightType string) bool {
	for _, r := range o.Rights {
		if r.RightType == rightType && r.Allowed {
			return true
		}
	}
	return false
}

// PriceFormula prices one instance of an offering.
// Currency and BasePrice are checked by the quote engine, not the parser.
type PriceFormula struct {
	Currency  Currency            `json:"currency"`
	BasePrice decimal.NullDecimal `json:"base_price"`
	Rules     []PriceRule         `json:"rules,omitempty"`
}

// PriceRule adjusts the running amount when its condition matches
type PriceRule struct {
	When       *Condition      `json:"when,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Add        decimal.Decimal `json:"add"`
}

// Condition selects metric limits and bounds their value
type Condition struct {
	MetricType string              `json:"metric_type,omitempty"`
	Period     string              `json:"period,omitempty"`
	Gte        decimal.NullDecimal `json:"gte"`
	Gt         decimal.NullDecimal `json:"gt"`
	Lte        decimal.NullDecimal `json:"lte"`
	Lt         decimal.NullDecimal `json:"lt"`
	Eq         decimal.NullDecimal `json:"eq"`
}

// HasFilter reports whether the condition narrows metric limits
func (c Condition) HasFilter() bool {
	return c.MetricType != "" || c.Period != ""
}

// HasBounds reports whether any bound operator is present
func (c Condition) HasBounds() bool {
	return c.Gte.Valid || c.Gt.Valid || c.Lte.Valid || c.Lt.Valid || c.Eq.Valid
}

// OfferingRef points an instance at an offering version
type OfferingRef struct {
	OfferingID      string `json:"offering_id,omitempty"`
	OfferingVersion string `json:"offering_version,omitempty"`
}

// Complete reports whether both parts of the reference are set
func (r OfferingRef) Complete() bool {
	return r.OfferingID != "" && r.OfferingVersion != ""
}

// Key returns the composite key the reference points at
func (r OfferingRef) Key() OfferingKey {
	return OfferingKey{ID: r.OfferingID, Version: r.OfferingVersion}
}

// Scope is what an instance covers
type Scope struct {
	ScopeType string   `json:"scope_type" validate:"required"`
	ScopeID   string   `json:"scope_id" validate:"required"`
	Domains   []string `json:"domains,omitempty"`
}

// DeclaresDomains reports whether the scope carries a domain list.
// An explicitly empty list counts as declared.
func (s Scope) DeclaresDomains() bool {
	return s.Domains != nil
}

// MetricLimit is a purchased usage ceiling
type MetricLimit struct {
	MetricType string          `json:"metric_type" validate:"required"`
	Limit      decimal.Decimal `json:"limit"`
	Period     string          `json:"period" validate:"required"`
}

// Evidence is a hash reference to a proof document
type Evidence struct {
	EvidenceID   string `json:"evidence_id" validate:"required"`
	Type         string `json:"type" validate:"required"`
	DocumentHash string `json:"document_hash" validate:"len=64,hexadecimal"`
}

// LicenseInstance is a concrete grant of an offering version
type LicenseInstance struct {
	LicenseID         string         `json:"license_id" validate:"required"`
	LicenseeID        string         `json:"licensee_id" validate:"required"`
	OfferingRef       OfferingRef    `json:"offering_ref"`
	Scope             Scope          `json:"scope"`
	FontRefs          []string       `json:"font_refs" validate:"min=1"`
	ActivatedRightIDs []string       `json:"activated_right_ids" validate:"min=1"`
	MetricLimits      []MetricLimit  `json:"metric_limits" validate:"dive"`
	Status            InstanceStatus `json:"status" validate:"required,oneof=active expired superseded revoked"`
	Evidence          []Evidence     `json:"evidence" validate:"dive"`
	AcquisitionSource string         `json:"acquisition_source,omitempty"`
}

// IsActive reports whether the instance is in force
func (i LicenseInstance) IsActive() bool {
	return i.Status == StatusActive
}

// Inactive reports whether the instance carries a status other than active.
// An instance without a status is not considered inactive.
func (i LicenseInstance) Inactive() bool {
	return i.Status != "" && i.Status != StatusActive
}
