// Package manifest converts raw license manifest documents into typed
// entities and builds the lookup index shared by the policy and quote engines.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"font-license/core/types"
	"font-license/internal/errors"
)

// Format is a manifest serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Issue is a structural problem found at the document boundary
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String returns path: message
func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ParseResult is either a typed manifest or the list of issues preventing one
type ParseResult struct {
	Manifest *types.Manifest `json:"-"`
	Issues   []Issue         `json:"issues,omitempty"`
}

// OK reports whether the document produced a usable manifest
func (r *ParseResult) OK() bool {
	return r.Manifest != nil && len(r.Issues) == 0
}

// Err returns nil on success, or an input error listing the issues
func (r *ParseResult) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		lines = append(lines, issue.String())
	}
	return errors.Newf(errors.TypeInput, "manifest has %d structural issue(s)", len(r.Issues)).
		WithContext("issues", lines)
}

// Decode reads a document into a generic tree. JSON numbers are kept as
// json.Number so no precision is lost before conversion to decimals.
func Decode(data []byte, format Format) (any, error) {
	var tree any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, errors.Parsing("invalid YAML document", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, errors.Parsing("invalid JSON document", err)
		}
	default:
		return nil, errors.Newf(errors.TypeInput, "unsupported manifest format %q", format)
	}
	return tree, nil
}

// Parse decodes and normalizes a manifest document, then validates the typed
// result. Syntax errors are returned as an error; shape problems as Issues.
func Parse(data []byte, format Format) (*ParseResult, error) {
	tree, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	result := Normalize(tree)
	if result.Manifest != nil {
		result.Issues = append(result.Issues, Validate(result.Manifest)...)
	}
	return result, nil
}

// Normalize converts a generic document tree into a typed manifest.
// Required fields of the wrong type are reported; optional fields of the
// wrong type are dropped and treated as absent.
func Normalize(tree any) *ParseResult {
	n := &normalizer{}
	root, ok := tree.(map[string]any)
	if !ok {
		n.issue("$", "document must be an object")
		return &ParseResult{Issues: n.issues}
	}

	m := &types.Manifest{
		ManifestVersion: n.optString(root, "manifest_version"),
	}
	if p, ok := n.object(root, "$", "project"); ok {
		m.Project = n.project(p)
	}
	n.each(root, "$", "licensees", func(path string, obj map[string]any) {
		m.Licensees = append(m.Licensees, types.Licensee{
			LicenseeID: n.str(obj, path, "licensee_id"),
			Type:       types.LicenseeType(n.str(obj, path, "type")),
			LegalName:  n.str(obj, path, "legal_name"),
		})
	})
	n.eachOptional(root, "$", "licensors", func(path string, obj map[string]any) {
		m.Licensors = append(m.Licensors, types.Licensor{
			LicensorID: n.str(obj, path, "licensor_id"),
			Name:       n.str(obj, path, "name"),
		})
	})
	n.each(root, "$", "fonts", func(path string, obj map[string]any) {
		m.Fonts = append(m.Fonts, n.font(path, obj))
	})
	n.each(root, "$", "license_offerings", func(path string, obj map[string]any) {
		m.Offerings = append(m.Offerings, n.offering(path, obj))
	})
	n.each(root, "$", "license_instances", func(path string, obj map[string]any) {
		m.Instances = append(m.Instances, n.instance(path, obj))
	})

	return &ParseResult{Manifest: m, Issues: n.issues}
}

type normalizer struct {
	issues []Issue
}

func (n *normalizer) issue(path, format string, args ...any) {
	n.issues = append(n.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) project(obj map[string]any) types.Project {
	return types.Project{
		ProjectID: n.str(obj, "$.project", "project_id"),
		Name:      n.str(obj, "$.project", "name"),
		Domains:   n.optStrings(obj, "domains"),
	}
}

func (n *normalizer) font(path string, obj map[string]any) types.Font {
	f := types.Font{
		FontID:                  n.str(obj, path, "font_id"),
		FamilyName:              n.str(obj, path, "family_name"),
		LicenseInstanceIDs:      n.optStrings(obj, "license_instance_ids"),
		ActiveLicenseInstanceID: n.optString(obj, "active_license_instance_id"),
	}
	if src, ok := n.object(obj, path, "source"); ok {
		f.Source = types.FontSource{Type: types.SourceType(n.str(src, path+".source", "type"))}
	}
	if raw, ok := obj["usage"].(map[string]any); ok {
		f.Usage = usage(raw)
	}
	return f
}

func usage(raw map[string]any) *types.Usage {
	u := &types.Usage{Raw: raw}
	if b, ok := raw["self_hosting"].(bool); ok {
		u.SelfHosting = b
	}
	u.RequiredModificationKinds = stringsOf(raw["required_modification_kinds"])
	return u
}

func (n *normalizer) offering(path string, obj map[string]any) types.Offering {
	o := types.Offering{
		OfferingID:      n.str(obj, path, "offering_id"),
		OfferingVersion: n.str(obj, path, "offering_version"),
		OfferingType:    types.OfferingType(n.str(obj, path, "offering_type")),
		LicensorID:      n.optString(obj, "licensor_id"),
	}
	n.each(obj, path, "rights", func(rp string, r map[string]any) {
		o.Rights = append(o.Rights, types.Right{
			RightID:           n.str(r, rp, "right_id"),
			RightType:         n.str(r, rp, "right_type"),
			Allowed:           n.boolean(r, rp, "allowed"),
			ModificationKinds: n.optStrings(r, "modification_kinds"),
		})
	})
	if pf, ok := obj["price_formula"].(map[string]any); ok {
		o.PriceFormula = n.priceFormula(path+".price_formula", pf)
	}
	return o
}

// priceFormula is lenient on currency and base_price: defects there are
// reported by the quote engine as pricing errors.
func (n *normalizer) priceFormula(path string, obj map[string]any) *types.PriceFormula {
	pf := &types.PriceFormula{
		Currency: types.Currency(strings.ToUpper(n.optString(obj, "currency"))),
	}
	if d, ok := toDecimal(obj["base_price"]); ok {
		pf.BasePrice = decimal.NewNullDecimal(d)
	}
	n.eachOptional(obj, path, "rules", func(rp string, r map[string]any) {
		rule := types.PriceRule{
			Multiplier: n.optNumber(r, rp, "multiplier", decimal.NewFromInt(1)),
			Add:        n.optNumber(r, rp, "add", decimal.Zero),
		}
		if when, ok := r["when"].(map[string]any); ok {
			wp := rp + ".when"
			rule.When = &types.Condition{
				MetricType: n.optString(when, "metric_type"),
				Period:     n.optString(when, "period"),
				Gte:        n.bound(when, wp, "gte"),
				Gt:         n.bound(when, wp, "gt"),
				Lte:        n.bound(when, wp, "lte"),
				Lt:         n.bound(when, wp, "lt"),
				Eq:         n.bound(when, wp, "eq"),
			}
		}
		pf.Rules = append(pf.Rules, rule)
	})
	return pf
}

func (n *normalizer) instance(path string, obj map[string]any) types.LicenseInstance {
	inst := types.LicenseInstance{
		LicenseID:         n.str(obj, path, "license_id"),
		LicenseeID:        n.str(obj, path, "licensee_id"),
		FontRefs:          n.optStrings(obj, "font_refs"),
		ActivatedRightIDs: n.optStrings(obj, "activated_right_ids"),
		Status:            types.InstanceStatus(n.optString(obj, "status")),
		AcquisitionSource: n.optString(obj, "acquisition_source"),
	}
	if ref, ok := obj["offering_ref"].(map[string]any); ok {
		inst.OfferingRef = types.OfferingRef{
			OfferingID:      n.optString(ref, "offering_id"),
			OfferingVersion: n.optString(ref, "offering_version"),
		}
	}
	if scope, ok := n.object(obj, path, "scope"); ok {
		inst.Scope = types.Scope{
			ScopeType: n.str(scope, path+".scope", "scope_type"),
			ScopeID:   n.str(scope, path+".scope", "scope_id"),
			Domains:   n.optStrings(scope, "domains"),
		}
	}
	n.eachOptional(obj, path, "metric_limits", func(mp string, ml map[string]any) {
		limit, ok := toDecimal(ml["limit"])
		if !ok {
			n.issue(mp+".limit", "must be a number")
		}
		inst.MetricLimits = append(inst.MetricLimits, types.MetricLimit{
			MetricType: n.str(ml, mp, "metric_type"),
			Limit:      limit,
			Period:     n.str(ml, mp, "period"),
		})
	})
	n.eachOptional(obj, path, "evidence", func(ep string, ev map[string]any) {
		inst.Evidence = append(inst.Evidence, types.Evidence{
			EvidenceID:   n.str(ev, ep, "evidence_id"),
			Type:         n.str(ev, ep, "type"),
			DocumentHash: n.str(ev, ep, "document_hash"),
		})
	})
	return inst
}

func (n *normalizer) object(obj map[string]any, path, key string) (map[string]any, bool) {
	v, ok := obj[key].(map[string]any)
	if !ok {
		n.issue(path+"."+key, "must be an object")
	}
	return v, ok
}

// each walks a required array of objects
func (n *normalizer) each(obj map[string]any, path, key string, fn func(string, map[string]any)) {
	if _, ok := obj[key].([]any); !ok {
		n.issue(path+"."+key, "must be an array")
		return
	}
	n.eachOptional(obj, path, key, fn)
}

// eachOptional walks an array of objects that may be absent
func (n *normalizer) eachOptional(obj map[string]any, path, key string, fn func(string, map[string]any)) {
	raw, present := obj[key]
	if !present || raw == nil {
		return
	}
	items, ok := raw.([]any)
	if !ok {
		n.issue(path+"."+key, "must be an array")
		return
	}
	for i, item := range items {
		itemPath := fmt.Sprintf("%s.%s[%d]", path, key, i)
		entry, ok := item.(map[string]any)
		if !ok {
			n.issue(itemPath, "must be an object")
			continue
		}
		fn(itemPath, entry)
	}
}

func (n *normalizer) str(obj map[string]any, path, key string) string {
	raw, present := obj[key]
	if !present {
		// presence is checked by Validate
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		n.issue(path+"."+key, "must be a string")
	}
	return s
}

func (n *normalizer) boolean(obj map[string]any, path, key string) bool {
	b, ok := obj[key].(bool)
	if !ok {
		n.issue(path+"."+key, "must be a boolean")
	}
	return b
}

func (n *normalizer) optString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func (n *normalizer) optStrings(obj map[string]any, key string) []string {
	return stringsOf(obj[key])
}

func (n *normalizer) optNumber(obj map[string]any, path, key string, def decimal.Decimal) decimal.Decimal {
	raw, present := obj[key]
	if !present || raw == nil {
		return def
	}
	d, ok := toDecimal(raw)
	if !ok {
		n.issue(path+"."+key, "must be a number")
		return def
	}
	return d
}

func (n *normalizer) bound(obj map[string]any, path, key string) decimal.NullDecimal {
	raw, present := obj[key]
	if !present || raw == nil {
		return decimal.NullDecimal{}
	}
	d, ok := toDecimal(raw)
	if !ok {
		n.issue(path+"."+key, "must be a number")
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// stringsOf keeps the string elements of an array. A non-array yields nil;
// an empty array yields an empty, non-nil slice.
func stringsOf(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint64:
		d, err := decimal.NewFromString(strconv.FormatUint(v, 10))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Decimal{}, false
	}
}
