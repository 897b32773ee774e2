package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"font-license/core/types"
	"font-license/internal/errors"
)

const validJSON = `{
  "manifest_version": "1",
  "project": {"project_id": "p1", "name": "Marketing site", "domains": ["example.com", "shop.example.com"]},
  "licensees": [{"licensee_id": "acme", "type": "organization", "legal_name": "Acme Ltd"}],
  "fonts": [
    {
      "font_id": "inter",
      "family_name": "Inter",
      "source": {"type": "byo"},
      "usage": {"self_hosting": true, "required_modification_kinds": ["subset", 7], "notes": "x"},
      "license_instance_ids": ["lic-1"]
    }
  ],
  "license_offerings": [
    {
      "offering_id": "web",
      "offering_version": "1.2.0",
      "offering_type": "commercial",
      "rights": [{"right_id": "r1", "right_type": "modification", "allowed": true, "modification_kinds": ["subset"]}],
      "price_formula": {
        "currency": "EUR",
        "base_price": 100,
        "rules": [{"when": {"metric_type": "pageviews", "gte": 10}, "multiplier": 1.5, "add": 20}, {"add": 0.1}]
      }
    }
  ],
  "license_instances": [
    {
      "license_id": "lic-1",
      "licensee_id": "acme",
      "offering_ref": {"offering_id": "web", "offering_version": "1.2.0"},
      "scope": {"scope_type": "project", "scope_id": "p1", "domains": []},
      "font_refs": ["inter"],
      "activated_right_ids": ["r1"],
      "metric_limits": [{"metric_type": "pageviews", "limit": 20, "period": "month"}],
      "status": "active",
      "evidence": [],
      "acquisition_source": "direct"
    }
  ]
}`

func TestParseJSONProducesTypedManifest(t *testing.T) {
	result, err := Parse([]byte(validJSON), FormatJSON)
	require.NoError(t, err)
	require.True(t, result.OK(), "issues: %v", result.Issues)
	require.NoError(t, result.Err())

	m := result.Manifest
	assert.Equal(t, []string{"example.com", "shop.example.com"}, m.Project.Domains)

	require.Len(t, m.Fonts, 1)
	font := m.Fonts[0]
	assert.Equal(t, types.SourceBYO, font.Source.Type)
	require.NotNil(t, font.Usage)
	assert.True(t, font.Usage.SelfHosting)
	assert.Equal(t, []string{"subset"}, font.Usage.RequiredModificationKinds)
	assert.Equal(t, "x", font.Usage.Raw["notes"])

	require.Len(t, m.Offerings, 1)
	pf := m.Offerings[0].PriceFormula
	require.NotNil(t, pf)
	assert.Equal(t, types.Currency("EUR"), pf.Currency)
	require.True(t, pf.BasePrice.Valid)
	assert.Equal(t, "100", pf.BasePrice.Decimal.String())
	require.Len(t, pf.Rules, 2)
	assert.Equal(t, "1.5", pf.Rules[0].Multiplier.String())
	require.NotNil(t, pf.Rules[0].When)
	assert.True(t, pf.Rules[0].When.Gte.Valid)
	assert.False(t, pf.Rules[0].When.Lt.Valid)
	assert.Nil(t, pf.Rules[1].When)
	assert.Equal(t, "1", pf.Rules[1].Multiplier.String())
	assert.Equal(t, "0.1", pf.Rules[1].Add.String())

	inst := m.Instances[0]
	assert.True(t, inst.Scope.DeclaresDomains())
	assert.Empty(t, inst.Scope.Domains)
	assert.Equal(t, "20", inst.MetricLimits[0].Limit.String())
	assert.Empty(t, inst.Evidence)
}

func TestParseYAML(t *testing.T) {
	doc := `
project: {project_id: p1, name: Site}
licensees: [{licensee_id: me, type: individual, legal_name: Me}]
fonts:
  - font_id: lora
    family_name: Lora
    source: {type: oss}
    license_instance_ids: []
license_offerings: []
license_instances: []
`
	result, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.True(t, result.OK(), "issues: %v", result.Issues)
	assert.Equal(t, "lora", result.Manifest.Fonts[0].FontID)
	assert.Nil(t, result.Manifest.Project.Domains)
}

func TestParseReportsStructuralIssues(t *testing.T) {
	doc := `{
  "project": {"project_id": "p1"},
  "licensees": [{"licensee_id": "x", "type": "robot", "legal_name": "X"}],
  "fonts": [{"font_id": "a", "family_name": "A", "source": {"type": "byo"}}, {"font_id": "a", "family_name": "B", "source": {"type": "oss"}}],
  "license_offerings": [{"offering_id": "o", "offering_version": "one", "offering_type": "commercial", "rights": []}],
  "license_instances": [{
    "license_id": "l", "licensee_id": "x", "offering_ref": {}, "scope": {"scope_type": "project", "scope_id": "p1"},
    "font_refs": [], "activated_right_ids": ["r"], "metric_limits": [{"metric_type": "m", "limit": "lots", "period": "month"}],
    "status": "paused", "evidence": [{"evidence_id": "e", "type": "invoice", "document_hash": "nothex"}]
  }]
}`
	result, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.False(t, result.OK())

	paths := make(map[string]string)
	for _, issue := range result.Issues {
		paths[issue.Path] = issue.Message
	}
	assert.Contains(t, paths, "$.project.name")
	assert.Contains(t, paths, "$.licensees[0].type")
	assert.Contains(t, paths, "$.fonts[1].font_id")
	assert.Contains(t, paths, "$.license_offerings[0].offering_version")
	assert.Contains(t, paths, "$.license_offerings[0].rights")
	assert.Contains(t, paths, "$.license_instances[0].font_refs")
	assert.Contains(t, paths, "$.license_instances[0].metric_limits[0].limit")
	assert.Contains(t, paths, "$.license_instances[0].status")
	assert.Contains(t, paths, "$.license_instances[0].evidence[0].document_hash")

	err = result.Err()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestParseLeavesPriceFormulaDefectsToTheQuoteEngine(t *testing.T) {
	tree := map[string]any{
		"project":           map[string]any{"project_id": "p", "name": "n"},
		"licensees":         []any{},
		"fonts":             []any{},
		"license_instances": []any{},
		"license_offerings": []any{map[string]any{
			"offering_id": "o", "offering_version": "1.0.0", "offering_type": "trial",
			"rights":        []any{map[string]any{"right_id": "r", "right_type": "modification", "allowed": false}},
			"price_formula": map[string]any{"currency": "euro", "base_price": "free"},
		}},
	}
	result := Normalize(tree)
	require.Empty(t, result.Issues)
	pf := result.Manifest.Offerings[0].PriceFormula
	require.NotNil(t, pf)
	assert.False(t, pf.BasePrice.Valid)
	assert.False(t, pf.Currency.IsValid())
}

func TestParseUpperCasesCurrency(t *testing.T) {
	doc := strings.Replace(validJSON, `"currency": "EUR"`, `"currency": "eur"`, 1)
	require.NotEqual(t, validJSON, doc)

	result, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.True(t, result.OK(), result.Issues)

	pf := result.Manifest.Offerings[0].PriceFormula
	assert.Equal(t, types.Currency("EUR"), pf.Currency)
	assert.True(t, pf.Currency.IsValid())
}

func TestParseRejectsBadSyntax(t *testing.T) {
	_, err := Parse([]byte(`{"project":`), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))

	_, err = Parse([]byte(`{}`), Format("toml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))

	result := Normalize([]any{})
	assert.Nil(t, result.Manifest)
	assert.Equal(t, "$", result.Issues[0].Path)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("fonts.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("a/b/manifest.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("manifest.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("manifest"))
}
