package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"font-license/core/types"
)

const sampleHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func modificationRight(allowed bool, kinds ...string) types.Right {
	return types.Right{RightID: "mod", RightType: types.RightModification, Allowed: allowed, ModificationKinds: kinds}
}

// compliant returns a manifest that evaluates to allow
func compliant() types.Manifest {
	return types.Manifest{
		Project:   types.Project{ProjectID: "p1", Name: "Site", Domains: []string{"example.com"}},
		Licensees: []types.Licensee{{LicenseeID: "acme", Type: types.LicenseeOrganization, LegalName: "Acme"}},
		Fonts: []types.Font{{
			FontID:             "inter",
			FamilyName:         "Inter",
			Source:             types.FontSource{Type: types.SourceBYO},
			Usage:              &types.Usage{RequiredModificationKinds: []string{"subset"}},
			LicenseInstanceIDs: []string{"lic-1"},
		}},
		Offerings: []types.Offering{{
			OfferingID:      "web",
			OfferingVersion: "1.0.0",
			OfferingType:    types.OfferingCommercial,
			Rights: []types.Right{
				{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true},
				modificationRight(true, "subset"),
			},
		}},
		Instances: []types.LicenseInstance{{
			LicenseID:         "lic-1",
			LicenseeID:        "acme",
			OfferingRef:       types.OfferingRef{OfferingID: "web", OfferingVersion: "1.0.0"},
			Scope:             types.Scope{ScopeType: "project", ScopeID: "p1", Domains: []string{"example.com"}},
			FontRefs:          []string{"inter"},
			ActivatedRightIDs: []string{"cdn"},
			Status:            types.StatusActive,
			Evidence:          []types.Evidence{{EvidenceID: "ev-1", Type: "invoice", DocumentHash: sampleHash}},
		}},
	}
}

func codes(r *Result) []Code {
	out := make([]Code, 0, len(r.Reasons))
	for _, reason := range r.Reasons {
		out = append(out, reason.Code)
	}
	return out
}

func TestEvaluateAllowsCompliantManifest(t *testing.T) {
	m := compliant()
	result := Evaluate(&m)

	assert.Equal(t, DecisionAllow, result.Decision)
	assert.Empty(t, result.Reasons)
	assert.Empty(t, result.EvidenceRequired)
}

func TestEvidenceGating(t *testing.T) {
	m := compliant()
	m.Instances[0].Evidence = nil

	result := Evaluate(&m)
	require.Equal(t, []Code{CodeBYONoEvidence}, codes(result))
	assert.Equal(t, SeverityWarn, result.Reasons[0].Severity)
	assert.Equal(t, DecisionWarn, result.Decision)
	assert.Equal(t, []string{EvidencePath}, result.EvidenceRequired)
	assert.Equal(t, "lic-1", result.Reasons[0].Context["license_id"])

	oss, ok := m.WithFontSource("inter", types.SourceOSS)
	require.True(t, ok)
	result = Evaluate(&oss)
	assert.Empty(t, result.ByCode(CodeBYONoEvidence))
	assert.Empty(t, result.EvidenceRequired)
	assert.Equal(t, DecisionAllow, result.Decision)
}

func TestBYOFontWithoutInstance(t *testing.T) {
	m := compliant()
	m.Fonts = append(m.Fonts,
		types.Font{FontID: "lora", FamilyName: "Lora", Source: types.FontSource{Type: types.SourceBYO}},
		types.Font{FontID: "mono", FamilyName: "Mono", Source: types.FontSource{Type: types.SourceBYO}, LicenseInstanceIDs: []string{"lic-404"}},
		types.Font{FontID: "open", FamilyName: "Open", Source: types.FontSource{Type: types.SourceOSS}},
	)

	result := Evaluate(&m)
	require.Equal(t, []Code{CodeBYONoLicenseInstance, CodeBYONoLicenseInstance}, codes(result))
	assert.Equal(t, "lora", result.Reasons[0].Context["font_id"])
	assert.Equal(t, "lic-404", result.Reasons[1].Context["license_id"])
	assert.Equal(t, []string{EvidencePath}, result.EvidenceRequired, "markers are de-duplicated")
}

func TestInactiveInstanceEscalatesWithoutRightsChecks(t *testing.T) {
	m := compliant()
	m.Fonts[0].Usage = &types.Usage{SelfHosting: true, RequiredModificationKinds: []string{"convert"}}
	m.Instances[0].OfferingRef.OfferingVersion = "9.0.0"
	m.Instances[0].Scope.Domains = []string{"other.com"}

	expired, ok := m.WithInstanceStatus("lic-1", types.StatusExpired)
	require.True(t, ok)

	result := Evaluate(&expired)
	assert.Equal(t, []Code{CodeLicenseStatusNotActive, CodeDomainOutOfScope, CodeOfferingReferenceMissing}, codes(result))
	assert.Equal(t, SeverityEscalate, result.Reasons[0].Severity)
	assert.Equal(t, "expired", result.Reasons[0].Context["status"])
	assert.Equal(t, DecisionEscalate, result.Decision)

	t.Run("resolvable offering skips rights checks", func(t *testing.T) {
		m := compliant()
		m.Fonts[0].Usage = &types.Usage{SelfHosting: true, RequiredModificationKinds: []string{"convert"}}
		revoked, ok := m.WithInstanceStatus("lic-1", types.StatusRevoked)
		require.True(t, ok)

		result := Evaluate(&revoked)
		assert.Equal(t, []Code{CodeLicenseStatusNotActive}, codes(result))
	})
}

func TestInactiveInstanceWithDanglingOfferingIsReported(t *testing.T) {
	m := compliant()
	m.Instances[0].OfferingRef = types.OfferingRef{OfferingID: "gone", OfferingVersion: "1.0.0"}
	expired, ok := m.WithInstanceStatus("lic-1", types.StatusExpired)
	require.True(t, ok)

	result := Evaluate(&expired)
	require.Equal(t, []Code{CodeLicenseStatusNotActive, CodeOfferingReferenceMissing}, codes(result))
	missing := result.Reasons[1]
	assert.Equal(t, SeverityWarn, missing.Severity)
	assert.Equal(t, "gone", missing.Context["offering_id"])
	assert.Equal(t, []string{}, missing.Context["known_versions"])
}

func TestDomainOutOfScopeOncePerMissingDomain(t *testing.T) {
	m := compliant()
	m.Project.Domains = []string{"example.com", "shop.example.com", "blog.example.com"}

	result := Evaluate(&m)
	require.Equal(t, []Code{CodeDomainOutOfScope, CodeDomainOutOfScope}, codes(result))
	assert.Equal(t, "shop.example.com", result.Reasons[0].Context["domain"])
	assert.Equal(t, "blog.example.com", result.Reasons[1].Context["domain"])

	t.Run("scope without domains is not checked", func(t *testing.T) {
		noScope := compliant()
		noScope.Project.Domains = []string{"example.com", "shop.example.com"}
		noScope.Instances[0].Scope.Domains = nil
		assert.Empty(t, Evaluate(&noScope).Reasons)
	})

	t.Run("project without domains is not checked", func(t *testing.T) {
		noProject := compliant()
		noProject.Project.Domains = nil
		noProject.Instances[0].Scope.Domains = []string{}
		assert.Empty(t, Evaluate(&noProject).Reasons)
	})
}

func TestOfferingReferenceMissingStopsRightsChecks(t *testing.T) {
	m := compliant()
	m.Fonts[0].Usage = &types.Usage{RequiredModificationKinds: []string{"convert"}}
	m.Instances[0].OfferingRef.OfferingVersion = "2.0.0"

	result := Evaluate(&m)
	require.Equal(t, []Code{CodeOfferingReferenceMissing}, codes(result))
	assert.Equal(t, "2.0.0", result.Reasons[0].Context["offering_version"])
	assert.Equal(t, []string{"1.0.0"}, result.Reasons[0].Context["known_versions"])
	assert.Equal(t, DecisionWarn, result.Decision)
}

func TestSelfHosting(t *testing.T) {
	tests := []struct {
		name   string
		rights []types.Right
		usage  *types.Usage
		want   bool
	}{
		{
			name:   "cdn only",
			rights: []types.Right{{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true}},
			usage:  &types.Usage{SelfHosting: true},
			want:   true,
		},
		{
			name: "cdn and self hosting",
			rights: []types.Right{
				{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true},
				{RightID: "self", RightType: types.RightSelfHosting, Allowed: true},
			},
			usage: &types.Usage{SelfHosting: true},
			want:  false,
		},
		{
			name: "self hosting right present but not allowed",
			rights: []types.Right{
				{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true},
				{RightID: "self", RightType: types.RightSelfHosting, Allowed: false},
			},
			usage: &types.Usage{SelfHosting: true},
			want:  true,
		},
		{
			name:   "no cdn right",
			rights: []types.Right{{RightID: "x", RightType: "desktop", Allowed: true}},
			usage:  &types.Usage{SelfHosting: true},
			want:   false,
		},
		{
			name:   "not self hosted",
			rights: []types.Right{{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true}},
			usage:  &types.Usage{},
			want:   false,
		},
		{
			name:   "no usage",
			rights: []types.Right{{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true}},
			usage:  nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compliant()
			m.Fonts[0].Usage = tt.usage
			m.Offerings[0].Rights = tt.rights

			found := Evaluate(&m).ByCode(CodeSelfHostingNotAllowed)
			if tt.want {
				require.Len(t, found, 1)
				assert.Equal(t, SeverityWarn, found[0].Severity)
			} else {
				assert.Empty(t, found)
			}
		})
	}
}

func TestModificationGating(t *testing.T) {
	tests := []struct {
		name       string
		right      *types.Right
		required   []string
		wantCode   Code
		disallowed []string
	}{
		{name: "kind outside restriction", right: ptr(modificationRight(true, "subset")), required: []string{"convert"}, wantCode: CodeModificationKindNotAllowed, disallowed: []string{"convert"}},
		{name: "mixed kinds", right: ptr(modificationRight(true, "subset")), required: []string{"subset", "convert", "rename", "convert"}, wantCode: CodeModificationKindNotAllowed, disallowed: []string{"convert", "rename"}},
		{name: "right not allowed", right: ptr(modificationRight(false)), required: []string{"subset"}, wantCode: CodeModificationNotAllowed},
		{name: "right absent", right: nil, required: []string{"subset"}, wantCode: CodeModificationNotAllowed},
		{name: "unrestricted right", right: ptr(modificationRight(true)), required: []string{"convert"}},
		{name: "nothing required", right: nil, required: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compliant()
			m.Fonts[0].Usage = &types.Usage{RequiredModificationKinds: tt.required}
			m.Offerings[0].Rights = []types.Right{{RightID: "cdn", RightType: types.RightCDNHosting, Allowed: true}}
			if tt.right != nil {
				m.Offerings[0].Rights = append(m.Offerings[0].Rights, *tt.right)
			}

			result := Evaluate(&m)
			if tt.wantCode == "" {
				assert.Empty(t, result.Reasons)
				return
			}
			require.Equal(t, []Code{tt.wantCode}, codes(result))
			assert.Equal(t, SeverityEscalate, result.Reasons[0].Severity)
			assert.Equal(t, DecisionEscalate, result.Decision)
			if tt.disallowed != nil {
				assert.Equal(t, tt.disallowed, result.Reasons[0].Context["disallowed_kinds"])
			}
		})
	}
}

func TestSeverityPrecedenceAndOrder(t *testing.T) {
	m := compliant()
	m.Project.Domains = []string{"example.com", "other.com"}
	m.Fonts = append([]types.Font{{
		FontID:     "lora",
		FamilyName: "Lora",
		Source:     types.FontSource{Type: types.SourceBYO},
	}}, m.Fonts...)
	m.Fonts[1].Usage = &types.Usage{RequiredModificationKinds: []string{"convert"}}

	result := Evaluate(&m)
	assert.Equal(t, []Code{
		CodeBYONoLicenseInstance,
		CodeDomainOutOfScope,
		CodeModificationKindNotAllowed,
	}, codes(result), "font order, then check order")
	assert.Equal(t, DecisionEscalate, result.Decision)
}

func TestDecide(t *testing.T) {
	assert.Equal(t, DecisionAllow, decide(nil))
	assert.Equal(t, DecisionWarn, decide([]Reason{{Severity: SeverityWarn}}))
	assert.Equal(t, DecisionEscalate, decide([]Reason{{Severity: SeverityWarn}, {Severity: SeverityEscalate}, {Severity: SeverityWarn}}))
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	m := compliant()
	m.Instances[0].Evidence = nil
	before, err := json.Marshal(m)
	require.NoError(t, err)

	_ = Evaluate(&m)

	after, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestResultJSONShape(t *testing.T) {
	m := compliant()
	data, err := json.Marshal(Evaluate(&m))
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":"allow","reasons":[],"evidence_required":[]}`, string(data))
}

func ptr[T any](v T) *T {
	return &v
}
