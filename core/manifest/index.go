package manifest

import (
	"sort"

	"golang.org/x/mod/semver"

	"font-license/core/types"
)

// Index holds lookup maps over a manifest. It references the manifest's
// entities by value and is never written to after BuildIndex returns.
type Index struct {
	offerings map[types.OfferingKey]types.Offering
	instances map[string]types.LicenseInstance
	versions  map[string][]string
}

// BuildIndex builds the lookup maps for m. When identifiers repeat, the
// first occurrence in document order wins.
func BuildIndex(m *types.Manifest) *Index {
	idx := &Index{
		offerings: make(map[types.OfferingKey]types.Offering, len(m.Offerings)),
		instances: make(map[string]types.LicenseInstance, len(m.Instances)),
		versions:  make(map[string][]string),
	}

	for _, o := range m.Offerings {
		if o.OfferingID == "" || o.OfferingVersion == "" {
			continue
		}
		key := o.Key()
		if _, exists := idx.offerings[key]; exists {
			continue
		}
		idx.offerings[key] = o
		idx.versions[o.OfferingID] = append(idx.versions[o.OfferingID], o.OfferingVersion)
	}
	for id, versions := range idx.versions {
		sort.SliceStable(versions, func(i, j int) bool {
			return compareVersions(versions[i], versions[j]) < 0
		})
		idx.versions[id] = versions
	}

	for _, inst := range m.Instances {
		if inst.LicenseID == "" {
			continue
		}
		if _, exists := idx.instances[inst.LicenseID]; !exists {
			idx.instances[inst.LicenseID] = inst
		}
	}

	return idx
}

// Offering looks up an offering by its composite key
func (idx *Index) Offering(key types.OfferingKey) (types.Offering, bool) {
	o, ok := idx.offerings[key]
	return o, ok
}

// Instance looks up a license instance by license_id
func (idx *Index) Instance(licenseID string) (types.LicenseInstance, bool) {
	inst, ok := idx.instances[licenseID]
	return inst, ok
}

// OfferingVersions lists the known versions of an offering, lowest first
func (idx *Index) OfferingVersions(offeringID string) []string {
	versions := idx.versions[offeringID]
	out := make([]string, len(versions))
	copy(out, versions)
	return out
}

// ActiveInstance resolves the instance a font is currently licensed under:
// active_license_instance_id if set, else the first linked instance. The id
// is returned even when it does not resolve, for diagnostics.
func (idx *Index) ActiveInstance(f types.Font) (string, types.LicenseInstance, bool) {
	id := f.ActiveLicenseInstanceID
	if id == "" && len(f.LicenseInstanceIDs) > 0 {
		id = f.LicenseInstanceIDs[0]
	}
	if id == "" {
		return "", types.LicenseInstance{}, false
	}
	inst, ok := idx.instances[id]
	return id, inst, ok
}

// compareVersions orders semantic versions, falling back to string order for
// anything x/mod/semver does not accept.
func compareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	if semver.IsValid(va) && semver.IsValid(vb) {
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
