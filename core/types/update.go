package types

// The With* constructors derive a new Manifest from an existing one.
// The receiver's slices are never written to; every touched slice is copied.

// WithLicenseInstance returns a copy of m with inst added, or replacing in
// place the first instance with the same license_id, the one an Index resolves.
func (m Manifest) WithLicenseInstance(inst LicenseInstance) Manifest {
	out := m
	out.Instances = make([]LicenseInstance, 0, len(m.Instances)+1)
	replaced := false
	for _, existing := range m.Instances {
		if !replaced && existing.LicenseID == inst.LicenseID {
			out.Instances = append(out.Instances, inst)
			replaced = true
			continue
		}
		out.Instances = append(out.Instances, existing)
	}
	if !replaced {
		out.Instances = append(out.Instances, inst)
	}
	return out
}

// WithOffering returns a copy of m with o added, or replacing the first
// offering with the same (offering_id, offering_version).
func (m Manifest) WithOffering(o Offering) Manifest {
	out := m
	out.Offerings = make([]Offering, 0, len(m.Offerings)+1)
	replaced := false
	for _, existing := range m.Offerings {
		if !replaced && existing.Key() == o.Key() {
			out.Offerings = append(out.Offerings, o)
			replaced = true
			continue
		}
		out.Offerings = append(out.Offerings, existing)
	}
	if !replaced {
		out.Offerings = append(out.Offerings, o)
	}
	return out
}

// WithFont returns a copy of m with f added, or replacing the first font
// with the same font_id.
func (m Manifest) WithFont(f Font) Manifest {
	out := m
	out.Fonts = make([]Font, 0, len(m.Fonts)+1)
	replaced := false
	for _, existing := range m.Fonts {
		if !replaced && existing.FontID == f.FontID {
			out.Fonts = append(out.Fonts, f)
			replaced = true
			continue
		}
		out.Fonts = append(out.Fonts, existing)
	}
	if !replaced {
		out.Fonts = append(out.Fonts, f)
	}
	return out
}

// WithInstanceStatus returns a copy of m where the instance licenseID has the
// given status. The second result is false if no such instance exists.
func (m Manifest) WithInstanceStatus(licenseID string, status InstanceStatus) (Manifest, bool) {
	inst, ok := m.instance(licenseID)
	if !ok {
		return m, false
	}
	inst.Status = status
	return m.WithLicenseInstance(inst), true
}

// WithInstanceEvidence returns a copy of m where ev is appended to the
// evidence of instance licenseID.
func (m Manifest) WithInstanceEvidence(licenseID string, ev Evidence) (Manifest, bool) {
	inst, ok := m.instance(licenseID)
	if !ok {
		return m, false
	}
	evidence := make([]Evidence, 0, len(inst.Evidence)+1)
	evidence = append(evidence, inst.Evidence...)
	inst.Evidence = append(evidence, ev)
	return m.WithLicenseInstance(inst), true
}

// WithFontActiveInstance returns a copy of m where font fontID points at
// licenseID as its active instance, linking it if it was not linked yet.
func (m Manifest) WithFontActiveInstance(fontID, licenseID string) (Manifest, bool) {
	f, ok := m.font(fontID)
	if !ok {
		return m, false
	}
	linked := false
	for _, id := range f.LicenseInstanceIDs {
		if id == licenseID {
			linked = true
			break
		}
	}
	if !linked {
		ids := make([]string, 0, len(f.LicenseInstanceIDs)+1)
		ids = append(ids, f.LicenseInstanceIDs...)
		f.LicenseInstanceIDs = append(ids, licenseID)
	}
	f.ActiveLicenseInstanceID = licenseID
	return m.WithFont(f), true
}

// WithFontSource returns a copy of m where font fontID has the given source type.
func (m Manifest) WithFontSource(fontID string, source SourceType) (Manifest, bool) {
	f, ok := m.font(fontID)
	if !ok {
		return m, false
	}
	f.Source = FontSource{Type: source}
	return m.WithFont(f), true
}

func (m Manifest) instance(licenseID string) (LicenseInstance, bool) {
	for _, inst := range m.Instances {
		if inst.LicenseID == licenseID {
			return inst, true
		}
	}
	return LicenseInstance{}, false
}

func (m Manifest) font(fontID string) (Font, bool) {
	for _, f := range m.Fonts {
		if f.FontID == fontID {
			return f, true
		}
	}
	return Font{}, false
}
