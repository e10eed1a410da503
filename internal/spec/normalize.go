package spec

// Normalize returns a copy of r with documented defaults filled in. Only the
// impedance tolerance has a default, and only when an impedance is set: every
// other absent field stays absent because it means "no constraint".
func Normalize(r Requirement) Requirement {
	if r.Impedance != nil && r.ImpedanceTolerance == nil {
		r.ImpedanceTolerance = Number(DefaultImpedanceTolerance)
	}
	return r
}
