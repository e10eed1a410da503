// Package spec describes the records exchanged with the ranking core: the
// sparse requirement a user asks for and the candidate products it is
// compared with.
package spec

// Field names a constrained or informational record field.
type Field string

const (
	FieldImpedance          Field = "impedance"
	FieldImpedanceTolerance Field = "impedance_tolerance"
	FieldCurrent            Field = "current"
	FieldDCR                Field = "dcr"
	FieldTempMin            Field = "temp_min"
	FieldTempMax            Field = "temp_max"
	FieldSize               Field = "size"
	FieldTestFrequency      Field = "test_frequency"
)

// DefaultImpedanceTolerance is the fractional band used when a requirement
// sets an impedance without a tolerance.
const DefaultImpedanceTolerance = 0.25

// Requirement is a sparse set of acceptance constraints. A nil field is
// unconstrained.
type Requirement struct {
	// PartNumber is a reference (often competitor) part the user started from.
	PartNumber  string `json:"part_number,omitempty"`
	Category    string `json:"category,omitempty"`
	Application string `json:"application,omitempty"`

	Impedance          *Value `json:"impedance,omitempty"`
	ImpedanceTolerance *Value `json:"impedance_tolerance,omitempty"`
	Current            *Value `json:"current,omitempty"`
	DCR                *Value `json:"dcr,omitempty"`
	TempMin            *Value `json:"temp_min,omitempty"`
	TempMax            *Value `json:"temp_max,omitempty"`
	Size               *Value `json:"size,omitempty"`
}

// Get returns the requirement value stored under f, or nil.
func (r Requirement) Get(f Field) *Value {
	switch f {
	case FieldImpedance:
		return r.Impedance
	case FieldImpedanceTolerance:
		return r.ImpedanceTolerance
	case FieldCurrent:
		return r.Current
	case FieldDCR:
		return r.DCR
	case FieldTempMin:
		return r.TempMin
	case FieldTempMax:
		return r.TempMax
	case FieldSize:
		return r.Size
	default:
		return nil
	}
}

// IsEmpty reports whether the requirement constrains nothing.
func (r Requirement) IsEmpty() bool {
	return r.Impedance == nil &&
		r.Current == nil &&
		r.DCR == nil &&
		r.TempMin == nil &&
		r.TempMax == nil &&
		r.Size == nil
}

// Candidate is a product record produced by an ingestion source.
type Candidate struct {
	PartNumber     string `json:"part_number,omitempty"`
	Vendor         string `json:"vendor,omitempty"`
	SourceFilename string `json:"source_filename,omitempty"`
	Category       string `json:"category,omitempty"`
	Application    string `json:"application,omitempty"`

	Impedance     *Value `json:"impedance,omitempty"`
	TestFrequency *Value `json:"test_frequency,omitempty"`
	Current       *Value `json:"current,omitempty"`
	DCR           *Value `json:"dcr,omitempty"`
	TempMin       *Value `json:"temp_min,omitempty"`
	TempMax       *Value `json:"temp_max,omitempty"`
	Size          *Value `json:"size,omitempty"`

	malformed error
}

// Get returns the candidate value stored under f, or nil.
func (c Candidate) Get(f Field) *Value {
	switch f {
	case FieldImpedance:
		return c.Impedance
	case FieldTestFrequency:
		return c.TestFrequency
	case FieldCurrent:
		return c.Current
	case FieldDCR:
		return c.DCR
	case FieldTempMin:
		return c.TempMin
	case FieldTempMax:
		return c.TempMax
	case FieldSize:
		return c.Size
	default:
		return nil
	}
}

// Malformed returns the decode error of a record that could not be read as a
// candidate at all.
func (c Candidate) Malformed() error {
	return c.malformed
}

// Label identifies the candidate in logs and reports.
func (c Candidate) Label() string {
	if c.PartNumber != "" {
		return c.PartNumber
	}
	if c.SourceFilename != "" {
		return c.SourceFilename
	}
	return "<unnamed>"
}
