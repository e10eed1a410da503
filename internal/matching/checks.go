package matching

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/spigell/part-recommender/internal/spec"
)

// Rejection reasons attached to candidates that fail a check.
const (
	ReasonImpedance         = "impedance mismatch"
	ReasonCurrent           = "insufficient rated current"
	ReasonDCR               = "DCR too high"
	ReasonTempMin           = "lower temperature bound unmet"
	ReasonTempMax           = "upper temperature bound unmet"
	ReasonSize              = "size mismatch"
	ReasonUnparseable       = "unparseable value"
	ReasonUnparseableRecord = "unparseable record"
)

// Verdict is the outcome of one check against one candidate.
type Verdict int

const (
	// Skipped means the requirement or the candidate lacks the field.
	Skipped Verdict = iota
	Passed
	Failed
	// Unparseable means a value could not be converted. It rejects the
	// candidate like Failed, with a different reason.
	Unparseable
)

// Check is a single constraint evaluated against a candidate.
type Check interface {
	Name() string
	Reason() string
	Evaluate(req spec.Requirement, c spec.Candidate) (Verdict, error)
}

// DefaultChecks returns the constraint set in evaluation order.
func DefaultChecks() []Check {
	return []Check{
		impedanceCheck{},
		NewMinimumCheck(spec.FieldCurrent, ReasonCurrent),
		NewMaximumCheck(spec.FieldDCR, ReasonDCR),
		NewMaximumCheck(spec.FieldTempMin, ReasonTempMin),
		NewMinimumCheck(spec.FieldTempMax, ReasonTempMax),
		sizeCheck{},
	}
}

// rateChecks are the numeric checks counted by MatchRate.
func rateChecks() []Check {
	checks := DefaultChecks()
	return checks[:len(checks)-1]
}

type boundCheck struct {
	field  spec.Field
	reason string
	pass   func(have, want float64) bool
}

// NewMinimumCheck passes candidates whose field is at least the required value.
func NewMinimumCheck(field spec.Field, reason string) Check {
	return boundCheck{field: field, reason: reason, pass: func(have, want float64) bool { return have >= want }}
}

// NewMaximumCheck passes candidates whose field is at most the required value.
func NewMaximumCheck(field spec.Field, reason string) Check {
	return boundCheck{field: field, reason: reason, pass: func(have, want float64) bool { return have <= want }}
}

func (c boundCheck) Name() string   { return string(c.field) }
func (c boundCheck) Reason() string { return c.reason }

func (c boundCheck) Evaluate(req spec.Requirement, cand spec.Candidate) (Verdict, error) {
	wantValue, haveValue := req.Get(c.field), cand.Get(c.field)
	if wantValue == nil || haveValue == nil {
		return Skipped, nil
	}

	want, err := spec.Float(c.field, wantValue)
	if err != nil {
		return Unparseable, err
	}

	have, err := spec.Float(c.field, haveValue)
	if err != nil {
		return Unparseable, err
	}

	if c.pass(have, want) {
		return Passed, nil
	}
	return Failed, nil
}

type impedanceCheck struct{}

func (impedanceCheck) Name() string   { return string(spec.FieldImpedance) }
func (impedanceCheck) Reason() string { return ReasonImpedance }

// Evaluate applies the symmetric tolerance band. The boundary is inclusive.
func (impedanceCheck) Evaluate(req spec.Requirement, cand spec.Candidate) (Verdict, error) {
	if req.Impedance == nil || cand.Impedance == nil {
		return Skipped, nil
	}

	want, err := spec.Float(spec.FieldImpedance, req.Impedance)
	if err != nil {
		return Unparseable, err
	}

	tolerance := spec.DefaultImpedanceTolerance
	if req.ImpedanceTolerance != nil {
		tolerance, err = spec.Float(spec.FieldImpedanceTolerance, req.ImpedanceTolerance)
		if err != nil {
			return Unparseable, err
		}
	}

	have, err := spec.Float(spec.FieldImpedance, cand.Impedance)
	if err != nil {
		return Unparseable, err
	}

	if math.Abs(have-want) <= tolerance*want {
		return Passed, nil
	}
	return Failed, nil
}

type sizeCheck struct{}

func (sizeCheck) Name() string   { return string(spec.FieldSize) }
func (sizeCheck) Reason() string { return ReasonSize }

func (sizeCheck) Evaluate(req spec.Requirement, cand spec.Candidate) (Verdict, error) {
	if req.Size == nil || cand.Size == nil {
		return Skipped, nil
	}

	want, err := spec.Text(spec.FieldSize, req.Size)
	if err != nil {
		return Unparseable, err
	}

	have, err := spec.Text(spec.FieldSize, cand.Size)
	if err != nil {
		return Unparseable, err
	}

	if normalizeCode(have) == normalizeCode(want) {
		return Passed, nil
	}
	return Failed, nil
}

// normalizeCode folds full-width digits and stray whitespace that show up in
// size codes copied out of datasheets.
func normalizeCode(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func unparseableReason(check Check, err error) string {
	var perr *spec.ParseError
	if errors.As(err, &perr) && perr.Field != "" {
		return fmt.Sprintf("%s: %s", ReasonUnparseable, perr.Field)
	}
	return fmt.Sprintf("%s: %s", ReasonUnparseable, check.Name())
}
