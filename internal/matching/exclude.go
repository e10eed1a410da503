package matching

import (
	"strconv"
	"strings"

	"github.com/spigell/part-recommender/internal/spec"
)

// Rejection reasons of the exclusion checks.
const (
	ReasonExcludedVendor = "excluded vendor"
	ReasonExcludedPart   = "excluded part number"
)

// Names of the exclusion checks.
const (
	CheckExcludedVendors = "excluded_vendors"
	CheckExcludedParts   = "excluded_parts"
)

// describer is implemented by checks that are not driven by a requirement
// field and report their own status.
type describer interface {
	Describe() Status
}

type exclusionCheck struct {
	name   string
	reason string
	values map[string]struct{}
	key    func(spec.Candidate) string
}

// NewExcludedVendors rejects candidates whose vendor is listed.
func NewExcludedVendors(vendors []string) Check {
	return newExclusion(CheckExcludedVendors, ReasonExcludedVendor, vendors, func(c spec.Candidate) string {
		return c.Vendor
	})
}

// NewExcludedParts rejects candidates whose part number is listed.
func NewExcludedParts(parts []string) Check {
	return newExclusion(CheckExcludedParts, ReasonExcludedPart, parts, func(c spec.Candidate) string {
		return c.PartNumber
	})
}

// ExclusionChecks returns the exclusion checks that have something to
// exclude.
func ExclusionChecks(vendors, parts []string) []Check {
	var checks []Check
	for _, check := range []Check{NewExcludedVendors(vendors), NewExcludedParts(parts)} {
		if len(check.(*exclusionCheck).values) > 0 {
			checks = append(checks, check)
		}
	}
	return checks
}

func newExclusion(name, reason string, values []string, key func(spec.Candidate) string) *exclusionCheck {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = foldKey(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return &exclusionCheck{name: name, reason: reason, values: set, key: key}
}

func (e *exclusionCheck) Name() string   { return e.name }
func (e *exclusionCheck) Reason() string { return e.reason }

func (e *exclusionCheck) Evaluate(_ spec.Requirement, c spec.Candidate) (Verdict, error) {
	if len(e.values) == 0 {
		return Skipped, nil
	}

	key := foldKey(e.key(c))
	if key == "" {
		return Skipped, nil
	}
	if _, found := e.values[key]; found {
		return Failed, nil
	}
	return Passed, nil
}

func (e *exclusionCheck) Describe() Status {
	if len(e.values) == 0 {
		return Status{Name: e.name, Enabled: false, Reason: "nothing excluded"}
	}
	return Status{
		Name:    e.name,
		Enabled: true,
		Details: map[string]string{"excluded": strconv.Itoa(len(e.values))},
	}
}

func foldKey(s string) string {
	return strings.ToLower(normalizeCode(s))
}
