package matching

import (
	"reflect"
	"testing"

	"github.com/spigell/part-recommender/internal/spec"
)

func TestExclusionChecks(t *testing.T) {
	t.Parallel()

	candidates := []spec.Candidate{
		{PartNumber: "HCB1608KF-121T30", Vendor: "Tai-Tech", Current: spec.Number(3000)},
		{PartNumber: "BLM18PG121SN1", Vendor: "Murata", Current: spec.Number(2000)},
		{PartNumber: "MPZ1608S121A", Vendor: "TDK", Current: spec.Number(3000)},
		{PartNumber: "NOVENDOR", Current: spec.Number(1000)},
	}

	m := New(WithExtraChecks(ExclusionChecks([]string{" murata "}, []string{"mpz1608s121a", ""})...))
	result := m.Filter(spec.Requirement{Current: spec.Number(500)}, candidates)

	if got, want := partNumbers(result.Matched), []string{"HCB1608KF-121T30", "NOVENDOR"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("matched = %v, want %v", got, want)
	}

	reasons := map[string][]string{}
	for _, r := range result.Rejected {
		reasons[r.PartNumber] = r.Reasons
	}
	if got := reasons["BLM18PG121SN1"]; !reflect.DeepEqual(got, []string{ReasonExcludedVendor}) {
		t.Fatalf("murata reasons = %v", got)
	}
	if got := reasons["MPZ1608S121A"]; !reflect.DeepEqual(got, []string{ReasonExcludedPart}) {
		t.Fatalf("tdk reasons = %v", got)
	}
}

func TestExclusionChecksSkipEmptyLists(t *testing.T) {
	t.Parallel()

	if checks := ExclusionChecks(nil, []string{" ", ""}); len(checks) != 0 {
		t.Fatalf("expected no checks, got %d", len(checks))
	}

	verdict, err := NewExcludedVendors(nil).Evaluate(spec.Requirement{}, spec.Candidate{Vendor: "TDK"})
	if err != nil || verdict != Skipped {
		t.Fatalf("verdict = %v, err = %v", verdict, err)
	}
}

func TestDescribeExclusions(t *testing.T) {
	t.Parallel()

	m := New(WithExtraChecks(NewExcludedVendors([]string{"TDK", "tdk", "Murata"}), NewExcludedParts(nil)))
	statuses := m.Describe(spec.Requirement{})

	byName := map[string]Status{}
	for _, s := range statuses {
		byName[s.Name] = s
	}

	vendors := byName[CheckExcludedVendors]
	if !vendors.Enabled || vendors.Details["excluded"] != "2" {
		t.Fatalf("vendors status = %+v", vendors)
	}

	parts := byName[CheckExcludedParts]
	if parts.Enabled || parts.Reason != "nothing excluded" {
		t.Fatalf("parts status = %+v", parts)
	}
}
