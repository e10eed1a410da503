package matching

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/spigell/part-recommender/internal/spec"
)

// Priority selects the single key used to order matched candidates.
type Priority string

const (
	// PriorityCurrent ranks higher rated current first.
	PriorityCurrent Priority = "current"
	// PriorityDCR ranks lower DC resistance first.
	PriorityDCR Priority = "dcr"
)

// Valid reports whether p is one of the known ranking priorities.
func (p Priority) Valid() bool {
	return p == PriorityCurrent || p == PriorityDCR
}

// ParsePriority accepts only the closed set of priority keys.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", spec.NewInvalidArgumentError("priority", "expected current or dcr, got "+s)
	}
	return p, nil
}

type keyed struct {
	candidate spec.Candidate
	key       float64
	ok        bool
}

// Rank returns a new slice ordered by priority. The sort is stable, and
// candidates without a usable key keep their input order after the others.
func Rank(candidates []spec.Candidate, priority Priority) ([]spec.Candidate, error) {
	if !priority.Valid() {
		return nil, spec.NewInvalidArgumentError("priority", "unknown priority "+string(priority))
	}

	field := spec.Field(priority)
	items := make([]keyed, len(candidates))
	for i, c := range candidates {
		items[i].candidate = c
		if v := c.Get(field); v != nil {
			if f, err := v.Float(); err == nil {
				items[i].key, items[i].ok = f, true
			}
		}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		if priority == PriorityCurrent {
			return cmp.Compare(b.key, a.key)
		}
		return cmp.Compare(a.key, b.key)
	})

	out := make([]spec.Candidate, len(items))
	for i, item := range items {
		out[i] = item.candidate
	}
	return out, nil
}

// Score is the composite ranking key:
//
//	current - |impedance - requested impedance| - dcr
//
// A term counts only when the requirement sets the field and the candidate
// value parses; otherwise it contributes 0.
func Score(req spec.Requirement, c spec.Candidate) float64 {
	var score float64

	if req.Current != nil {
		if current, err := c.Current.Float(); err == nil {
			score += current
		}
	}

	if req.Impedance != nil {
		want, errWant := req.Impedance.Float()
		have, errHave := c.Impedance.Float()
		if errWant == nil && errHave == nil {
			score -= math.Abs(have - want)
		}
	}

	if req.DCR != nil {
		if dcr, err := c.DCR.Float(); err == nil {
			score -= dcr
		}
	}

	return score
}

// RankByScore orders candidates by descending composite score. Ties keep
// input order.
func RankByScore(req spec.Requirement, candidates []spec.Candidate) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c, Score: Score(req, c), MatchRate: MatchRate(req, c)}
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return ranked
}

// MatchRate is the percentage of evaluated numeric checks the candidate
// passes, rounded to two decimals. It is 0 when nothing could be evaluated.
func MatchRate(req spec.Requirement, c spec.Candidate) float64 {
	req = spec.Normalize(req)

	var passed, total int
	for _, check := range rateChecks() {
		verdict, _ := check.Evaluate(req, c)
		if verdict == Skipped {
			continue
		}
		total++
		if verdict == Passed {
			passed++
		}
	}

	if total == 0 {
		return 0
	}

	return math.Round(float64(passed)/float64(total)*100*100) / 100
}
