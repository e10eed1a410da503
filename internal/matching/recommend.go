package matching

import (
	"strings"

	"github.com/spigell/part-recommender/internal/spec"
)

// RankMode selects between the single-key priorities and the composite score.
type RankMode string

const (
	ModeCurrent RankMode = RankMode(PriorityCurrent)
	ModeDCR     RankMode = RankMode(PriorityDCR)
	ModeScore   RankMode = "score"
)

// ParseRankMode accepts current, dcr or score.
func ParseRankMode(s string) (RankMode, error) {
	mode := RankMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case ModeCurrent, ModeDCR, ModeScore:
		return mode, nil
	default:
		return "", spec.NewInvalidArgumentError("rank mode", "expected current, dcr or score, got "+s)
	}
}

// Recommend filters candidates, orders the matched ones by mode and keeps at
// most top of them (all when top is not positive). Every ranked entry carries
// its composite score and match rate whatever the mode.
func (m *Matcher) Recommend(req spec.Requirement, candidates []spec.Candidate, mode RankMode, top int) (*Recommendation, error) {
	var (
		result *Result
		ranked []Ranked
		err    error
	)

	normalized := spec.Normalize(req)

	switch mode {
	case ModeScore:
		result = m.Filter(normalized, candidates)
		ranked = RankByScore(normalized, result.Matched)
	case ModeCurrent, ModeDCR:
		result, err = m.FilterAndRank(normalized, candidates, Priority(mode))
		if err != nil {
			return nil, err
		}
		ranked = make([]Ranked, len(result.Matched))
		for i, c := range result.Matched {
			ranked[i] = Ranked{Candidate: c, Score: Score(normalized, c), MatchRate: MatchRate(normalized, c)}
		}
	default:
		return nil, spec.NewInvalidArgumentError("rank mode", "unknown rank mode "+string(mode))
	}

	rec := &Recommendation{
		Requirement: normalized,
		Mode:        mode,
		Ranked:      ranked,
		Rejected:    result.Rejected,
		Checks:      m.Describe(normalized),
	}
	rec.Ranked = rec.Top(top)

	return rec, nil
}

// Recommend runs Matcher.Recommend with the default checks.
func Recommend(req spec.Requirement, candidates []spec.Candidate, mode RankMode, top int) (*Recommendation, error) {
	return defaultMatcher.Recommend(req, candidates, mode, top)
}
