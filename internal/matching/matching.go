// Package matching filters candidate products against a requirement and
// orders the survivors.
//
// Every function here is pure over its inputs: nothing is cached between
// calls and no input is modified, so a Matcher can be shared by concurrent
// callers without locking.
package matching

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/spec"
)

// Step describes how a single check behaved over one batch.
type Step struct {
	Name        string `json:"name"`
	Evaluated   int    `json:"evaluated"`
	Dropped     int    `json:"dropped"`
	Unparseable int    `json:"unparseable"`
}

// Status represents runtime information about a check for a requirement.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Matcher runs a fixed set of checks.
type Matcher struct {
	checks   []Check
	disabled map[string]string
	logger   *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger used for per-check statistics.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithChecks replaces the default checks.
func WithChecks(checks ...Check) Option {
	return func(m *Matcher) {
		m.checks = append([]Check(nil), checks...)
	}
}

// WithExtraChecks appends checks after the configured ones.
func WithExtraChecks(checks ...Check) Option {
	return func(m *Matcher) {
		m.checks = append(m.checks, checks...)
	}
}

// WithDisabled keeps the named check in the list but never evaluates it.
func WithDisabled(name, reason string) Option {
	return func(m *Matcher) {
		m.disabled[name] = reason
	}
}

// Disable returns options that disable each named check. Names are matched
// case-insensitively against DefaultChecks; an unknown name is a caller error.
func Disable(reason string, names ...string) ([]Option, error) {
	known := make(map[string]bool)
	for _, c := range DefaultChecks() {
		known[c.Name()] = true
	}

	opts := make([]Option, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, spec.NewInvalidArgumentError("check", "unknown check "+name)
		}
		opts = append(opts, WithDisabled(name, reason))
	}

	return opts, nil
}

// New creates a Matcher with the default checks.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		checks:   DefaultChecks(),
		disabled: make(map[string]string),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

var defaultMatcher = New()

// FilterAndRank partitions candidates with the default checks and ranks the
// matched ones by priority.
func FilterAndRank(req spec.Requirement, candidates []spec.Candidate, priority Priority) (*Result, error) {
	return defaultMatcher.FilterAndRank(req, candidates, priority)
}

// Filter partitions candidates with the default checks, keeping input order.
func Filter(req spec.Requirement, candidates []spec.Candidate) *Result {
	return defaultMatcher.Filter(req, candidates)
}

// FilterAndRank normalizes req, partitions candidates and ranks the matched
// ones. A requirement that constrains nothing keeps the input order. The
// only error is an invalid priority.
func (m *Matcher) FilterAndRank(req spec.Requirement, candidates []spec.Candidate, priority Priority) (*Result, error) {
	if !priority.Valid() {
		return nil, spec.NewInvalidArgumentError("priority", "unknown priority "+string(priority))
	}

	result := m.Filter(req, candidates)
	if req.IsEmpty() {
		return result, nil
	}

	ranked, err := Rank(result.Matched, priority)
	if err != nil {
		return nil, err
	}
	result.Matched = ranked

	return result, nil
}

// Filter normalizes req and evaluates every enabled check against every
// candidate. All failing reasons of a candidate are collected.
func (m *Matcher) Filter(req spec.Requirement, candidates []spec.Candidate) *Result {
	req = spec.Normalize(req)

	active := m.active()
	steps := make([]Step, len(active))
	for i, check := range active {
		steps[i].Name = check.Name()
	}

	result := &Result{
		Matched:  make([]spec.Candidate, 0, len(candidates)),
		Rejected: make([]Rejection, 0),
	}

	for _, candidate := range candidates {
		if err := candidate.Malformed(); err != nil {
			m.logger.Warn("skipping malformed candidate record",
				zap.String("part_number", candidate.Label()),
				zap.Error(err),
			)
			result.Rejected = append(result.Rejected, Rejection{
				Candidate: candidate,
				Reasons:   []string{ReasonUnparseableRecord},
			})
			continue
		}

		reasons := evaluate(active, steps, req, candidate)
		if len(reasons) == 0 {
			result.Matched = append(result.Matched, candidate)
			continue
		}

		m.logger.Debug("candidate rejected",
			zap.String("part_number", candidate.Label()),
			zap.Strings("reasons", reasons),
		)
		result.Rejected = append(result.Rejected, Rejection{Candidate: candidate, Reasons: reasons})
	}

	for _, step := range steps {
		m.logger.Debug("check step",
			zap.String("name", step.Name),
			zap.Int("evaluated", step.Evaluated),
			zap.Int("dropped", step.Dropped),
			zap.Int("unparseable", step.Unparseable),
		)
	}

	m.logger.Info("filtering completed",
		zap.Int("initial_candidates", len(candidates)),
		zap.Int("matched_candidates", len(result.Matched)),
		zap.Int("rejected_candidates", len(result.Rejected)),
	)

	result.Steps = steps
	return result
}

func evaluate(checks []Check, steps []Step, req spec.Requirement, candidate spec.Candidate) []string {
	var reasons []string
	for i, check := range checks {
		verdict, err := check.Evaluate(req, candidate)
		switch verdict {
		case Skipped:
			continue
		case Failed:
			steps[i].Dropped++
			reasons = append(reasons, check.Reason())
		case Unparseable:
			steps[i].Unparseable++
			reasons = append(reasons, unparseableReason(check, err))
		}
		steps[i].Evaluated++
	}
	return reasons
}

func (m *Matcher) active() []Check {
	active := make([]Check, 0, len(m.checks))
	for _, check := range m.checks {
		if _, off := m.disabled[check.Name()]; off {
			continue
		}
		active = append(active, check)
	}
	return active
}

// Describe returns status entries for the checks of m against req.
func (m *Matcher) Describe(req spec.Requirement) []Status {
	req = spec.Normalize(req)

	statuses := make([]Status, 0, len(m.checks))
	for _, check := range m.checks {
		status := Status{Name: check.Name(), Enabled: true}

		if reason, off := m.disabled[check.Name()]; off {
			status.Enabled = false
			status.Reason = reason
			statuses = append(statuses, status)
			continue
		}

		if d, ok := check.(describer); ok {
			statuses = append(statuses, d.Describe())
			continue
		}

		target := req.Get(spec.Field(check.Name()))
		if target == nil {
			status.Enabled = false
			status.Reason = "unconstrained"
			statuses = append(statuses, status)
			continue
		}

		status.Details = map[string]string{"target": target.String()}
		if check.Name() == string(spec.FieldImpedance) {
			status.Details["tolerance"] = req.ImpedanceTolerance.String()
		}
		statuses = append(statuses, status)
	}

	return statuses
}
