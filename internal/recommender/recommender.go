// Package recommender runs a complete recommendation: it loads candidates,
// filters and ranks them, optionally lets an AI picker choose the final
// products, and records the run in the query history.
package recommender

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/ai"
	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/category"
	"github.com/spigell/part-recommender/internal/logger"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

// HistoryStore records finished runs.
type HistoryStore interface {
	SaveQuery(ctx context.Context, q catalog.Query) error
}

// Request describes one run. Candidates, when non-nil, replace the
// configured source.
type Request struct {
	Requirement spec.Requirement
	Candidates  []spec.Candidate
	Mode        matching.RankMode
	Top         int
	Ignore      []string
	UseAI       bool
	// ExcludeVendors and ExcludeParts reject matching candidates outright.
	ExcludeVendors []string
	ExcludeParts   []string
}

// Response is a recommendation enriched with category information and the
// final picks.
type Response struct {
	*matching.Recommendation
	Category   string         `json:"category,omitempty"`
	KeyMetrics []spec.Field   `json:"key_metrics,omitempty"`
	Picks      []ai.Selection `json:"picks"`
	PickedByAI bool           `json:"picked_by_ai"`
}

// Service wires the ranking core to its collaborators.
type Service struct {
	source   catalog.Source
	history  HistoryStore
	selector *ai.Selector
	logger   *zap.Logger
}

type Option func(*Service)

// WithHistory records every run in h.
func WithHistory(h HistoryStore) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithSelector enables AI picks for requests that ask for them.
func WithSelector(selector *ai.Selector) Option {
	return func(s *Service) {
		s.selector = selector
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(source catalog.Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs req under the given request id; an empty id gets a fresh one.
func (s *Service) Recommend(ctx context.Context, id string, req Request) (*Response, error) {
	if id == "" {
		id = uuid.New().String()
	}
	log := s.logger.With(zap.String(logger.FieldRequestID, id))

	mode := req.Mode
	if mode == "" {
		mode = matching.ModeCurrent
	}

	disabled, err := matching.Disable("ignored by request", req.Ignore...)
	if err != nil {
		return nil, err
	}
	opts := append(disabled,
		matching.WithExtraChecks(matching.ExclusionChecks(req.ExcludeVendors, req.ExcludeParts)...),
		matching.WithLogger(log),
	)
	matcher := matching.New(opts...)

	name, metrics := category.Resolve(req.Requirement.Category, req.Requirement.Application)

	candidates := req.Candidates
	if candidates == nil {
		if s.source == nil {
			return nil, spec.NewInvalidArgumentError("candidates", "no candidates supplied and no catalog configured")
		}
		candidates, err = catalog.Load(ctx, s.source, req.Requirement.Category)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
	}

	log.Info("recommendation started",
		append(logger.RequirementFields(req.Requirement),
			zap.Int("candidates", len(candidates)),
			zap.String("mode", string(mode)),
			zap.String(logger.FieldCategory, name),
		)...,
	)

	rec, err := matcher.Recommend(req.Requirement, candidates, mode, req.Top)
	if err != nil {
		return nil, err
	}
	rec.RequestID = id

	selector := &ai.Selector{Logger: log}
	if req.UseAI && s.selector != nil {
		selector = s.selector
	}
	picks, byAI := selector.Select(ctx, rec.Requirement, rec.Ranked)

	resp := &Response{
		Recommendation: rec,
		Category:       name,
		KeyMetrics:     metrics,
		Picks:          picks,
		PickedByAI:     byAI,
	}

	log.Info("recommendation completed",
		zap.Int("ranked", rec.Len()),
		zap.Int("rejected", len(rec.Rejected)),
		zap.Int("picks", len(picks)),
		zap.Bool("picked_by_ai", byAI),
	)

	s.record(ctx, log, resp)

	return resp, nil
}

func (s *Service) record(ctx context.Context, log *zap.Logger, resp *Response) {
	if s.history == nil {
		return
	}

	requirement, err := json.Marshal(resp.Requirement)
	if err != nil {
		log.Warn("cannot encode requirement for history", zap.Error(err))
		return
	}
	response, err := json.Marshal(resp)
	if err != nil {
		log.Warn("cannot encode response for history", zap.Error(err))
		return
	}

	if err := s.history.SaveQuery(ctx, catalog.Query{
		ID:          resp.RequestID,
		Requirement: requirement,
		Response:    response,
	}); err != nil {
		log.Warn("cannot record query history", zap.Error(err))
	}
}
