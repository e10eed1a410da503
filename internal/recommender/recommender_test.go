package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/ai"
	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/category"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

type staticSource struct {
	candidates []spec.Candidate
	err        error
}

func (s staticSource) Candidates(context.Context) ([]spec.Candidate, error) {
	return s.candidates, s.err
}

type memoryHistory struct {
	queries []catalog.Query
}

func (m *memoryHistory) SaveQuery(_ context.Context, q catalog.Query) error {
	m.queries = append(m.queries, q)
	return nil
}

type fixedPicker struct {
	picks []ai.Pick
}

func (f fixedPicker) Pick(context.Context, spec.Requirement, []matching.Ranked) ([]ai.Pick, error) {
	return f.picks, nil
}

func beads() []spec.Candidate {
	return []spec.Candidate{
		{PartNumber: "A", Current: spec.Number(500), DCR: spec.Number(0.05)},
		{PartNumber: "B", Current: spec.Number(3000), DCR: spec.Number(0.3)},
		{PartNumber: "C", Current: spec.Number(2000), DCR: spec.Number(0.1)},
		{PartNumber: "D", Current: spec.Number(1500), DCR: spec.Number(0.2)},
	}
}

func TestServiceRecommend(t *testing.T) {
	history := &memoryHistory{}
	svc := New(staticSource{candidates: beads()}, WithHistory(history), WithLogger(zap.NewNop()))

	resp, err := svc.Recommend(context.Background(), "run-1", Request{
		Requirement: spec.Requirement{Current: spec.Number(1000), Application: "電源濾波"},
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.RequestID)
	assert.Equal(t, matching.ModeCurrent, resp.Mode)
	assert.Equal(t, category.FerriteBead, resp.Category)
	assert.Len(t, resp.KeyMetrics, 5)
	require.Len(t, resp.Ranked, 3)
	assert.Equal(t, "B", resp.Ranked[0].PartNumber)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "A", resp.Rejected[0].PartNumber)
	assert.False(t, resp.PickedByAI)
	require.Len(t, resp.Picks, 3)
	assert.Equal(t, "B", resp.Picks[0].PartNumber)

	require.Len(t, history.queries, 1)
	assert.Equal(t, "run-1", history.queries[0].ID)
	assert.JSONEq(t, `{"current":1000,"application":"電源濾波"}`, string(history.queries[0].Requirement))

	var stored map[string]any
	require.NoError(t, json.Unmarshal(history.queries[0].Response, &stored))
	assert.Equal(t, "run-1", stored["request_id"])
	assert.Contains(t, stored, "picks")
}

func TestServiceRecommendUsesSuppliedCandidatesAndAI(t *testing.T) {
	selector := &ai.Selector{Picker: fixedPicker{picks: []ai.Pick{{PartNumber: "D", Reason: "balanced"}}}}
	svc := New(staticSource{err: errors.New("source must not be used")}, WithSelector(selector))

	resp, err := svc.Recommend(context.Background(), "", Request{
		Requirement: spec.Requirement{DCR: spec.Number(0.25)},
		Candidates:  beads(),
		Mode:        matching.ModeDCR,
		Top:         2,
		UseAI:       true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Ranked, 2)
	assert.Equal(t, "A", resp.Ranked[0].PartNumber)
	assert.Equal(t, "C", resp.Ranked[1].PartNumber)
	assert.False(t, resp.PickedByAI, "D was cut by top and cannot be picked")

	resp, err = svc.Recommend(context.Background(), "", Request{
		Requirement: spec.Requirement{DCR: spec.Number(0.25)},
		Candidates:  beads(),
		Mode:        matching.ModeDCR,
		UseAI:       true,
	})
	require.NoError(t, err)
	assert.True(t, resp.PickedByAI)
	require.Len(t, resp.Picks, 1)
	assert.Equal(t, "balanced", resp.Picks[0].Reason)
}

func TestServiceRecommendSkipsAIUnlessAsked(t *testing.T) {
	selector := &ai.Selector{Picker: fixedPicker{picks: []ai.Pick{{PartNumber: "D"}}}}
	svc := New(nil, WithSelector(selector))

	resp, err := svc.Recommend(context.Background(), "", Request{Candidates: beads()})
	require.NoError(t, err)
	assert.False(t, resp.PickedByAI)
	assert.Equal(t, "A", resp.Picks[0].PartNumber, "an unconstrained requirement keeps input order")
}

func TestServiceRecommendExclusions(t *testing.T) {
	candidates := beads()
	candidates[1].Vendor = "Murata"

	resp, err := New(nil).Recommend(context.Background(), "", Request{
		Requirement:    spec.Requirement{Current: spec.Number(1000)},
		Candidates:     candidates,
		ExcludeVendors: []string{"murata"},
		ExcludeParts:   []string{"c"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Ranked, 1)
	assert.Equal(t, "D", resp.Ranked[0].PartNumber)

	reasons := resp.RejectionReport()
	assert.Equal(t, matching.ReasonExcludedVendor, reasons["B"])
	assert.Equal(t, matching.ReasonExcludedPart, reasons["C"])
}

func TestServiceRecommendErrors(t *testing.T) {
	tests := []struct {
		name string
		svc  *Service
		req  Request
		is   error
	}{
		{
			name: "unknown ignored check",
			svc:  New(staticSource{}),
			req:  Request{Ignore: []string{"inductance"}},
			is:   spec.ErrInvalidArgument,
		},
		{
			name: "unknown mode",
			svc:  New(staticSource{}),
			req:  Request{Mode: "cheapest"},
			is:   spec.ErrInvalidArgument,
		},
		{
			name: "no source",
			svc:  New(nil),
			req:  Request{},
			is:   spec.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Recommend(context.Background(), "", tt.req)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := New(staticSource{err: errors.New("disk gone")}).Recommend(context.Background(), "", Request{})
	assert.ErrorContains(t, err, "load candidates")
}

func TestServiceRecommendAgainstStore(t *testing.T) {
	store, err := catalog.NewStore(filepath.Join(t.TempDir(), "specs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveSpec(ctx, map[string]any{"part_number": "BEAD", "category": "Ferrite Bead", "current": 2000}))
	require.NoError(t, store.SaveSpec(ctx, map[string]any{"part_number": "COIL", "category": "Chip Inductor", "current": 3000}))

	svc := New(store, WithHistory(store))
	resp, err := svc.Recommend(ctx, "with-store", Request{
		Requirement: spec.Requirement{Category: "Ferrite Bead", Current: spec.Number(1000)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Ranked, 1)
	assert.Equal(t, "BEAD", resp.Ranked[0].PartNumber)

	queries, err := store.RecentQueries(ctx, 5)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "with-store", queries[0].ID)
}
