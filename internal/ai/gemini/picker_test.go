package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func sampleRanked() []matching.Ranked {
	return []matching.Ranked{
		{Candidate: spec.Candidate{PartNumber: "HCB1608KF-600T30", Current: spec.Number(3000)}, Score: 2999.9, MatchRate: 100},
		{Candidate: spec.Candidate{PartNumber: "HCB2012KF-601T20", Current: spec.Number(2000)}, Score: 1999.8, MatchRate: 100},
	}
}

func TestPickerPick(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "```json\n{\"picks\": [{\"part_number\": \"HCB2012KF-601T20\", \"reason\": \"more headroom\"}, {\"reason\": \"no part\"}]}\n```"}
	picker := NewPicker(stub, 0, zap.NewNop())

	req := spec.Requirement{Impedance: spec.Number(600), Current: spec.Number(1000)}
	picks, err := picker.Pick(context.Background(), req, sampleRanked())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(picks) != 1 || picks[0].PartNumber != "HCB2012KF-601T20" || picks[0].Reason != "more headroom" {
		t.Fatalf("unexpected picks: %+v", picks)
	}
	if stub.lastSystem != systemInstruction {
		t.Fatalf("unexpected system instruction %q", stub.lastSystem)
	}
	for _, want := range []string{`"impedance": 600`, "HCB1608KF-600T30", "2 entries"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, stub.lastPrompt)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", stub.lastPrompt)
	}
}

func TestPickerPropagatesGeneratorError(t *testing.T) {
	t.Parallel()

	picker := NewPicker(&stubGenerator{err: errors.New("quota")}, 0, nil)
	if _, err := picker.Pick(context.Background(), spec.Requirement{}, sampleRanked()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPickerRequiresCandidates(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{}
	if _, err := NewPicker(stub, 0, nil).Pick(context.Background(), spec.Requirement{}, nil); err == nil {
		t.Fatal("expected error for empty ranking")
	}
	if stub.lastPrompt != "" {
		t.Fatal("generator must not be called without candidates")
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "wrapped", raw: `{"picks":[{"part_number":"A"},{"part_number":"B"}]}`, want: []string{"A", "B"}},
		{name: "bare list", raw: `[{"part_number":" C "}]`, want: []string{"C"}},
		{name: "single object", raw: `{"part_number":"D","reason":"only one"}`, want: []string{"D"}},
		{name: "fenced", raw: "```\n[{\"part_number\":\"E\"}]\n```", want: []string{"E"}},
		{name: "non-record entries skipped", raw: `["A", {"part_number": 42}]`, want: []string{"42"}},
		{name: "not json", raw: "I recommend A", wantErr: true},
		{name: "scalar", raw: `"A"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			picks, err := parseResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", picks)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := make([]string, len(picks))
			for i, p := range picks {
				got[i] = p.PartNumber
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
