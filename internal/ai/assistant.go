package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

const (
	// MaxPicks bounds how many products a pick may return.
	MaxPicks = 3
	// MaxCandidates bounds how many ranked products are offered to the picker.
	MaxCandidates = 30
)

// Pick is one product chosen by a Picker.
type Pick struct {
	PartNumber string `json:"part_number"`
	Reason     string `json:"reason,omitempty"`
}

// Picker chooses the best products among already ranked candidates.
type Picker interface {
	Pick(ctx context.Context, req spec.Requirement, ranked []matching.Ranked) ([]Pick, error)
}

// Selection is a ranked product together with the reason it was picked.
type Selection struct {
	matching.Ranked
	Reason string `json:"reason,omitempty"`
}

// Selector runs an optional Picker over a ranking and falls back to the
// ranking itself whenever the picker is absent, fails or answers nothing
// usable.
type Selector struct {
	Picker        Picker
	MinCandidates int
	Logger        *zap.Logger
}

// Select returns up to MaxPicks products and whether they came from the picker.
func (s *Selector) Select(ctx context.Context, req spec.Requirement, ranked []matching.Ranked) ([]Selection, bool) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if s.Picker == nil || len(ranked) == 0 || len(ranked) < s.MinCandidates {
		return fallback(ranked), false
	}

	offered := ranked
	if len(offered) > MaxCandidates {
		offered = offered[:MaxCandidates]
	}

	picks, err := s.Picker.Pick(ctx, req, offered)
	if err != nil {
		logger.Warn("ai pick failed, using ranking order", zap.Error(err))
		return fallback(ranked), false
	}

	selected := resolve(picks, offered)
	if len(selected) == 0 {
		logger.Warn("ai pick returned no known part numbers, using ranking order",
			zap.Int("picks", len(picks)),
		)
		return fallback(ranked), false
	}

	logger.Info("ai pick accepted", zap.Int("selected", len(selected)))
	return selected, true
}

// resolve keeps picks that name an offered part number, once each.
func resolve(picks []Pick, offered []matching.Ranked) []Selection {
	index := make(map[string]int, len(offered))
	for i, r := range offered {
		key := strings.ToLower(strings.TrimSpace(r.PartNumber))
		if _, seen := index[key]; key != "" && !seen {
			index[key] = i
		}
	}

	var selected []Selection
	used := make(map[int]bool)
	for _, p := range picks {
		i, ok := index[strings.ToLower(strings.TrimSpace(p.PartNumber))]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		selected = append(selected, Selection{Ranked: offered[i], Reason: strings.TrimSpace(p.Reason)})
		if len(selected) == MaxPicks {
			break
		}
	}

	return selected
}

func fallback(ranked []matching.Ranked) []Selection {
	n := min(len(ranked), MaxPicks)
	out := make([]Selection, n)
	for i := range n {
		out[i] = Selection{Ranked: ranked[i]}
	}
	return out
}
