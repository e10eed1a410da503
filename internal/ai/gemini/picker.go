package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/ai"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
	"github.com/spigell/part-recommender/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	systemInstruction   = "You pick replacement electronic components and answer in JSON."
)

// Picker asks Gemini to choose among ranked candidates.
type Picker struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Picker = (*Picker)(nil)

func NewPicker(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Picker {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Picker{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (p *Picker) Pick(ctx context.Context, req spec.Requirement, ranked []matching.Ranked) ([]ai.Pick, error) {
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no candidates to pick from")
	}

	requirementJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal requirement payload: %w", err)
	}

	candidatesJSON, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidates payload: %w", err)
	}

	prompt := buildPrompt(string(requirementJSON), string(candidatesJSON), len(ranked))

	p.logger.Debug("gemini generate content request",
		zap.Int("candidates", len(ranked)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, p.maxLogLen)),
	)

	raw, err := p.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(requirementJSON, candidatesJSON string, count int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Requirement:\n{{REQUIREMENT_JSON}}\n\nCandidates:\n{{CANDIDATES_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{REQUIREMENT_JSON}}", requirementJSON)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES_JSON}}", candidatesJSON)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATE_COUNT}}", strconv.Itoa(count))
	return prompt
}

// parseResponse accepts {"picks": [...]}, a bare list of picks, or a single
// pick object. Entries without a part number are skipped.
func parseResponse(raw string) ([]ai.Pick, error) {
	cleaned := extractJSON(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var entries []any
	switch val := data.(type) {
	case []any:
		entries = val
	case map[string]any:
		if list, ok := val["picks"].([]any); ok {
			entries = list
		} else {
			entries = []any{val}
		}
	default:
		return nil, fmt.Errorf("parse gemini response: unexpected %T", data)
	}

	picks := make([]ai.Pick, 0, len(entries))
	for _, entry := range entries {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		partNumber := coerceString(record["part_number"])
		if partNumber == "" {
			continue
		}
		picks = append(picks, ai.Pick{PartNumber: partNumber, Reason: coerceString(record["reason"])})
	}

	return picks, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
