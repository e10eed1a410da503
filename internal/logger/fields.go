package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/spec"
)

const (
	FieldRequestID  = "request_id"
	FieldPartNumber = "part_number"
	FieldVendor     = "vendor"
	FieldCategory   = "category"
	FieldSource     = "source"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to
// a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CandidateFields describes a candidate in a log entry.
func CandidateFields(c spec.Candidate) []zap.Field {
	return StringFields(
		StringField{Key: FieldPartNumber, Value: c.Label()},
		StringField{Key: FieldVendor, Value: c.Vendor},
		StringField{Key: FieldCategory, Value: c.Category},
		StringField{Key: FieldSource, Value: c.SourceFilename},
	)
}

// RequirementFields lists the constrained fields of a requirement as one
// "constraints" field, plus the reference part number when present.
func RequirementFields(req spec.Requirement) []zap.Field {
	constrained := make([]string, 0, 6)
	for _, f := range []spec.Field{
		spec.FieldImpedance,
		spec.FieldCurrent,
		spec.FieldDCR,
		spec.FieldTempMin,
		spec.FieldTempMax,
		spec.FieldSize,
	} {
		if v := req.Get(f); v != nil {
			constrained = append(constrained, string(f)+"="+v.String())
		}
	}

	fields := StringFields(StringField{Key: "reference_part", Value: req.PartNumber})
	return append(fields, zap.Strings("constraints", constrained))
}

// AIFields returns the fields that describe the AI provider and model.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}
