package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ImportReport summarises one Import call.
type ImportReport struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	// Incomplete maps part numbers to the required fields their rows lacked.
	// Such rows are still saved.
	Incomplete map[string][]string `json:"incomplete,omitempty"`
}

// Import normalizes rows and upserts them into the store. Rows that are not
// records or carry no part number are skipped and logged; a database error
// aborts the import.
func (s *Store) Import(ctx context.Context, rows []any, d RowDefaults, logger *zap.Logger) (*ImportReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	report := &ImportReport{Incomplete: make(map[string][]string)}
	for i, row := range rows {
		record, ok := row.(map[string]any)
		if !ok {
			logger.Warn("skipping row that is not a record", zap.Int("row", i+1), zap.String("type", fmt.Sprintf("%T", row)))
			report.Skipped++
			continue
		}

		normalized, missing := NormalizeRow(record, d)

		if pn, ok := normalized["part_number"]; ok {
			normalized["part_number"] = fmt.Sprint(pn)
		}
		partNumber, _ := normalized["part_number"].(string)
		if partNumber == "" {
			logger.Warn("skipping row without part number", zap.Int("row", i+1))
			report.Skipped++
			continue
		}

		if err := s.SaveSpec(ctx, normalized); err != nil {
			return report, fmt.Errorf("saving row %d (%s): %w", i+1, partNumber, err)
		}
		report.Saved++

		if len(missing) > 0 {
			logger.Debug("row lacks required fields",
				zap.String("part_number", partNumber),
				zap.Strings("missing", missing),
			)
			report.Incomplete[partNumber] = missing
		}
	}

	return report, nil
}
