// Package catalog ingests candidate product records from files and keeps them
// in a SQLite catalog together with the history of past queries.
package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/part-recommender/internal/spec"
)

// ErrUnsupportedFormat is returned for files whose extension no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Source yields candidate records for one recommendation run.
type Source interface {
	Candidates(ctx context.Context) ([]spec.Candidate, error)
}

// CategorySource can narrow its candidates to one category.
type CategorySource interface {
	CandidatesInCategory(ctx context.Context, name string) ([]spec.Candidate, error)
}

// Load returns the candidates of src. When category is set and src can
// filter by category, only that category is loaded.
func Load(ctx context.Context, src Source, category string) ([]spec.Candidate, error) {
	if cs, ok := src.(CategorySource); ok && strings.TrimSpace(category) != "" {
		return cs.CandidatesInCategory(ctx, category)
	}
	return src.Candidates(ctx)
}

// FileSource reads candidates straight from a JSON, YAML or CSV file.
type FileSource struct {
	Path string
}

func (s FileSource) Candidates(ctx context.Context) ([]spec.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := ReadRows(s.Path)
	if err != nil {
		return nil, err
	}

	return spec.DecodeCandidates(rows)
}

// ReadRows loads the untyped records of a file. JSON and YAML files hold
// either a list of records or a mapping with a "candidates" list. CSV files
// use their first line as headers.
func ReadRows(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if doc, err = DecodeYAML(data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".csv":
		return readCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if wrapped, ok := doc.(map[string]any); ok {
		if list, found := wrapped["candidates"]; found {
			doc = list
		}
	}

	rows, ok := doc.([]any)
	if !ok {
		return nil, spec.NewInvalidArgumentError("candidates", fmt.Sprintf("%s does not hold a list of records", path))
	}

	return rows, nil
}

func readCSV(r io.Reader) ([]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return []any{}, nil
	}

	headers := records[0]
	rows := make([]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(record) && record[i] != "" {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// LoadRequirement reads a requirement mapping from a JSON or YAML file.
func LoadRequirement(path string) (spec.Requirement, error) {
	record, err := ReadRequirement(path)
	if err != nil {
		return spec.Requirement{}, err
	}
	return spec.DecodeRequirement(record)
}

// ReadRequirement returns the untyped requirement mapping of a JSON or YAML
// file, for callers that merge it with other sources before decoding.
func ReadRequirement(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var record map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&record)
	case ".yaml", ".yml":
		var doc any
		if doc, err = DecodeYAML(data); err == nil && doc != nil {
			var ok bool
			if record, ok = doc.(map[string]any); !ok {
				return nil, spec.NewInvalidArgumentError("requirement", fmt.Sprintf("%s does not hold a mapping", path))
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return record, nil
}
