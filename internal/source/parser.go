// Package source discovers and parses the TBI CSV tables.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/tbidash/internal/model"
)

// Sentinel errors returned by the parser.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrUnknownKind   = errors.New("unknown table kind")
	ErrEmptyFile     = errors.New("file has no header row")
)

var requiredColumns = map[model.Kind][]string{
	model.KindAge:      {"age_group", "type", "injury_mechanism", "number_est", "rate_est"},
	model.KindYear:     {"injury_mechanism", "type", "year", "rate_est", "number_est"},
	model.KindMilitary: {"service", "component", "severity", "diagnosed", "year"},
}

// Columns returns the column set expected for kind, in file order.
func Columns(k model.Kind) []string {
	cols := requiredColumns[k]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// ParseFile reads a discovered CSV file into records.
func ParseFile(df DiscoveredFile) ParseResult {
	if df.Missing {
		return ParseResult{Kind: df.Kind, Err: fmt.Errorf("%s: %w", df.Path, os.ErrNotExist)}
	}
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Kind: df.Kind, Err: err}
	}
	defer func() { _ = f.Close() }()

	return Parse(df.Kind, f)
}

// Parse reads CSV data for kind from r.
//
// Columns are matched by their snake_cased header name, so extra columns and
// reordering are tolerated. A missing required column fails the whole file.
// Rows with the wrong number of fields or an unparsable number are skipped and
// counted in ParseErrors. NA and empty numeric cells become nil estimates.
func Parse(kind model.Kind, r io.Reader) ParseResult {
	res := ParseResult{Kind: kind}

	cols, ok := requiredColumns[kind]
	if !ok {
		res.Err = fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		return res
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		res.Err = ErrEmptyFile
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("reading header: %w", err)
		return res
	}

	idx, err := indexColumns(header, cols)
	if err != nil {
		res.Err = err
		return res
	}
	width := len(header)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil || len(row) != width {
			res.ParseErrors++
			continue
		}

		switch kind {
		case model.KindAge:
			rec, ok := parseAgeRow(row, idx)
			if !ok {
				res.ParseErrors++
				continue
			}
			res.Age = append(res.Age, rec)
		case model.KindYear:
			rec, ok := parseYearRow(row, idx)
			if !ok {
				res.ParseErrors++
				continue
			}
			res.Year = append(res.Year, rec)
		case model.KindMilitary:
			rec, ok := parseMilitaryRow(row, idx)
			if !ok {
				res.ParseErrors++
				continue
			}
			res.Military = append(res.Military, rec)
		}
	}

	return res
}

// indexColumns maps each required column to its position in header.
func indexColumns(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		key := toSnakeCase(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseAgeRow(row []string, idx map[string]int) (model.AgeRecord, bool) {
	num, err1 := parseEstimate(row[idx["number_est"]])
	rate, err2 := parseEstimate(row[idx["rate_est"]])
	if err1 != nil || err2 != nil {
		return model.AgeRecord{}, false
	}
	return model.AgeRecord{
		AgeGroup:        cell(row, idx, "age_group"),
		Type:            cell(row, idx, "type"),
		InjuryMechanism: cell(row, idx, "injury_mechanism"),
		NumberEst:       num,
		RateEst:         rate,
	}, true
}

func parseYearRow(row []string, idx map[string]int) (model.YearRecord, bool) {
	year, err := parseYear(row[idx["year"]])
	if err != nil {
		return model.YearRecord{}, false
	}
	rate, err1 := parseEstimate(row[idx["rate_est"]])
	num, err2 := parseEstimate(row[idx["number_est"]])
	if err1 != nil || err2 != nil {
		return model.YearRecord{}, false
	}
	return model.YearRecord{
		InjuryMechanism: cell(row, idx, "injury_mechanism"),
		Type:            cell(row, idx, "type"),
		Year:            year,
		RateEst:         rate,
		NumberEst:       num,
	}, true
}

func parseMilitaryRow(row []string, idx map[string]int) (model.MilitaryRecord, bool) {
	year, err := parseYear(row[idx["year"]])
	if err != nil {
		return model.MilitaryRecord{}, false
	}
	diag, err := parseEstimate(row[idx["diagnosed"]])
	if err != nil {
		return model.MilitaryRecord{}, false
	}
	return model.MilitaryRecord{
		Service:   cell(row, idx, "service"),
		Component: cell(row, idx, "component"),
		Severity:  cell(row, idx, "severity"),
		Diagnosed: diag,
		Year:      year,
	}, true
}

// cell returns a trimmed copy of a string field. Copying matters because the
// reader reuses its record buffer.
func cell(row []string, idx map[string]int, col string) string {
	return strings.Clone(strings.TrimSpace(row[idx[col]]))
}

// parseEstimate parses an optional numeric estimate.
func parseEstimate(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", "NAN", "NULL", "-":
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	// Exports from pandas sometimes write integer columns as "2006.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}

// toSnakeCase converts "Age Group" to "age_group".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
