package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ReadCSV parses a CSV document whose first record is the header row.
// Short records are padded with nulls and extra fields are dropped.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	names := headerNames(header)

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		records = append(records, rec)
	}

	types := make([]Type, len(names))
	for _, rec := range records {
		for i := range names {
			if i < len(rec) && rec[i] != "" {
				types[i] = merge(types[i], classify(rec[i]))
			}
		}
	}

	f := &Frame{Columns: make([]Column, len(names))}
	for i, n := range names {
		t := types[i]
		if t == TypeNull {
			t = TypeText
		}
		f.Columns[i] = Column{Name: n, Type: t}
	}

	f.Rows = make([][]any, 0, len(records))
	for line, rec := range records {
		row := make([]any, len(names))
		for i, c := range f.Columns {
			if i >= len(rec) || rec[i] == "" {
				continue
			}
			v, err := convertText(rec[i], c.Type)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %s: %w", line+2, c.Name, err)
			}
			row[i] = v
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// headerNames cleans the header row: a leading BOM is stripped, blank names become
// _c<index> and repeated names get their index appended.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("_c%d", i)
		}
		out[i] = h
		counts[h]++
	}
	for i, h := range out {
		if counts[h] > 1 {
			out[i] = fmt.Sprintf("%s%d", h, i)
		}
	}
	return out
}

// classify returns the narrowest type that can represent s.
func classify(s string) Type {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypeBigInt
	}
	if strings.ContainsAny(s, "0123456789") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return TypeDouble
		}
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return TypeBoolean
	}
	if _, err := time.Parse(dateLayout, s); err == nil {
		return TypeDate
	}
	if _, ok := parseTimestamp(s); ok {
		return TypeTimestamp
	}
	return TypeText
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func convertText(s string, t Type) (any, error) {
	switch t {
	case TypeBigInt:
		return strconv.ParseInt(s, 10, 64)
	case TypeDouble:
		return strconv.ParseFloat(s, 64)
	case TypeBoolean:
		return strings.EqualFold(s, "true"), nil
	case TypeDate:
		return time.Parse(dateLayout, s)
	case TypeTimestamp:
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d, nil
		}
		if ts, ok := parseTimestamp(s); ok {
			return ts, nil
		}
		return nil, fmt.Errorf("invalid timestamp %q", s)
	default:
		return s, nil
	}
}
