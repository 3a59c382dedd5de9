// Package dataset parses CSV and JSON files into typed, in-memory frames.
//
// Column types are inferred from the data: every non-empty value of a column is
// inspected and the narrowest type that fits all of them is chosen. Empty CSV cells
// and JSON nulls become nil.
package dataset

import (
	"fmt"
	"os"
	"strings"
)

// Format is the on-disk format of a dataset file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Type is an inferred column type.
type Type int

const (
	TypeNull Type = iota // no non-null value seen yet
	TypeBigInt
	TypeDouble
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeText
	TypeJSON
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBigInt:
		return "bigint"
	case TypeDouble:
		return "double"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeText:
		return "text"
	case TypeJSON:
		return "json"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// merge returns the narrowest type able to hold values of both a and b.
func merge(a, b Type) Type {
	switch {
	case a == b:
		return a
	case a == TypeNull:
		return b
	case b == TypeNull:
		return a
	case (a == TypeBigInt && b == TypeDouble) || (a == TypeDouble && b == TypeBigInt):
		return TypeDouble
	case (a == TypeDate && b == TypeTimestamp) || (a == TypeTimestamp && b == TypeDate):
		return TypeTimestamp
	default:
		return TypeText
	}
}

type Column struct {
	Name string
	Type Type
}

// Frame is a parsed dataset. Row values are nil, int64, float64, bool,
// time.Time, string or json.RawMessage, according to the column type.
type Frame struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// Schema renders the frame's schema as an indented tree.
func (f *Frame) Schema() string {
	var b strings.Builder
	b.WriteString("root\n")
	for _, c := range f.Columns {
		fmt.Fprintf(&b, " |-- %s: %s (nullable = true)\n", c.Name, c.Type)
	}
	return b.String()
}

// ReadFile parses the file at path in the given format. The frame is named name.
func ReadFile(path string, format Format, name string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var f *Frame
	switch format {
	case FormatCSV:
		f, err = ReadCSV(fh)
	case FormatJSON:
		f, err = ReadJSON(fh)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Name = name
	return f, nil
}
