// Package columnar writes dataset frames as Parquet files, one file per table.
package columnar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"macae/internal/dataset"
)

// Exporter writes Parquet snapshots of frames under Dir.
type Exporter struct {
	Dir      string
	Parallel int64
}

func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir, Parallel: 4}
}

// Export writes f to <Dir>/<f.Name>.parquet, replacing any previous snapshot, and
// returns the file path. The file is written next to its target and renamed into place.
func (e *Exporter) Export(f *dataset.Frame) (string, error) {
	if len(f.Columns) == 0 {
		return "", fmt.Errorf("parquet %s: frame has no columns", f.Name)
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", err
	}
	fields := Fields(f.Columns)
	schema, err := SchemaJSON(fields)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.Dir, f.Name+".parquet")
	tmp := path + ".tmp"

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	np := e.Parallel
	if np <= 0 {
		np = 1
	}
	pw, err := writer.NewJSONWriter(schema, fw, np)
	if err != nil {
		fw.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to create Parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range f.Rows {
		rec, err := Record(fields, row)
		if err != nil {
			fw.Close()
			os.Remove(tmp)
			return "", fmt.Errorf("parquet %s row %d: %w", f.Name, i, err)
		}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			os.Remove(tmp)
			return "", fmt.Errorf("parquet %s row %d: %w", f.Name, i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("parquet %s: %w", f.Name, err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}

// Field maps a frame column onto a Parquet leaf.
type Field struct {
	Column dataset.Column
	Name   string // stored column name
	InName string // key used in JSON records
}

// Fields derives Parquet-safe names for cols. Characters outside [A-Za-z0-9_] are
// replaced with '_'; internal names are capitalized and made unique.
func Fields(cols []dataset.Column) []Field {
	out := make([]Field, len(cols))
	used := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := sanitize(c.Name)
		in := strings.ToUpper(name[:1]) + name[1:]
		if !unicode.IsLetter(rune(in[0])) {
			in = "C" + in
		}
		base := in
		for n := 1; used[in]; n++ {
			in = fmt.Sprintf("%s_%d", base, n)
		}
		used[in] = true
		out[i] = Field{Column: c, Name: name, InName: in}
	}
	return out
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

type schemaNode struct {
	Tag    string       `json:"Tag"`
	Fields []schemaNode `json:"Fields,omitempty"`
}

// SchemaJSON renders the parquet-go JSON schema for fields. Every leaf is OPTIONAL.
func SchemaJSON(fields []Field) (string, error) {
	root := schemaNode{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, f := range fields {
		root.Fields = append(root.Fields, schemaNode{
			Tag: fmt.Sprintf("name=%s, inname=%s, %s, repetitiontype=OPTIONAL", f.Name, f.InName, physical(f.Column.Type)),
		})
	}
	b, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func physical(t dataset.Type) string {
	switch t {
	case dataset.TypeBigInt:
		return "type=INT64"
	case dataset.TypeDouble:
		return "type=DOUBLE"
	case dataset.TypeBoolean:
		return "type=BOOLEAN"
	case dataset.TypeDate:
		return "type=INT32, convertedtype=DATE"
	case dataset.TypeTimestamp:
		return "type=INT64, convertedtype=TIMESTAMP_MILLIS"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

// Record renders one frame row as a JSON record keyed by internal field names.
func Record(fields []Field, row []any) (string, error) {
	m := make(map[string]any, len(fields))
	for i, f := range fields {
		var v any
		if i < len(row) {
			v = row[i]
		}
		if v == nil {
			m[f.InName] = nil
			continue
		}
		switch f.Column.Type {
		case dataset.TypeDate:
			ts, ok := v.(time.Time)
			if !ok {
				return "", fmt.Errorf("column %s: expected time, got %T", f.Column.Name, v)
			}
			m[f.InName] = int32(ts.Unix() / 86400)
		case dataset.TypeTimestamp:
			ts, ok := v.(time.Time)
			if !ok {
				return "", fmt.Errorf("column %s: expected time, got %T", f.Column.Name, v)
			}
			m[f.InName] = ts.UnixMilli()
		case dataset.TypeJSON:
			raw, ok := v.(json.RawMessage)
			if !ok {
				return "", fmt.Errorf("column %s: expected json, got %T", f.Column.Name, v)
			}
			m[f.InName] = string(raw)
		default:
			m[f.InName] = v
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
