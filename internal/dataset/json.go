package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"unicode"
)

// ReadJSON parses a JSON document holding either an array of objects or a sequence
// of objects. Records may span any number of lines. Columns are the union of all
// record keys, sorted by name.
func ReadJSON(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return &Frame{}, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var records []map[string]any
	if first == '[' {
		var arr []any
		if err := dec.Decode(&arr); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		for i, v := range arr {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json: element %d is not an object", i)
			}
			records = append(records, m)
		}
	} else {
		for {
			var m map[string]any
			err := dec.Decode(&m)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("json record %d: %w", len(records), err)
			}
			records = append(records, m)
		}
	}

	types := map[string]Type{}
	for _, rec := range records {
		for k, v := range rec {
			types[k] = merge(types[k], jsonType(v))
		}
	}
	names := make([]string, 0, len(types))
	for k := range types {
		names = append(names, k)
	}
	sort.Strings(names)

	f := &Frame{Columns: make([]Column, len(names))}
	for i, n := range names {
		t := types[n]
		if t == TypeNull {
			t = TypeText
		}
		f.Columns[i] = Column{Name: n, Type: t}
	}

	f.Rows = make([][]any, 0, len(records))
	for ri, rec := range records {
		row := make([]any, len(names))
		for i, c := range f.Columns {
			v, ok := rec[c.Name]
			if !ok || v == nil {
				continue
			}
			cv, err := convertJSON(v, c.Type)
			if err != nil {
				return nil, fmt.Errorf("json record %d field %s: %w", ri, c.Name, err)
			}
			row[i] = cv
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		r, _, err := br.ReadRune()
		if err != nil {
			return 0, err
		}
		if r == '\ufeff' || unicode.IsSpace(r) {
			continue
		}
		if err := br.UnreadRune(); err != nil {
			return 0, err
		}
		return byte(r), nil
	}
}

func jsonType(v any) Type {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeBigInt
		}
		return TypeDouble
	case string:
		return TypeText
	default:
		return TypeJSON
	}
}

func convertJSON(v any, t Type) (any, error) {
	switch t {
	case TypeBigInt:
		return v.(json.Number).Int64()
	case TypeDouble:
		return v.(json.Number).Float64()
	case TypeBoolean:
		return v.(bool), nil
	case TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	default:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			if x {
				return "true", nil
			}
			return "false", nil
		default:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
	}
}
