package lakehouse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"macae/internal/store"
)

// Counter returns the number of rows in a table.
type Counter interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

func Summarize(ctx context.Context, c Counter, tables []string) ([]store.TableCount, error) {
	out := make([]store.TableCount, 0, len(tables))
	for _, t := range tables {
		n, err := c.CountRows(ctx, t)
		if err != nil {
			return out, err
		}
		out = append(out, store.TableCount{Table: t, Rows: n})
	}
	return out, nil
}

var rule = strings.Repeat("=", 80)

// WriteSummary prints the per-table row counts between rule lines.
func WriteSummary(w io.Writer, counts []store.TableCount) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LAKEHOUSE TABLES SUMMARY")
	fmt.Fprintln(w, rule)
	for _, c := range counts {
		fmt.Fprintf(w, "%-40s | Records: %6d\n", c.Table, c.Rows)
	}
	fmt.Fprintln(w, rule)
}
