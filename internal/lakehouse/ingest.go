package lakehouse

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"macae/internal/dataset"
)

// TableWriter replaces a managed table with the contents of a frame.
type TableWriter interface {
	OverwriteTable(ctx context.Context, f *dataset.Frame) (int64, error)
}

// Snapshotter writes a columnar copy of a frame and returns its location.
type Snapshotter interface {
	Export(f *dataset.Frame) (string, error)
}

// Ingester loads datasets one after another. The first failure stops the run.
type Ingester struct {
	Tables    TableWriter
	Snapshots Snapshotter // optional
	BaseDir   string
	Datasets  []Dataset
	Log       logrus.FieldLogger
}

// TableResult describes one loaded table.
type TableResult struct {
	Table    string `json:"table"`
	File     string `json:"file"`
	Columns  int    `json:"columns"`
	Rows     int64  `json:"rows"`
	SHA256   string `json:"sha256"`
	Snapshot string `json:"snapshot,omitempty"`
}

func (in *Ingester) Run(ctx context.Context) ([]TableResult, error) {
	datasets := in.Datasets
	if datasets == nil {
		datasets = Catalog
	}
	dir := in.BaseDir
	if dir == "" {
		dir = DefaultFilesDir
	}

	var out []TableResult
	for _, d := range datasets {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := in.load(ctx, dir, d)
		if err != nil {
			return out, fmt.Errorf("ingest %s: %w", d.Table, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (in *Ingester) load(ctx context.Context, dir string, d Dataset) (TableResult, error) {
	log := in.logger().WithFields(logrus.Fields{"table": d.Table, "format": d.Format})

	path := filepath.Join(dir, d.File)
	f, err := dataset.ReadFile(path, d.Format, d.Table)
	if err != nil {
		return TableResult{}, err
	}
	log.WithField("records", len(f.Rows)).Debug("schema:\n" + f.Schema())
	sum, _, err := hashFile(path)
	if err != nil {
		return TableResult{}, err
	}

	n, err := in.Tables.OverwriteTable(ctx, f)
	if err != nil {
		return TableResult{}, err
	}
	res := TableResult{Table: d.Table, File: path, Columns: len(f.Columns), Rows: n, SHA256: sum}

	if in.Snapshots != nil {
		p, err := in.Snapshots.Export(f)
		if err != nil {
			return TableResult{}, err
		}
		res.Snapshot = p
	}
	log.WithFields(logrus.Fields{"rows": n, "columns": res.Columns}).Info("table created")
	return res, nil
}

func (in *Ingester) logger() logrus.FieldLogger {
	if in.Log == nil {
		return logrus.StandardLogger()
	}
	return in.Log
}

// WriteIngestResults prints one line per loaded table.
func WriteIngestResults(w io.Writer, results []TableResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCOLUMNS\tROWS\tSNAPSHOT")
	for _, r := range results {
		snap := r.Snapshot
		if snap == "" {
			snap = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Table, r.Columns, r.Rows, snap)
	}
	return tw.Flush()
}
