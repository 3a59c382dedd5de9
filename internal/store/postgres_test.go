package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macae/internal/dataset"
)

func TestCreateTableSQL(t *testing.T) {
	f := &dataset.Frame{
		Name: "customer_churn_analysis",
		Columns: []dataset.Column{
			{Name: "CustomerID", Type: dataset.TypeText},
			{Name: "ChurnRiskScore", Type: dataset.TypeDouble},
			{Name: "Visits", Type: dataset.TypeBigInt},
			{Name: "Active", Type: dataset.TypeBoolean},
			{Name: "LastPurchase", Type: dataset.TypeDate},
			{Name: "UpdatedAt", Type: dataset.TypeTimestamp},
			{Name: "tags", Type: dataset.TypeJSON},
			{Name: `odd "name"`, Type: dataset.TypeText},
		},
	}
	want := `CREATE TABLE "lakehouse"."customer_churn_analysis" (` +
		`"CustomerID" text, "ChurnRiskScore" double precision, "Visits" bigint, "Active" boolean, ` +
		`"LastPurchase" date, "UpdatedAt" timestamptz, "tags" jsonb, "odd ""name""" text)`
	assert.Equal(t, want, CreateTableSQL(f))
}

func TestHelpers(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))
	assert.Equal(t, "{}", jsonOrEmpty(nil))
	assert.Equal(t, `{"ok":true}`, jsonOrEmpty([]byte(`{"ok":true}`)))
	assert.Contains(t, schemaSQL, "macae.ingest_runs")
}

// TestStore_Postgres runs against a real database when MACAE_TEST_DATABASE_URL is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("MACAE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MACAE_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.EnsureSchema(ctx))

	f := &dataset.Frame{
		Name: "macae_store_test",
		Columns: []dataset.Column{
			{Name: "Purpose", Type: dataset.TypeText},
			{Name: "SatisfactionRating", Type: dataset.TypeBigInt},
		},
		Rows: [][]any{{"Return", int64(4)}, {"Return", int64(2)}, {"Browse", nil}},
	}
	n, err := st.OverwriteTable(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	f.Rows = f.Rows[:1]
	n, err = st.OverwriteTable(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := st.CountRows(ctx, f.Name)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	tables, err := st.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, f.Name)

	res, err := st.Query(ctx, `SELECT "Purpose", COUNT(*) AS visit_count FROM macae_store_test GROUP BY "Purpose"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Purpose", "visit_count"}, res.Columns)
	require.Len(t, res.Rows, 1)

	_, err = st.Query(ctx, `DELETE FROM macae_store_test`)
	assert.Error(t, err)

	runID, err := st.CreateRun(ctx, Run{Phase: "ingest", Status: "running", Source: "Files/"})
	require.NoError(t, err)
	require.NoError(t, st.FinishRun(ctx, runID, "ok", []byte(`{"tables":1}`)))

	runs, err := st.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	require.NoError(t, st.ExecSQL(ctx, `DROP TABLE lakehouse.macae_store_test`))
}
