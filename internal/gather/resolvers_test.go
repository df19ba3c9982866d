package gather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdspy/internal/metadata"
	mt "erdspy/internal/metadata/metadatatest"
	"erdspy/internal/model"
)

func newResolvers(src *mt.Source, cfg Config) (*ColumnResolver, *IndexResolver, *TableBuilder) {
	quoter := metadata.NewQuoter(src.Dbms())
	columns := NewColumnResolver(src, cfg, quoter)
	indexes := NewIndexResolver(src, cfg)
	return columns, indexes, NewTableBuilder(src, cfg, quoter, columns, indexes)
}

func TestColumnResolveIsIdempotent(t *testing.T) {
	src := mt.New(ordersTable())
	columns, _, _ := newResolvers(src, shopConfig())
	table := model.NewTable("shop", "", "app", "orders", "")

	require.NoError(t, columns.Resolve(context.Background(), table))
	require.NoError(t, columns.Resolve(context.Background(), table))

	cols := table.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, 0, cols[0].ID)
	assert.Equal(t, "customer_id", cols[1].Name)
	assert.Equal(t, 12, table.Column("total").Length)
	assert.True(t, table.Column("total").Nullable)
}

func TestColumnExclusions(t *testing.T) {
	src := mt.New(ordersTable())
	cfg := shopConfig()
	cfg.ColumnExclusions = MustPattern("orders\\.total")
	cfg.IndirectColumnExclusions = MustPattern(".*\\.customer_id")
	columns, _, _ := newResolvers(src, cfg)
	table := model.NewTable("shop", "", "app", "orders", "")

	require.NoError(t, columns.Resolve(context.Background(), table))

	total := table.Column("total")
	assert.True(t, total.IsAllExcluded())
	assert.True(t, total.IsExcluded())

	cust := table.Column("customer_id")
	assert.False(t, cust.IsAllExcluded())
	assert.True(t, cust.IsExcluded())

	assert.False(t, table.Column("id").IsExcluded())
}

func TestColumnProbeRetriesQuoted(t *testing.T) {
	src := mt.New(customersTable())
	src.Fail("Probe", "customers", errors.New("syntax error"))
	columns, _, _ := newResolvers(src, shopConfig())
	table := model.NewTable("shop", "", "app", "customers", "")

	require.NoError(t, columns.Resolve(context.Background(), table))

	assert.Equal(t, 1, src.Calls("Probe", "customers"))
	assert.Equal(t, 1, src.Calls("QuotedProbe", "customers"))
	assert.True(t, table.Column("id").AutoUpdated)
	assert.Contains(t, src.SQL(), `select * from "app"."customers" where 0 = 1`)
}

func TestColumnProbeGivesUp(t *testing.T) {
	src := mt.New(customersTable())
	src.Fail("Probe", "customers", errors.New("syntax error"))
	src.Fail("QuotedProbe", "customers", errors.New("syntax error"))
	columns, _, _ := newResolvers(src, shopConfig())
	table := model.NewTable("shop", "", "app", "customers", "")

	require.NoError(t, columns.Resolve(context.Background(), table))
	assert.False(t, table.Column("id").AutoUpdated)
	assert.Len(t, table.Columns(), 2)
}

func TestColumnErrors(t *testing.T) {
	var tests = []struct {
		name    string
		table   *model.Table
		wantErr bool
	}{
		{"physical", model.NewTable("shop", "", "app", "ghost", ""), true},
		{"logical", model.NewLogicalTable("shop", "", "app", "ghost", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mt.New()
			columns, _, _ := newResolvers(src, shopConfig())
			err := columns.Resolve(context.Background(), tt.table)
			if tt.wantErr {
				var cie *ColumnInitError
				require.ErrorAs(t, err, &cie)
				assert.Equal(t, "app.ghost", cie.Table)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrimaryKeyUsesNamedIndex(t *testing.T) {
	src := mt.New(customersTable())
	db := model.NewDatabase("shop", "", "app")
	_, _, builder := newResolvers(src, shopConfig())

	table, err := builder.Build(context.Background(), db, metadata.TableRow{Schema: "app", Name: "customers", NumRows: -1})
	require.NoError(t, err)

	idx := table.Indexes()
	require.Len(t, idx, 1)
	assert.Equal(t, "customers_pkey", idx[0].Name)
	assert.True(t, idx[0].Primary)
	assert.Equal(t, []*model.Column{table.Column("id")}, table.PrimaryColumns())
	assert.Same(t, table, db.Table("customers"))
}

func TestPrimaryKeySynthesizedIndex(t *testing.T) {
	tbl := &mt.Table{
		Schema: "app",
		Name:   "line_items",
		Columns: []metadata.ColumnRow{
			mt.Col(1, "order_id", "int4", 10, false),
			mt.Col(2, "line_no", "int4", 10, false),
		},
		PrimaryKeys: []metadata.PrimaryKeyRow{
			mt.PK("line_items", "line_no", "", 2),
			mt.PK("line_items", "order_id", "", 1),
		},
	}
	src := mt.New(tbl)
	_, indexes, _ := newResolvers(src, shopConfig())
	db := model.NewDatabase("shop", "", "app")
	table := model.NewTable("shop", "", "app", "line_items", "")
	columns, _, _ := newResolvers(src, shopConfig())
	require.NoError(t, columns.Resolve(context.Background(), table))

	require.NoError(t, indexes.Resolve(context.Background(), db, table))
	require.NoError(t, indexes.Resolve(context.Background(), db, table))

	idx := table.Index("line_items_s_pk")
	require.NotNil(t, idx)
	assert.True(t, idx.Primary)
	assert.True(t, idx.Unique)
	assert.Equal(t, "order_id + line_no", idx.ColumnsString())
	assert.Len(t, table.Indexes(), 1)
	assert.Len(t, table.PrimaryColumns(), 2)
}

func TestPrimaryKeyMissingColumn(t *testing.T) {
	tbl := &mt.Table{
		Schema:      "app",
		Name:        "odd",
		Columns:     []metadata.ColumnRow{mt.Col(1, "id", "int4", 10, false)},
		PrimaryKeys: []metadata.PrimaryKeyRow{mt.PK("odd", "ID ", "odd_pk", 1)},
	}
	src := mt.New(tbl)
	columns, indexes, _ := newResolvers(src, shopConfig())
	db := model.NewDatabase("shop", "", "app")

	physical := model.NewTable("shop", "", "app", "odd", "")
	require.NoError(t, columns.Resolve(context.Background(), physical))
	err := indexes.Resolve(context.Background(), db, physical)
	var te *TableError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "primary keys", te.Op)

	logical := model.NewLogicalTable("shop", "", "app", "odd", "")
	require.NoError(t, columns.Resolve(context.Background(), logical))
	assert.NoError(t, indexes.Resolve(context.Background(), db, logical))
}

func TestIndexesSkipStatistics(t *testing.T) {
	tbl := ordersTable()
	tbl.Indexes = append(tbl.Indexes,
		metadata.IndexRow{Type: metadata.IndexStatistic},
		metadata.IndexRow{Name: "orders_total_idx", NonUnique: true, Type: metadata.IndexOther, OrdinalPosition: 1, ColumnName: "total", AscOrDesc: "D"},
		metadata.IndexRow{Name: "orders_zero", Type: metadata.IndexOther, OrdinalPosition: 0, ColumnName: "total"},
	)
	src := mt.New(tbl)
	columns, indexes, _ := newResolvers(src, shopConfig())
	db := model.NewDatabase("shop", "", "app")
	table := model.NewTable("shop", "", "app", "orders", "")
	require.NoError(t, columns.Resolve(context.Background(), table))
	require.NoError(t, indexes.Resolve(context.Background(), db, table))

	assert.Len(t, table.Indexes(), 2)
	perf := table.Index("orders_total_idx")
	require.NotNil(t, perf)
	assert.Equal(t, "Performance", perf.Type())
	assert.False(t, perf.IsAscending(table.Column("total")))
	assert.Equal(t, "Primary key", table.Index("orders_pkey").Type())
}

func TestIndexesCustomSQLFallsBack(t *testing.T) {
	src := mt.New(ordersTable())
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) {
		return nil, errors.New("relation does not exist")
	}
	cfg := shopConfig()
	cfg.SQL[PropIndexes] = "select * from my_indexes where tab = :table"
	columns, indexes, _ := newResolvers(src, cfg)
	db := model.NewDatabase("shop", "", "app")
	table := model.NewTable("shop", "", "app", "orders", "")
	require.NoError(t, columns.Resolve(context.Background(), table))

	require.NoError(t, indexes.Resolve(context.Background(), db, table))
	assert.NotNil(t, table.Index("orders_pkey"))
	assert.Equal(t, 1, src.Calls("Indexes", "orders"))
}

func TestIndexesSkipViewsAndRemotes(t *testing.T) {
	src := mt.New(ordersTable())
	_, indexes, _ := newResolvers(src, shopConfig())
	db := model.NewDatabase("shop", "", "app")

	require.NoError(t, indexes.Resolve(context.Background(), db, model.NewView("shop", "", "app", "orders", "", "")))
	require.NoError(t, indexes.Resolve(context.Background(), db, model.NewRemoteTable("shop", "", "app", "orders", "other")))
	assert.Zero(t, src.Calls("Indexes", "*"))
	assert.Zero(t, src.Calls("PrimaryKeys", "*"))
}

func TestRowCount(t *testing.T) {
	var tests = []struct {
		name  string
		fail  []string
		want  int64
		calls map[string]int
	}{
		{"plain", nil, 3, map[string]int{"Count": 1, "QuotedCount": 0}},
		{"quoted retry", []string{"Count"}, 3, map[string]int{"Count": 1, "QuotedCount": 1}},
		{"exhausted", []string{"Count", "QuotedCount"}, -1, map[string]int{"Count": 2, "QuotedCount": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mt.New(customersTable())
			for _, m := range tt.fail {
				src.Fail(m, "customers", errors.New("boom"))
			}
			_, _, builder := newResolvers(src, shopConfig())
			db := model.NewDatabase("shop", "", "app")

			n, err := builder.RowCount(context.Background(), db, model.NewTable("shop", "", "app", "customers", ""))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			for method, want := range tt.calls {
				assert.Equal(t, want, src.Calls(method, "customers"), method)
			}
		})
	}
}

func TestRowCountSkipsNonPhysical(t *testing.T) {
	src := mt.New(customersTable())
	_, _, builder := newResolvers(src, shopConfig())
	db := model.NewDatabase("shop", "", "app")

	for _, table := range []*model.Table{
		model.NewView("shop", "", "app", "customers", "", ""),
		model.NewRemoteTable("shop", "", "app", "customers", "other"),
		model.NewLogicalTable("shop", "", "app", "customers", ""),
	} {
		n, err := builder.RowCount(context.Background(), db, table)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), n, table.Kind().String())
	}
	assert.Empty(t, src.SQL())
}

func TestRowCountCustomSQL(t *testing.T) {
	src := mt.New(customersTable())
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) {
		assert.Equal(t, "select reltuples as row_count from pg_class where relname = ?", sql)
		assert.Equal(t, []any{"customers"}, args)
		return []metadata.Row{{"row_count": float64(1234)}}, nil
	}
	cfg := shopConfig()
	cfg.SQL[PropRowCount] = "select reltuples as row_count from pg_class where relname = :table"
	_, _, builder := newResolvers(src, cfg)
	db := model.NewDatabase("shop", "", "app")

	n, err := builder.RowCount(context.Background(), db, model.NewTable("shop", "", "app", "customers", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
	assert.Zero(t, src.Calls("Count", "customers"))
}
