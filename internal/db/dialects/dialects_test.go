package dialects

import (
	"context"
	"database/sql"
	"maps"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdspy/internal/db"
	"erdspy/internal/gather"
	"erdspy/internal/metadata"
)

func TestRegistered(t *testing.T) {
	var tests = []struct {
		driver string
		want   *metadata.Dialect
	}{
		{"postgres", Postgres},
		{"postgresql", Postgres},
		{"pgx", Postgres},
		{"mariadb", MySQL},
		{"mssql", SQLServer},
		{"sqlite3", SQLite},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := db.Lookup(tt.driver)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestStatementsBind(t *testing.T) {
	p := metadata.Params{DBName: "shop", Schema: "app", Table: "orders"}
	for _, driver := range db.RegisteredDialects() {
		d, err := db.Lookup(driver)
		require.NoError(t, err)
		statements := map[string]string{
			"catalogs":      d.CatalogsSQL,
			"schemas":       d.SchemasSQL,
			"tables":        d.TablesSQL,
			"columns":       d.ColumnsSQL,
			"indexes":       d.IndexesSQL,
			"primary keys":  d.PrimaryKeysSQL,
			"imported keys": d.ImportedKeysSQL,
			"exported keys": d.ExportedKeysSQL,
		}
		maps.Copy(statements, d.Properties)
		for name, stmt := range statements {
			if stmt == "" {
				continue
			}
			_, _, err := metadata.Prepare(stmt, p, d.Placeholder)
			assert.NoError(t, err, "%s %s", driver, name)
		}
	}
}

var shopDDL = []string{
	`CREATE TABLE customers (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(40) NOT NULL)`,
	`CREATE TABLE orders (
        id INTEGER PRIMARY KEY,
        customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
        total NUMERIC DEFAULT 0
    )`,
	`CREATE UNIQUE INDEX customers_name ON customers(name)`,
	`CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 100`,
	`CREATE TRIGGER orders_touch AFTER INSERT ON orders BEGIN SELECT 1; END`,
	`INSERT INTO customers (name) VALUES ('ada'), ('grace')`,
	`INSERT INTO orders (customer_id, total) VALUES (1, 50), (1, 150), (2, 500)`,
}

func TestSQLiteGather(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range shopDDL {
		_, err := conn.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, conn.Close())

	ctx := context.Background()
	src, err := db.Connect(ctx, "sqlite", path, "shop", 5)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	assert.NotEmpty(t, src.Dbms().ProductVersion)

	cfg := gather.DefaultConfig()
	cfg.SQL = maps.Clone(SQLite.Properties)
	model, err := gather.New(src, cfg).Gather(ctx, "shop")
	require.NoError(t, err)

	customers := model.Table("customers")
	require.NotNil(t, customers)
	assert.Equal(t, "shop.customers", customers.FullName())
	assert.EqualValues(t, 2, customers.NumRows())
	require.Len(t, customers.PrimaryColumns(), 1)
	assert.Equal(t, "id", customers.PrimaryColumns()[0].Name)
	assert.NotNil(t, customers.Index("customers_name"))
	assert.True(t, customers.Column("name").IsUnique())
	assert.False(t, customers.Column("name").Nullable)

	orders := model.Table("orders")
	require.NotNil(t, orders)
	assert.EqualValues(t, 3, orders.NumRows())
	parents := orders.Column("customer_id").Parents()
	require.Len(t, parents, 1)
	assert.Same(t, customers.Column("id"), parents[0])
	fk := orders.Column("customer_id").ParentConstraint(parents[0])
	assert.True(t, fk.IsCascadeOnDelete())
	if def := orders.Column("total").DefaultValue; assert.NotNil(t, def) {
		assert.Equal(t, "0", *def)
	}

	view := model.View("big_orders")
	require.NotNil(t, view)
	assert.Contains(t, view.ViewDefinition, "total > 100")
	assert.Len(t, view.Columns(), 3)

	trigger, ok := model.Triggers.Get("orders_touch")
	require.True(t, ok)
	assert.Equal(t, "orders", trigger.Table)
}

func TestConnectFailure(t *testing.T) {
	_, err := db.Connect(context.Background(), "sqlite", filepath.Join(t.TempDir(), "missing", "shop.db"), "shop", 5)
	var connErr *db.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "sqlite", connErr.Driver)
}
