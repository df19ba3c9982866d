package gather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	mt "erdspy/internal/metadata/metadatatest"
	"erdspy/internal/model"
)

func customersTable() *mt.Table {
	return &mt.Table{
		Schema:   "app",
		Name:     "customers",
		RowCount: 3,
		Columns: []metadata.ColumnRow{
			mt.Col(1, "id", "int4", 10, false),
			mt.Col(2, "name", "varchar", 100, true),
		},
		Indexes: []metadata.IndexRow{
			{Name: "customers_pkey", Type: metadata.IndexOther, OrdinalPosition: 1, ColumnName: "id"},
		},
		PrimaryKeys:   []metadata.PrimaryKeyRow{mt.PK("customers", "id", "customers_pkey", 1)},
		AutoIncrement: []string{"id"},
	}
}

func ordersTable() *mt.Table {
	return &mt.Table{
		Schema:   "app",
		Name:     "orders",
		RowCount: 7,
		Columns: []metadata.ColumnRow{
			mt.Col(1, "id", "int4", 10, false),
			mt.Col(2, "customer_id", "int4", 10, false),
			mt.Col(3, "total", "numeric", 12, true),
		},
		Indexes: []metadata.IndexRow{
			{Name: "orders_pkey", Type: metadata.IndexOther, OrdinalPosition: 1, ColumnName: "id"},
		},
		PrimaryKeys: []metadata.PrimaryKeyRow{mt.PK("orders", "id", "orders_pkey", 1)},
		Imported:    []metadata.ForeignKeyRow{mt.FK("orders_customer_fk", "app", "orders", "customer_id", "app", "customers", "id")},
	}
}

func shopConfig() Config {
	cfg := DefaultConfig()
	cfg.Schema = "app"
	return cfg
}

type recorder struct {
	mu        sync.Mutex
	phases    []Phase
	gathered  []string
	connected []string
}

func (r *recorder) PhaseChanged(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, p)
}

func (r *recorder) TableGathered(t *model.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gathered = append(r.gathered, t.Name)
}

func (r *recorder) TableConnected(t *model.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = append(r.connected, t.Name)
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })
	return logs
}

func TestGatherConnectsTables(t *testing.T) {
	src := mt.New(customersTable(), ordersTable())
	rec := &recorder{}

	db, err := New(src, shopConfig(), WithListener(rec)).Gather(context.Background(), "shop")
	require.NoError(t, err)

	customers := db.Table("customers")
	orders := db.Table("orders")
	require.NotNil(t, customers)
	require.NotNil(t, orders)

	assert.Equal(t, int64(3), customers.NumRows())
	assert.Equal(t, int64(7), orders.NumRows())
	assert.True(t, customers.Column("id").AutoUpdated)
	assert.True(t, customers.Column("id").IsPrimary())
	assert.True(t, customers.Index("customers_pkey").Primary)

	fk := orders.ForeignKey("orders_customer_fk")
	require.NotNil(t, fk)
	assert.Same(t, customers, fk.ParentTable())
	assert.Same(t, orders, fk.ChildTable())
	assert.True(t, fk.IsReal())
	assert.Equal(t, model.RuleRestrict, fk.DeleteRule)

	parents := orders.Column("customer_id").Parents()
	require.Len(t, parents, 1)
	assert.Same(t, customers.Column("id"), parents[0])
	assert.Equal(t, 1, customers.NumChildren())
	assert.Equal(t, 1, orders.NumParents())
	assert.Empty(t, db.RemoteTables())

	assert.Equal(t, []Phase{
		PhaseInit, PhaseTablesBuilt, PhaseViewsBuilt, PhaseAuxiliaryDetailsGathered,
		PhaseConnected, PhaseXMLMerged, PhaseDone,
	}, rec.phases)
	assert.ElementsMatch(t, []string{"customers", "orders"}, rec.gathered)
	assert.Equal(t, []string{"customers", "orders"}, rec.connected)
}

func TestGatherExcludesTables(t *testing.T) {
	tmp := &mt.Table{Schema: "app", Name: "TMP_load", Columns: []metadata.ColumnRow{mt.Col(1, "x", "int4", 10, true)}}
	internal := &mt.Table{Schema: "app", Name: "BIN$abc", Columns: []metadata.ColumnRow{mt.Col(1, "x", "int4", 10, true)}}
	src := mt.New(customersTable(), tmp, internal)

	cfg := shopConfig()
	cfg.TableExclusions = MustPattern("TMP_.*")

	db, err := New(src, cfg).Gather(context.Background(), "shop")
	require.NoError(t, err)

	assert.NotNil(t, db.Table("customers"))
	assert.Nil(t, db.Table("TMP_load"))
	assert.Nil(t, db.Table("BIN$abc"))
	assert.Zero(t, src.Calls("Columns", "TMP_load"))
}

func TestGatherRemoteTable(t *testing.T) {
	a := &mt.Table{
		Schema:   "s1",
		Name:     "a",
		Columns:  []metadata.ColumnRow{mt.Col(1, "id", "int4", 10, false), mt.Col(2, "b_id", "int4", 10, true)},
		Imported: []metadata.ForeignKeyRow{mt.FK("a_b_fk", "s1", "a", "b_id", "s2", "b", "id")},
	}
	b := &mt.Table{
		Schema:  "s2",
		Name:    "b",
		Columns: []metadata.ColumnRow{mt.Col(1, "id", "int4", 10, false)},
	}
	src := mt.New(a, b)
	cfg := DefaultConfig()
	cfg.Schema = "s1"

	db, err := New(src, cfg).Gather(context.Background(), "db")
	require.NoError(t, err)

	assert.Nil(t, db.Table("b"))
	remote := db.RemoteTable("", "s2", "b")
	require.NotNil(t, remote)
	assert.True(t, remote.IsRemote())
	assert.Equal(t, "s2.b", remote.FullName())
	assert.Equal(t, "s1", remote.BaseContainer)
	assert.Same(t, remote.Column("id"), db.Table("a").Column("b_id").Parents()[0])
	assert.Zero(t, src.Calls("ExportedKeys", "b"))
	assert.Zero(t, src.Calls("Probe", "b"))
}

func TestGatherBoundsWorkers(t *testing.T) {
	var tables []*mt.Table
	for i := 0; i < 5; i++ {
		tables = append(tables, &mt.Table{
			Schema:  "app",
			Name:    fmt.Sprintf("t%d", i),
			Columns: []metadata.ColumnRow{mt.Col(1, "id", "int4", 10, false)},
		})
	}
	src := mt.New(tables...)

	var inFlight, peak atomic.Int32
	src.OnCall = func(method, table string) {
		if method != "Indexes" {
			return
		}
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}

	cfg := shopConfig()
	cfg.MaxThreads = 2
	db, err := New(src, cfg).Gather(context.Background(), "db")
	require.NoError(t, err)

	assert.Len(t, db.Tables(), 5)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 5, src.Calls("Indexes", "*"))
}

func TestPoolStaysBounded(t *testing.T) {
	for _, limit := range []int{0, -3} {
		p := NewPool(limit)
		var inFlight, peak atomic.Int32
		for i := 0; i < 4; i++ {
			p.Go("task", func() error {
				n := inFlight.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}
		p.Wait()
		if got := peak.Load(); got != 1 {
			t.Errorf("\nlimit %d: got %d tasks in flight, wanted 1", limit, got)
		}
	}
}

func TestGatherNonPositiveMaxThreads(t *testing.T) {
	cfg := shopConfig()
	cfg.MaxThreads = -2
	g := New(mt.New(customersTable()), cfg)
	assert.Equal(t, DefaultMaxThreads, g.cfg.MaxThreads)
	assert.Equal(t, DefaultMaxThreads, g.run.cfg.MaxThreads)
}

func TestGatherSequential(t *testing.T) {
	src := mt.New(customersTable(), ordersTable())
	src.Fail("Columns", "orders", errors.New("cursor closed"))

	cfg := shopConfig()
	cfg.MaxThreads = 1
	db, err := New(src, cfg).Gather(context.Background(), "shop")
	require.NoError(t, err)

	assert.NotNil(t, db.Table("customers"))
	assert.Nil(t, db.Table("orders"))
}

func TestGatherFirstTableFailure(t *testing.T) {
	src := mt.New(customersTable(), ordersTable())
	src.Fail("Columns", "customers", errors.New("permission denied"))

	_, err := New(src, shopConfig()).Gather(context.Background(), "shop")
	require.Error(t, err)

	var cie *ColumnInitError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, "app.customers", cie.Table)
}

func TestGatherLaterTableFailureIsLogged(t *testing.T) {
	logs := observe(t)
	src := mt.New(customersTable(), ordersTable())
	src.Fail("Indexes", "orders", errors.New("timeout"))

	db, err := New(src, shopConfig()).Gather(context.Background(), "shop")
	require.NoError(t, err)

	assert.Nil(t, db.Table("orders"))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessageSnippet("indexes of app.orders").Len())
}

func TestGatherInvalidCustomSQL(t *testing.T) {
	src := mt.New(customersTable())
	cfg := shopConfig()
	cfg.SQL[PropTables] = "select table_name from tables where owner = :owner and kind = :kind"

	_, err := New(src, cfg).Gather(context.Background(), "shop")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "unexpected named parameter 'kind'")
}

func TestGatherCustomTableSQL(t *testing.T) {
	src := mt.New(customersTable(), ordersTable())
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) {
		if strings.HasPrefix(sql, "select table_name") {
			assert.Equal(t, []any{"app"}, args)
			return []metadata.Row{
				{"table_name": "customers", "table_comment": "people who buy", "table_rows": int64(42)},
			}, nil
		}
		return nil, fmt.Errorf("unexpected %q", sql)
	}
	cfg := shopConfig()
	cfg.IncludeViews = false
	cfg.SQL[PropTables] = "select table_name, table_comment, table_rows from tables where schema_name = :schema"

	db, err := New(src, cfg).Gather(context.Background(), "shop")
	require.NoError(t, err)

	require.Len(t, db.Tables(), 1)
	customers := db.Table("customers")
	assert.Equal(t, "people who buy", customers.Comments())
	assert.Equal(t, int64(42), customers.NumRows())
	assert.Zero(t, src.Calls("Count", "customers"))
	assert.Zero(t, src.Calls("Tables", "*"))
}

func TestGatherAdvisory(t *testing.T) {
	logs := observe(t)
	src := mt.New(customersTable(), ordersTable())

	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(20 * time.Minute)
		return now
	}

	_, err := New(src, shopConfig(), WithClock(clock)).Gather(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("disabling exported keys").Len())

	logs.TakeAll()
	cfg := shopConfig()
	cfg.ExportedKeys = false
	_, err = New(src, cfg, WithClock(clock)).Gather(context.Background(), "shop")
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessageSnippet("disabling exported keys").Len())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "XmlMerged", PhaseXMLMerged.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}
