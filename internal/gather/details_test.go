package gather

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdspy/internal/metadata"
	mt "erdspy/internal/metadata/metadatatest"
)

func detailRows(sql string) ([]metadata.Row, error) {
	switch {
	case strings.Contains(sql, "from schema_comments"):
		return []metadata.Row{{"schema_comment": " Storefront "}}, nil
	case strings.Contains(sql, "from table_comments"):
		return []metadata.Row{{"table_name": "orders", "comments": "All orders; InnoDB free: 4096 kB"}}, nil
	case strings.Contains(sql, "from column_comments"):
		return []metadata.Row{{"table_name": "orders", "column_name": "total", "comments": " gross amount "}}, nil
	case strings.Contains(sql, "from checks"):
		return []metadata.Row{
			{"table_name": "orders", "constraint_name": "ck_total", "text": "total >= 0"},
			{"table_name": "orders", "constraint_name": "ck_total", "text": " and total < 1e9"},
		}, nil
	case strings.Contains(sql, "from column_types"):
		return []metadata.Row{{"table_name": "orders", "column_name": "total", "column_type": "numeric(12,2)", "short_column_type": "numeric"}}, nil
	case strings.Contains(sql, "from view_text"):
		return []metadata.Row{{"view_definition": "select id "}, {"view_definition": "from orders"}}, nil
	case strings.Contains(sql, "from routines"):
		return []metadata.Row{{
			"routine_name": "order_total", "routine_type": "FUNCTION", "dtd_identifier": "numeric",
			"routine_body": "SQL", "routine_definition": "select sum(total)", "is_deterministic": "YES",
		}}, nil
	case strings.Contains(sql, "from parameters"):
		return []metadata.Row{
			{"specific_name": "order_total", "parameter_name": "p_order", "dtd_identifier": "int4", "parameter_mode": "IN"},
			{"specific_name": "missing", "parameter_name": "x"},
		}, nil
	case strings.Contains(sql, "from sequences"):
		return []metadata.Row{{"sequence_name": "order_seq", "start_value": int64(1), "increment": "5"}}, nil
	case strings.Contains(sql, "from types"):
		return nil, errors.New("relation \"types\" does not exist")
	case strings.Contains(sql, "from triggers"):
		return []metadata.Row{
			{"trigger_name": "orders_audit", "table_name": "orders", "event_manipulation": "INSERT", "action_timing": "AFTER", "action_statement": "execute audit()"},
			{"trigger_name": "orders_audit", "table_name": "orders", "event_manipulation": "UPDATE", "action_timing": "AFTER", "action_statement": "execute audit()"},
		}, nil
	}
	return nil, errors.New("unexpected " + sql)
}

func detailConfig() Config {
	cfg := shopConfig()
	cfg.SQL = map[string]string{
		PropSchemas:           "select schema_comment from schema_comments where name = :schema",
		PropTableComments:     "select table_name, comments from table_comments where s = :schema",
		PropColumnComments:    "select * from column_comments where s = :schema",
		PropCheckConstraints:  "select * from checks where s = :schema",
		PropColumnTypes:       "select * from column_types where s = :schema",
		PropViewDefinition:    "select view_definition from view_text where v = :view",
		PropRoutines:          "select * from routines where s = :schema",
		PropRoutineParameters: "select * from parameters where s = :schema",
		PropSequences:         "select * from sequences where s = :schema",
		PropTypes:             "select * from types where s = :schema",
		PropTriggers:          "select * from triggers where s = :schema",
		PropMultiRowData:      "true",
	}
	return cfg
}

func TestGatherDetails(t *testing.T) {
	view := &mt.Table{Schema: "app", Name: "big_orders", Type: "VIEW", Columns: []metadata.ColumnRow{mt.Col(1, "id", "int4", 10, false)}}
	src := mt.New(customersTable(), ordersTable(), view)
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) { return detailRows(sql) }

	db, err := New(src, detailConfig()).Gather(context.Background(), "shop")
	require.NoError(t, err)

	orders := db.Table("orders")
	assert.Equal(t, "Storefront", db.Schema.Comment)
	assert.Equal(t, "All orders", orders.Comments())
	assert.Equal(t, "gross amount", orders.Column("total").Comments)
	assert.Equal(t, map[string]string{"ck_total": "total >= 0 and total < 1e9"}, orders.CheckConstraints())
	assert.Equal(t, "numeric(12,2)", orders.Column("total").TypeName)
	assert.Equal(t, "numeric", orders.Column("total").Type())

	v := db.View("big_orders")
	require.NotNil(t, v)
	assert.Equal(t, "select id from orders", v.ViewDefinition)

	routine, ok := db.Routines.Get("order_total")
	require.True(t, ok)
	assert.Equal(t, "FUNCTION", routine.Type)
	assert.Equal(t, "numeric", routine.ReturnType)
	assert.True(t, routine.Deterministic)
	require.Len(t, routine.Parameters, 1)
	assert.Equal(t, "p_order", routine.Parameters[0].Name)

	seq, ok := db.Sequences.Get("order_seq")
	require.True(t, ok)
	assert.Equal(t, int64(1), seq.StartValue)
	assert.Equal(t, int64(5), seq.Increment)

	assert.Zero(t, db.Types.Len())

	trigger, ok := db.Triggers.Get("orders_audit")
	require.True(t, ok)
	assert.Equal(t, "INSERT OR UPDATE", trigger.Event)
	assert.Equal(t, "AFTER", trigger.Timing)
}

func TestGatherDetailsSingleRowConstraints(t *testing.T) {
	src := mt.New(customersTable(), ordersTable())
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) { return detailRows(sql) }
	cfg := detailConfig()
	delete(cfg.SQL, PropMultiRowData)

	db, err := New(src, cfg).Gather(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, " and total < 1e9", db.Table("orders").CheckConstraints()["ck_total"])
}

func TestGatherDetailsInvalidSQL(t *testing.T) {
	src := mt.New(customersTable())
	src.QueryFunc = func(sql string, args []any) ([]metadata.Row, error) { return detailRows(sql) }
	cfg := shopConfig()
	cfg.SQL[PropSequences] = "select * from sequences where owner = :nope"

	_, err := New(src, cfg).Gather(context.Background(), "shop")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}
