package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SQLSource is a Source backed by a database/sql connection pool.
type SQLSource struct {
	db      *sql.DB
	dialect *Dialect
	dbName  string
	dbms    DbmsMeta
}

// NewSQLSource wraps conn. dbName feeds the :dbname parameter and the :schema
// fallback. A failing version query is not an error.
func NewSQLSource(ctx context.Context, conn *sql.DB, d *Dialect, dbName string) *SQLSource {
	s := &SQLSource{db: conn, dialect: d, dbName: dbName}
	s.dbms = DbmsMeta{
		ProductName:     d.Name,
		IdentifierQuote: d.IdentifierQuote,
		ExtraNameChars:  d.ExtraNameChars,
		Keywords:        d.Keywords,
	}
	if d.VersionSQL != "" {
		var v sql.NullString
		if err := conn.QueryRowContext(ctx, d.VersionSQL).Scan(&v); err == nil {
			s.dbms.ProductVersion = v.String
		}
	}
	return s
}

// DB returns the underlying pool.
func (s *SQLSource) DB() *sql.DB { return s.db }

// Dialect returns the dialect driving s.
func (s *SQLSource) Dialect() *Dialect { return s.dialect }

// Close closes the underlying pool.
func (s *SQLSource) Close() error { return s.db.Close() }

func (s *SQLSource) Dbms() DbmsMeta { return s.dbms }

func (s *SQLSource) Placeholder(n int) string {
	if s.dialect.Placeholder == nil {
		return "?"
	}
	return s.dialect.Placeholder(n)
}

func (s *SQLSource) run(ctx context.Context, what, query string, p Params) ([]Row, error) {
	if query == "" {
		return nil, fmt.Errorf("%s: not supported by dialect %s", what, s.dialect.Name)
	}
	p.DBName = s.dbName
	q, args, err := Prepare(query, p, s.Placeholder)
	if err != nil {
		return nil, err
	}
	rows, err := s.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	return rows, nil
}

func (s *SQLSource) Catalogs(ctx context.Context) ([]string, error) {
	return s.names(ctx, "catalogs", s.dialect.CatalogsSQL, "table_cat")
}

func (s *SQLSource) Schemas(ctx context.Context) ([]string, error) {
	return s.names(ctx, "schemas", s.dialect.SchemasSQL, "table_schem")
}

// names lists one column of query; a dialect without query has no names.
func (s *SQLSource) names(ctx context.Context, what, query, col string) ([]string, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := s.run(ctx, what, query, Params{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if name := r.Str(col); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func (s *SQLSource) Tables(ctx context.Context, catalog, schema string, types []string) ([]TableRow, error) {
	rows, err := s.run(ctx, "tables", s.dialect.TablesSQL, Params{Catalog: catalog, Schema: schema})
	if err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, t := range types {
		wanted[strings.ToUpper(t)] = true
	}
	var out []TableRow
	for _, r := range rows {
		tr := TableRow{
			Catalog: r.Str("table_cat"),
			Schema:  r.Str("table_schem"),
			Name:    r.Str("table_name"),
			Type:    r.Str("table_type"),
			Remarks: r.Str("remarks"),
			NumRows: -1,
		}
		if len(wanted) > 0 && !wanted[strings.ToUpper(tr.Type)] {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

func (s *SQLSource) Columns(ctx context.Context, catalog, schema, table string) ([]ColumnRow, error) {
	rows, err := s.run(ctx, "columns", s.dialect.ColumnsSQL, Params{Catalog: catalog, Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	out := make([]ColumnRow, 0, len(rows))
	for _, r := range rows {
		cr := ColumnRow{
			Name:            r.Str("column_name"),
			TypeCode:        r.Int("data_type"),
			TypeName:        r.Str("type_name"),
			ColumnSize:      r.Int("column_size"),
			BufferLength:    r.Int("buffer_length"),
			DecimalDigits:   r.Int("decimal_digits"),
			Nullable:        r.Int("nullable") == 1 || strings.EqualFold(r.Str("is_nullable"), "YES"),
			Remarks:         r.Str("remarks"),
			OrdinalPosition: r.Int("ordinal_position"),
			AutoIncrement:   r.Bool("is_autoincrement"),
		}
		if def, ok := r.String("column_def"); ok {
			cr.Default = &def
		}
		out = append(out, cr)
	}
	return out, nil
}

func (s *SQLSource) Indexes(ctx context.Context, catalog, schema, table string) ([]IndexRow, error) {
	rows, err := s.run(ctx, "indexes", s.dialect.IndexesSQL, Params{Catalog: catalog, Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	return IndexRows(rows), nil
}

// IndexRows converts rows labelled like the standard index info call.
func IndexRows(rows []Row) []IndexRow {
	out := make([]IndexRow, 0, len(rows))
	for _, r := range rows {
		typ := IndexOther
		if r.Has("type") {
			typ = r.Int("type")
		}
		out = append(out, IndexRow{
			Name:            r.Str("index_name"),
			NonUnique:       r.Bool("non_unique"),
			Type:            typ,
			OrdinalPosition: r.Int("ordinal_position"),
			ColumnName:      r.Str("column_name"),
			AscOrDesc:       r.Str("asc_or_desc"),
		})
	}
	return out
}

func (s *SQLSource) PrimaryKeys(ctx context.Context, catalog, schema, table string) ([]PrimaryKeyRow, error) {
	rows, err := s.run(ctx, "primary keys", s.dialect.PrimaryKeysSQL, Params{Catalog: catalog, Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	return PrimaryKeyRows(rows), nil
}

// PrimaryKeyRows converts rows labelled like the standard primary key call,
// ordered by KEY_SEQ.
func PrimaryKeyRows(rows []Row) []PrimaryKeyRow {
	out := make([]PrimaryKeyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, PrimaryKeyRow{
			Catalog:    r.Str("table_cat"),
			Schema:     r.Str("table_schem"),
			Table:      r.Str("table_name"),
			ColumnName: r.Str("column_name"),
			KeySeq:     r.Int("key_seq"),
			PKName:     r.Str("pk_name"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].KeySeq < out[j].KeySeq })
	return out
}

func (s *SQLSource) ImportedKeys(ctx context.Context, catalog, schema, table string) ([]ForeignKeyRow, error) {
	rows, err := s.run(ctx, "imported keys", s.dialect.ImportedKeysSQL, Params{Catalog: catalog, Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	return ForeignKeyRows(rows), nil
}

func (s *SQLSource) ExportedKeys(ctx context.Context, catalog, schema, table string) ([]ForeignKeyRow, error) {
	rows, err := s.run(ctx, "exported keys", s.dialect.ExportedKeysSQL, Params{Catalog: catalog, Schema: schema, Table: table})
	if err != nil {
		return nil, err
	}
	return ForeignKeyRows(rows), nil
}

// ForeignKeyRows converts rows labelled like the standard imported/exported key calls.
func ForeignKeyRows(rows []Row) []ForeignKeyRow {
	out := make([]ForeignKeyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ForeignKeyRow{
			FKName:     r.Str("fk_name"),
			FKCatalog:  r.Str("fktable_cat"),
			FKSchema:   r.Str("fktable_schem"),
			FKTable:    r.Str("fktable_name"),
			FKColumn:   r.Str("fkcolumn_name"),
			PKCatalog:  r.Str("pktable_cat"),
			PKSchema:   r.Str("pktable_schem"),
			PKTable:    r.Str("pktable_name"),
			PKColumn:   r.Str("pkcolumn_name"),
			UpdateRule: r.Int("update_rule"),
			DeleteRule: r.Int("delete_rule"),
			KeySeq:     r.Int("key_seq"),
		})
	}
	return out
}

func (s *SQLSource) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[strings.ToLower(c)] = string(b)
			} else {
				r[strings.ToLower(c)] = vals[i]
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLSource) ResultColumns(ctx context.Context, query string) ([]ResultColumn, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	auto := s.dialect.AutoIncrement
	if auto == nil {
		auto = TypeNameAutoIncrement
	}
	out := make([]ResultColumn, len(cts))
	for i, ct := range cts {
		out[i] = ResultColumn{Name: ct.Name(), TypeName: ct.DatabaseTypeName(), AutoIncrement: auto(ct)}
	}
	return out, rows.Err()
}
