// Package metadatatest provides an in-memory metadata.Source for tests.
package metadatatest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"erdspy/internal/metadata"
)

// Table is a table known to the fake source.
type Table struct {
	Catalog  string
	Schema   string
	Name     string
	Type     string
	Remarks  string
	RowCount int64

	Columns     []metadata.ColumnRow
	Indexes     []metadata.IndexRow
	PrimaryKeys []metadata.PrimaryKeyRow
	Imported    []metadata.ForeignKeyRow
	Exported    []metadata.ForeignKeyRow
	// AutoIncrement names the columns the zero row probe reports as auto increment.
	AutoIncrement []string
}

// Source is a metadata.Source over a fixed set of tables. Individual calls can
// be made to fail with Fail, and hooks observe calls as they happen.
type Source struct {
	Meta metadata.DbmsMeta

	// QueryFunc answers Query calls not handled by the built-in count support.
	QueryFunc func(sql string, args []any) ([]metadata.Row, error)
	// OnCall runs at the start of every metadata call with the method and table.
	OnCall func(method, table string)

	mu     sync.Mutex
	tables []*Table
	fails  map[string]error
	calls  map[string]int
	sqls   []string
}

// New returns an empty fake source using double quotes for identifiers.
func New(tables ...*Table) *Source {
	s := &Source{
		Meta:  metadata.DbmsMeta{ProductName: "fake", IdentifierQuote: `"`},
		fails: map[string]error{},
		calls: map[string]int{},
	}
	for _, t := range tables {
		s.Add(t)
	}
	return s
}

// Add registers a table.
func (s *Source) Add(t *Table) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Type == "" {
		t.Type = "TABLE"
	}
	s.tables = append(s.tables, t)
	return s
}

// Fail makes method fail for table (or for every table when table is "*").
func (s *Source) Fail(method, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[method+"/"+strings.ToLower(table)] = err
}

// Calls returns how often method ran for table ("*" counts every table).
func (s *Source) Calls(method, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table == "*" {
		n := 0
		for k, v := range s.calls {
			if strings.HasPrefix(k, method+"/") {
				n += v
			}
		}
		return n
	}
	return s.calls[method+"/"+strings.ToLower(table)]
}

// SQL returns every statement passed to Query or ResultColumns.
func (s *Source) SQL() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sqls...)
}

func (s *Source) enter(method, table string) error {
	if s.OnCall != nil {
		s.OnCall(method, table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + "/" + strings.ToLower(table)
	s.calls[key]++
	if err, ok := s.fails[key]; ok {
		return err
	}
	if err, ok := s.fails[method+"/*"]; ok {
		return err
	}
	return nil
}

func (s *Source) find(catalog, schema, name string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		if strings.EqualFold(t.Name, name) &&
			(schema == "" || strings.EqualFold(t.Schema, schema)) &&
			(catalog == "" || strings.EqualFold(t.Catalog, catalog)) {
			return t
		}
	}
	return nil
}

func (s *Source) Dbms() metadata.DbmsMeta { return s.Meta }

func (s *Source) Placeholder(int) string { return "?" }

func (s *Source) Catalogs(ctx context.Context) ([]string, error) {
	if err := s.enter("Catalogs", "*"); err != nil {
		return nil, err
	}
	return s.containers(func(t *Table) string { return t.Catalog }), nil
}

func (s *Source) Schemas(ctx context.Context) ([]string, error) {
	if err := s.enter("Schemas", "*"); err != nil {
		return nil, err
	}
	return s.containers(func(t *Table) string { return t.Schema }), nil
}

func (s *Source) containers(name func(*Table) string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, t := range s.tables {
		if n := name(t); n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func (s *Source) Tables(ctx context.Context, catalog, schema string, types []string) ([]metadata.TableRow, error) {
	if err := s.enter("Tables", "*"); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, t := range types {
		wanted[strings.ToUpper(t)] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []metadata.TableRow
	for _, t := range s.tables {
		if schema != "" && !strings.EqualFold(t.Schema, schema) {
			continue
		}
		if catalog != "" && !strings.EqualFold(t.Catalog, catalog) {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToUpper(t.Type)] {
			continue
		}
		out = append(out, metadata.TableRow{
			Catalog: t.Catalog, Schema: t.Schema, Name: t.Name, Type: t.Type, Remarks: t.Remarks, NumRows: -1,
		})
	}
	return out, nil
}

func (s *Source) Columns(ctx context.Context, catalog, schema, table string) ([]metadata.ColumnRow, error) {
	if err := s.enter("Columns", table); err != nil {
		return nil, err
	}
	t := s.find(catalog, schema, table)
	if t == nil {
		return nil, fmt.Errorf("no such table %s", table)
	}
	return t.Columns, nil
}

func (s *Source) Indexes(ctx context.Context, catalog, schema, table string) ([]metadata.IndexRow, error) {
	if err := s.enter("Indexes", table); err != nil {
		return nil, err
	}
	if t := s.find(catalog, schema, table); t != nil {
		return t.Indexes, nil
	}
	return nil, nil
}

func (s *Source) PrimaryKeys(ctx context.Context, catalog, schema, table string) ([]metadata.PrimaryKeyRow, error) {
	if err := s.enter("PrimaryKeys", table); err != nil {
		return nil, err
	}
	if t := s.find(catalog, schema, table); t != nil {
		return t.PrimaryKeys, nil
	}
	return nil, nil
}

func (s *Source) ImportedKeys(ctx context.Context, catalog, schema, table string) ([]metadata.ForeignKeyRow, error) {
	if err := s.enter("ImportedKeys", table); err != nil {
		return nil, err
	}
	if t := s.find(catalog, schema, table); t != nil {
		return t.Imported, nil
	}
	return nil, nil
}

func (s *Source) ExportedKeys(ctx context.Context, catalog, schema, table string) ([]metadata.ForeignKeyRow, error) {
	if err := s.enter("ExportedKeys", table); err != nil {
		return nil, err
	}
	if t := s.find(catalog, schema, table); t != nil {
		return t.Exported, nil
	}
	return nil, nil
}

var (
	countRe = regexp.MustCompile(`(?i)^select count\((?:\*|1)\) as row_count from (\S+)$`)
	probeRe = regexp.MustCompile(`(?i)^select \* from (\S+) where 0 = 1$`)
)

// tableFromSQL strips quotes and the container prefix from a qualified name.
func tableFromSQL(qualified string) (name string, quoted bool) {
	quoted = strings.Contains(qualified, `"`)
	parts := strings.Split(strings.ReplaceAll(qualified, `"`, ""), ".")
	return parts[len(parts)-1], quoted
}

func (s *Source) Query(ctx context.Context, sql string, args ...any) ([]metadata.Row, error) {
	s.mu.Lock()
	s.sqls = append(s.sqls, sql)
	s.mu.Unlock()
	if m := countRe.FindStringSubmatch(sql); m != nil {
		name, quoted := tableFromSQL(m[1])
		method := "Count"
		if quoted {
			method = "QuotedCount"
		}
		if err := s.enter(method, name); err != nil {
			return nil, err
		}
		t := s.find("", "", name)
		if t == nil {
			return nil, fmt.Errorf("no such table %s", name)
		}
		return []metadata.Row{{"row_count": t.RowCount}}, nil
	}
	if s.QueryFunc != nil {
		return s.QueryFunc(sql, args)
	}
	return nil, fmt.Errorf("unexpected query %q", sql)
}

func (s *Source) ResultColumns(ctx context.Context, sql string) ([]metadata.ResultColumn, error) {
	s.mu.Lock()
	s.sqls = append(s.sqls, sql)
	s.mu.Unlock()
	m := probeRe.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("unexpected probe %q", sql)
	}
	name, quoted := tableFromSQL(m[1])
	method := "Probe"
	if quoted {
		method = "QuotedProbe"
	}
	if err := s.enter(method, name); err != nil {
		return nil, err
	}
	t := s.find("", "", name)
	if t == nil {
		return nil, fmt.Errorf("no such table %s", name)
	}
	auto := map[string]bool{}
	for _, c := range t.AutoIncrement {
		auto[strings.ToLower(c)] = true
	}
	out := make([]metadata.ResultColumn, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, metadata.ResultColumn{Name: c.Name, TypeName: c.TypeName, AutoIncrement: auto[strings.ToLower(c.Name)]})
	}
	return out, nil
}

// Col is a shorthand for a column row.
func Col(pos int, name, typeName string, size int, nullable bool) metadata.ColumnRow {
	return metadata.ColumnRow{Name: name, TypeName: typeName, ColumnSize: size, Nullable: nullable, OrdinalPosition: pos}
}

// PK is a shorthand for a primary key row.
func PK(table, column, name string, seq int) metadata.PrimaryKeyRow {
	return metadata.PrimaryKeyRow{Table: table, ColumnName: column, PKName: name, KeySeq: seq}
}

// FK is a shorthand for a foreign key row within one schema.
func FK(name, schema, childTable, childColumn, parentSchema, parentTable, parentColumn string) metadata.ForeignKeyRow {
	return metadata.ForeignKeyRow{
		FKName:     name,
		FKSchema:   schema,
		FKTable:    childTable,
		FKColumn:   childColumn,
		PKSchema:   parentSchema,
		PKTable:    parentTable,
		PKColumn:   parentColumn,
		UpdateRule: 3,
		DeleteRule: 1,
		KeySeq:     1,
	}
}
