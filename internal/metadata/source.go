// Package metadata is the read-only view of a live database catalog used by
// the gatherer. The SQL-backed implementation is driven by a Dialect; tests use
// an in-memory implementation.
package metadata

import "context"

// Source enumerates catalog metadata and runs arbitrary parameterized queries.
type Source interface {
	// Dbms describes the engine behind the source.
	Dbms() DbmsMeta
	// Placeholder returns the positional bind marker for the n-th (1 based) argument.
	Placeholder(n int) string

	// Catalogs and Schemas list container names; engines without the concept
	// return an empty list.
	Catalogs(ctx context.Context) ([]string, error)
	Schemas(ctx context.Context) ([]string, error)

	Tables(ctx context.Context, catalog, schema string, types []string) ([]TableRow, error)
	Columns(ctx context.Context, catalog, schema, table string) ([]ColumnRow, error)
	Indexes(ctx context.Context, catalog, schema, table string) ([]IndexRow, error)
	PrimaryKeys(ctx context.Context, catalog, schema, table string) ([]PrimaryKeyRow, error)
	ImportedKeys(ctx context.Context, catalog, schema, table string) ([]ForeignKeyRow, error)
	ExportedKeys(ctx context.Context, catalog, schema, table string) ([]ForeignKeyRow, error)

	// Query runs sql and returns every row keyed by lower case column label.
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	// ResultColumns runs sql and describes its result set without reading rows.
	ResultColumns(ctx context.Context, sql string) ([]ResultColumn, error)
}

// DbmsMeta identifies the engine and the identifier rules it reports.
type DbmsMeta struct {
	ProductName    string
	ProductVersion string
	// IdentifierQuote is "" or " " when the engine does not support quoting.
	IdentifierQuote string
	// ExtraNameChars are characters valid in unquoted identifiers beyond [A-Za-z0-9_].
	ExtraNameChars string
	Keywords       []string
	Functions      []string
}

// TableRow is one entry of the table list.
type TableRow struct {
	Catalog string
	Schema  string
	Name    string
	Type    string
	Remarks string
	// ViewDefinition is only filled by custom view queries.
	ViewDefinition string
	// NumRows is a row count hint, -1 when absent.
	NumRows int64
}

// ColumnRow describes one column of a table.
type ColumnRow struct {
	Name            string
	TypeCode        int
	TypeName        string
	ColumnSize      int
	BufferLength    int
	DecimalDigits   int
	Nullable        bool
	Default         *string
	Remarks         string
	OrdinalPosition int
	AutoIncrement   bool
}

// Index row types as reported by the standard metadata API.
const (
	IndexStatistic = 0
	IndexClustered = 1
	IndexHashed    = 2
	IndexOther     = 3
)

// IndexRow is one column of one index.
type IndexRow struct {
	Name            string
	NonUnique       bool
	Type            int
	OrdinalPosition int
	ColumnName      string
	AscOrDesc       string
}

// PrimaryKeyRow is one column of a primary key.
type PrimaryKeyRow struct {
	Catalog    string
	Schema     string
	Table      string
	ColumnName string
	KeySeq     int
	PKName     string
}

// ForeignKeyRow is one column pair of a foreign key.
type ForeignKeyRow struct {
	FKName     string
	FKCatalog  string
	FKSchema   string
	FKTable    string
	FKColumn   string
	PKCatalog  string
	PKSchema   string
	PKTable    string
	PKColumn   string
	UpdateRule int
	DeleteRule int
	KeySeq     int
}

// ResultColumn describes a column of a result set.
type ResultColumn struct {
	Name          string
	TypeName      string
	AutoIncrement bool
}
