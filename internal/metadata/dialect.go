package metadata

import (
	"database/sql"
	"strings"
)

// Dialect holds the catalog queries for one engine. Queries use named
// parameters (see Prepare) and label their columns like the standard metadata
// API (TABLE_SCHEM, COLUMN_NAME, FKCOLUMN_NAME, ...).
type Dialect struct {
	Name            string
	IdentifierQuote string
	ExtraNameChars  string
	Keywords        []string
	Placeholder     func(int) string
	// DefaultSchema is analyzed when configuration names no schema. Empty
	// means the database name doubles as the schema.
	DefaultSchema string
	// UserSchema makes the upper cased login name the default schema.
	UserSchema bool

	VersionSQL      string
	CatalogsSQL     string
	SchemasSQL      string
	TablesSQL       string
	ColumnsSQL      string
	IndexesSQL      string
	PrimaryKeysSQL  string
	ImportedKeysSQL string
	ExportedKeysSQL string

	// AutoIncrement classifies a probe result column. Nil uses TypeNameAutoIncrement.
	AutoIncrement func(ct *sql.ColumnType) bool

	// Properties are the engine's default custom statements keyed by property
	// name, e.g. selectRowCountSql. Configuration may override them.
	Properties map[string]string
}

// TypeNameAutoIncrement guesses auto increment columns from the reported type name.
func TypeNameAutoIncrement(ct *sql.ColumnType) bool {
	n := strings.ToUpper(ct.DatabaseTypeName())
	return strings.Contains(n, "SERIAL") || strings.Contains(n, "IDENTITY") || strings.Contains(n, "AUTOINCREMENT")
}
