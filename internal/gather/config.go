// Package gather builds a connected schema model from a metadata source.
package gather

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"erdspy/internal/xmlmeta"
)

// Names of the custom SQL properties a dialect or configuration may supply.
const (
	PropTables             = "selectTablesSql"
	PropViews              = "selectViewsSql"
	PropIndexes            = "selectIndexesSql"
	PropPrimaryKeys        = "selectPrimaryKeysSql"
	PropRowCount           = "selectRowCountSql"
	PropCheckConstraints   = "selectCheckConstraintsSql"
	PropTableIDs           = "selectTableIdsSql"
	PropIndexIDs           = "selectIndexIdsSql"
	PropTableComments      = "selectTableCommentsSql"
	PropColumnComments     = "selectColumnCommentsSql"
	PropViewComments       = "selectViewCommentsSql"
	PropViewColumnComments = "selectViewColumnCommentsSql"
	PropColumnTypes        = "selectColumnTypesSql"
	PropViewDefinition     = "selectViewSql"
	PropRoutines           = "selectRoutinesSql"
	PropRoutineParameters  = "selectRoutineParametersSql"
	PropSequences          = "selectSequencesSql"
	PropTypes              = "selectTypesSql"
	PropTriggers           = "selectTriggersSql"
	PropCatalogs           = "selectCatalogsSql"
	PropSchemas            = "selectSchemasSql"
	PropMultiRowData       = "multirowdata"
)

const (
	// DefaultAdvisoryThreshold is the projected connect time above which a
	// hint to disable exported keys is logged.
	DefaultAdvisoryThreshold = 30 * time.Minute
	DefaultMaxThreads        = 8
)

// Pattern is a regular expression that must match a whole name. The zero value
// matches nothing.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// CompilePattern compiles expr with whole-string semantics. An empty expr
// matches nothing.
func CompilePattern(expr string) (Pattern, error) {
	if expr == "" {
		return Pattern{}, nil
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return Pattern{expr: expr, re: re}, nil
}

// MustPattern is CompilePattern for constants.
func MustPattern(expr string) Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether s matches the whole pattern.
func (p Pattern) Matches(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

func (p Pattern) String() string { return p.expr }

// Config drives a gather run. It is passed by value to every resolver.
type Config struct {
	// Catalog and Schema select the analyzed container.
	Catalog string
	Schema  string

	TableInclusions Pattern
	TableExclusions Pattern
	// ColumnExclusions removes "table.column" from every relationship.
	ColumnExclusions Pattern
	// IndirectColumnExclusions removes "table.column" from relationships that
	// do not touch the focus table of a diagram.
	IndirectColumnExclusions Pattern

	TableTypes []string
	ViewTypes  []string

	IncludeViews    bool
	NumRows         bool
	ExportedKeys    bool
	MultipleSchemas bool
	// MaxThreads bounds concurrent table builds; 1 builds sequentially and
	// values below 1 fall back to DefaultMaxThreads.
	MaxThreads int

	// SQL holds custom statements keyed by the Prop* names.
	SQL map[string]string

	// Meta is optional override metadata merged after connection.
	Meta *xmlmeta.SchemaMeta

	AdvisoryThreshold time.Duration
}

// DefaultConfig includes every table and view and gathers row counts and
// exported keys.
func DefaultConfig() Config {
	return Config{
		TableInclusions:   MustPattern(".*"),
		TableTypes:        []string{"TABLE"},
		ViewTypes:         []string{"VIEW"},
		IncludeViews:      true,
		NumRows:           true,
		ExportedKeys:      true,
		MaxThreads:        DefaultMaxThreads,
		SQL:               map[string]string{},
		AdvisoryThreshold: DefaultAdvisoryThreshold,
	}
}

// IsTableIncluded applies the inclusion and exclusion patterns to a table name.
func (c Config) IsTableIncluded(name string) bool {
	return c.TableInclusions.Matches(name) && !c.TableExclusions.Matches(name)
}

// IsValidTableName also rejects vendor internal names containing '$'.
func (c Config) IsValidTableName(name string) bool {
	return c.IsTableIncluded(name) && !strings.Contains(name, "$")
}

func (c Config) sql(prop string) string {
	return strings.TrimSpace(c.SQL[prop])
}
