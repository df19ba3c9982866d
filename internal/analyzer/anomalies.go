package analyzer

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"erdspy/internal/model"
)

// TablesWithoutIndexes returns physical tables with no index at all.
func TablesWithoutIndexes(tables []*model.Table) []*model.Table {
	var out []*model.Table
	for _, t := range tables {
		if len(t.Indexes()) == 0 && !t.IsView() && !t.IsLogical() {
			out = append(out, t)
		}
	}
	model.SortTables(out)
	return out
}

// TablesWithIncrementingColumnNames returns tables with columns such as
// phone1 and phone2, a hint of a repeating group. A name without a numeric
// suffix counts as number 1, so phone and phone2 also qualify.
func TablesWithIncrementingColumnNames(tables []*model.Table) []*model.Table {
	var out []*model.Table
	for _, t := range tables {
		if hasIncrementingColumns(t) {
			out = append(out, t)
		}
	}
	model.SortTables(out)
	return out
}

func hasIncrementingColumns(t *model.Table) bool {
	prefixes := map[string]int64{}
	for _, c := range t.Columns() {
		name := c.Name
		i := len(name)
		for i > 1 && unicode.IsDigit(rune(name[i-1])) {
			i--
		}
		prefix, digits := name[:i], name[i:]
		if digits == "" {
			digits = "1"
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if prev, ok := prefixes[prefix]; ok && (prev-n == 1 || n-prev == 1) {
			return true
		}
		prefixes[prefix] = n
	}
	return false
}

// TablesWithOneColumn returns tables that have exactly one column.
func TablesWithOneColumn(tables []*model.Table) []*model.Table {
	var out []*model.Table
	for _, t := range tables {
		if len(t.Columns()) == 1 {
			out = append(out, t)
		}
	}
	model.SortTables(out)
	return out
}

// DefaultNullStringColumns returns columns whose default is the string 'null'
// rather than NULL.
func DefaultNullStringColumns(tables []*model.Table) []*model.Column {
	var out []*model.Column
	for _, t := range tables {
		for _, c := range t.Columns() {
			if c.DefaultValue != nil && strings.EqualFold(strings.TrimSpace(*c.DefaultValue), "'null'") {
				out = append(out, c)
			}
		}
	}
	slices.SortStableFunc(out, model.CompareColumns)
	return out
}

// SelfReferencingConstraints returns the constraints whose parent and child
// table are the same.
func SelfReferencingConstraints(tables []*model.Table) []*model.ForeignKey {
	var out []*model.ForeignKey
	seen := map[*model.ForeignKey]bool{}
	for _, t := range tables {
		for _, c := range t.Columns() {
			for _, p := range c.Parents() {
				fk := c.ParentConstraint(p)
				if p.Table() == t && !seen[fk] {
					seen[fk] = true
					out = append(out, fk)
				}
			}
		}
	}
	return out
}

// Report collects every anomaly of a schema.
type Report struct {
	WithoutIndexes          []*model.Table
	IncrementingColumnNames []*model.Table
	OneColumn               []*model.Table
	DefaultNullString       []*model.Column
	Orphans                 []*model.Table
	SelfReferencing         []*model.ForeignKey
}

// Anomalies runs every anomaly check over the local tables of db.
func Anomalies(db *model.Database, withImplied bool) Report {
	tables := db.Tables()
	return Report{
		WithoutIndexes:          TablesWithoutIndexes(tables),
		IncrementingColumnNames: TablesWithIncrementingColumnNames(tables),
		OneColumn:               TablesWithOneColumn(tables),
		DefaultNullString:       DefaultNullStringColumns(tables),
		Orphans:                 Orphans(tables, withImplied),
		SelfReferencing:         SelfReferencingConstraints(tables),
	}
}
