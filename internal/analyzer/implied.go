package analyzer

import (
	"slices"
	"strings"

	"erdspy/internal/model"
)

// languageID is a column name that never gets an implied parent and may key a
// table even as part of a composite primary key.
const languageID = "LanguageId"

// ImpliedConstraints links columns that look like references to the single
// column primary key of another table: same name (or <anything>_<pk>, or
// <table><anything><pk>), same type and same length. A column matching more
// than one table, or already the parent of the key it matches, is left alone.
// The new constraints are linked into the graph and returned.
func ImpliedConstraints(tables []*model.Table) []*model.ForeignKey {
	var candidates []*model.Column
	for _, t := range tables {
		for _, c := range t.Columns() {
			if !c.IsForeignKey() && !c.IsPrimary() && c.AllowsImpliedParents() && c.Name != languageID {
				candidates = append(candidates, c)
			}
		}
	}
	slices.SortStableFunc(candidates, model.CompareColumns)

	keyed := keyedTables(tables)

	var implied []*model.ForeignKey
	for _, child := range candidates {
		parent := findParent(child, keyed)
		if parent == nil || parent.Table() == child.Table() {
			continue
		}
		// never reverse an existing relationship
		if parent.ParentConstraint(child) != nil {
			continue
		}
		implied = append(implied, model.NewImpliedForeignKey(parent, child))
	}
	return implied
}

// keyedTables returns the primary key column of every table keyed by a single
// column that accepts implied children.
func keyedTables(tables []*model.Table) []*model.Column {
	var keys []*model.Column
	for _, t := range tables {
		pks := t.PrimaryColumns()
		if len(pks) == 0 {
			continue
		}
		if len(pks) != 1 && !slices.ContainsFunc(pks, func(c *model.Column) bool { return c.Name == languageID }) {
			continue
		}
		if pks[0].AllowsImpliedChildren() {
			keys = append(keys, pks[0])
		}
	}
	return keys
}

func findParent(child *model.Column, keys []*model.Column) *model.Column {
	var found *model.Column
	for _, pk := range keys {
		if !nameMatches(child.Name, pk.Name, pk.Table().Name) || !typeMatches(child, pk) {
			continue
		}
		if found != nil {
			return nil
		}
		found = pk
	}
	return found
}

func nameMatches(column, pk, table string) bool {
	column, pk, table = strings.ToLower(column), strings.ToLower(pk), strings.ToLower(table)
	if column == pk || strings.HasSuffix(column, "_"+pk) {
		return true
	}
	return len(column) >= len(table)+len(pk) && strings.HasPrefix(column, table) && strings.HasSuffix(column, pk)
}

func typeMatches(c, pk *model.Column) bool {
	sameType := (c.TypeCode != 0 && c.TypeCode == pk.TypeCode) || strings.EqualFold(c.TypeName, pk.TypeName)
	return sameType && c.Length == pk.Length
}
