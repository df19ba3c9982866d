package analyzer

import (
	"strings"

	"github.com/jinzhu/inflection"

	"erdspy/internal/model"
)

// RailsConstraints links <singular>_id columns to the ID column of the table
// named by the plural, the way Rails applications relate tables without
// declaring foreign keys. tables is keyed by table name.
func RailsConstraints(tables *model.Map[*model.Table]) []*model.ForeignKey {
	var out []*model.ForeignKey
	for _, t := range tables.Values() {
		for _, c := range t.Columns() {
			if c.IsForeignKey() || !c.AllowsImpliedParents() {
				continue
			}
			parentTable := railsParent(c, tables)
			if parentTable == nil {
				continue
			}
			if id := parentTable.Column("ID"); id != nil {
				out = append(out, model.NewRailsForeignKey(id, c))
			}
		}
	}
	return out
}

func railsParent(c *model.Column, tables *model.Map[*model.Table]) *model.Table {
	name := strings.ToLower(c.Name)
	singular, ok := strings.CutSuffix(name, "_id")
	if !ok || singular == "" {
		return nil
	}
	t, _ := tables.Get(inflection.Plural(singular))
	return t
}
