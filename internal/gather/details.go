package gather

import (
	"context"
	"strings"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// gatherDetails runs every configured auxiliary statement. Each one is
// optional and a failure only loses that detail.
func (g *Gatherer) gatherDetails(ctx context.Context, db *model.Database) error {
	steps := []func(context.Context, *model.Database) error{
		g.catalogComments,
		g.schemaComments,
		g.checkConstraints,
		g.tableIDs,
		g.indexIDs,
		g.tableComments,
		g.columnComments,
		g.viewComments,
		g.viewColumnComments,
		g.columnTypes,
		g.viewDefinitions,
		g.routines,
		g.sequences,
		g.types,
		g.triggers,
	}
	for _, step := range steps {
		if err := step(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// each runs the statement configured for prop and hands every row to fn.
func (g *Gatherer) each(ctx context.Context, db *model.Database, prop string, t *model.Table, fn func(metadata.Row)) error {
	sql := g.cfg.sql(prop)
	if sql == "" {
		return nil
	}
	rows, err := g.run.query(ctx, sql, db, t)
	if err != nil {
		if IsConfigError(err) {
			return err
		}
		logger.Warn("failed to retrieve %s with SQL '%s': %v", prop, sql, err)
		return nil
	}
	for _, r := range rows {
		fn(r)
	}
	return nil
}

func (g *Gatherer) multiRow() bool {
	return strings.EqualFold(g.cfg.sql(PropMultiRowData), "true")
}

func (g *Gatherer) catalogComments(ctx context.Context, db *model.Database) error {
	if db.Catalog == nil {
		return nil
	}
	return g.each(ctx, db, PropCatalogs, nil, func(r metadata.Row) {
		if c, ok := r.String("catalog_comment"); ok {
			db.Catalog.Comment = strings.TrimSpace(c)
		}
	})
}

func (g *Gatherer) schemaComments(ctx context.Context, db *model.Database) error {
	if db.Schema == nil {
		return nil
	}
	return g.each(ctx, db, PropSchemas, nil, func(r metadata.Row) {
		if c, ok := r.String("schema_comment"); ok {
			db.Schema.Comment = strings.TrimSpace(c)
		}
	})
}

func (g *Gatherer) checkConstraints(ctx context.Context, db *model.Database) error {
	multi := g.multiRow()
	return g.each(ctx, db, PropCheckConstraints, nil, func(r metadata.Row) {
		t := db.Table(r.Str("table_name"))
		if t == nil {
			return
		}
		if multi {
			t.AppendCheckConstraint(r.Str("constraint_name"), r.Str("text"))
		} else {
			t.AddCheckConstraint(r.Str("constraint_name"), r.Str("text"))
		}
	})
}

func (g *Gatherer) tableIDs(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropTableIDs, nil, func(r metadata.Row) {
		if t := db.Lookup(r.Str("table_name")); t != nil {
			t.ID = r.Str("table_id")
		}
	})
}

func (g *Gatherer) indexIDs(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropIndexIDs, nil, func(r metadata.Row) {
		t := db.Table(r.Str("table_name"))
		if t == nil {
			return
		}
		if idx := t.Index(r.Str("index_name")); idx != nil {
			idx.ID = r.Str("index_id")
		}
	})
}

func (g *Gatherer) tableComments(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropTableComments, nil, func(r metadata.Row) {
		if t := db.Table(r.Str("table_name")); t != nil {
			t.SetComments(r.Str("comments"))
		}
	})
}

func (g *Gatherer) viewComments(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropViewComments, nil, func(r metadata.Row) {
		name := r.Str("view_name")
		if name == "" {
			name = r.Str("table_name")
		}
		if v := db.View(name); v != nil {
			v.SetComments(r.Str("comments"))
		}
	})
}

func setColumnComment(t *model.Table, r metadata.Row) {
	if t == nil {
		return
	}
	if c := t.Column(r.Str("column_name")); c != nil {
		c.Comments = strings.TrimSpace(r.Str("comments"))
	}
}

func (g *Gatherer) columnComments(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropColumnComments, nil, func(r metadata.Row) {
		setColumnComment(db.Table(r.Str("table_name")), r)
	})
}

func (g *Gatherer) viewColumnComments(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropViewColumnComments, nil, func(r metadata.Row) {
		name := r.Str("view_name")
		if name == "" {
			name = r.Str("table_name")
		}
		setColumnComment(db.View(name), r)
	})
}

func (g *Gatherer) columnTypes(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropColumnTypes, nil, func(r metadata.Row) {
		t := db.Lookup(r.Str("table_name"))
		if t == nil {
			return
		}
		c := t.Column(r.Str("column_name"))
		if c == nil {
			return
		}
		if typ, ok := r.String("column_type"); ok && typ != "" {
			c.TypeName = typ
		}
		if short, ok := r.String("short_column_type"); ok {
			c.ShortTypeName = short
		}
	})
}

func (g *Gatherer) viewDefinitions(ctx context.Context, db *model.Database) error {
	if g.cfg.sql(PropViewDefinition) == "" {
		return nil
	}
	for _, v := range db.Views() {
		if v.ViewDefinition != "" {
			continue
		}
		var def strings.Builder
		err := g.each(ctx, db, PropViewDefinition, v, func(r metadata.Row) {
			if text, ok := r.String("view_definition"); ok {
				def.WriteString(text)
			} else {
				def.WriteString(r.Str("text"))
			}
		})
		if err != nil {
			return err
		}
		v.ViewDefinition = def.String()
	}
	return nil
}

func (g *Gatherer) routines(ctx context.Context, db *model.Database) error {
	multi := g.multiRow()
	err := g.each(ctx, db, PropRoutines, nil, func(r metadata.Row) {
		name := r.Str("routine_name")
		if name == "" {
			return
		}
		if existing, ok := db.Routines.Get(name); ok && multi {
			existing.Definition += r.Str("routine_definition")
			return
		}
		db.Routines.Put(name, &model.Routine{
			Name:               name,
			Type:               r.Str("routine_type"),
			ReturnType:         r.Str("dtd_identifier"),
			DefinitionLanguage: r.Str("routine_body"),
			Definition:         r.Str("routine_definition"),
			DataAccess:         r.Str("sql_data_access"),
			SecurityType:       r.Str("security_type"),
			Deterministic:      r.Bool("is_deterministic"),
			Comment:            r.Str("routine_comment"),
		})
	})
	if err != nil {
		return err
	}
	return g.each(ctx, db, PropRoutineParameters, nil, func(r metadata.Row) {
		routine, ok := db.Routines.Get(r.Str("specific_name"))
		if !ok {
			return
		}
		routine.Parameters = append(routine.Parameters, model.RoutineParameter{
			Name: r.Str("parameter_name"),
			Type: r.Str("dtd_identifier"),
			Mode: r.Str("parameter_mode"),
		})
	})
}

func (g *Gatherer) sequences(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropSequences, nil, func(r metadata.Row) {
		name := r.Str("sequence_name")
		if name == "" {
			return
		}
		start, _ := r.Int64("start_value")
		inc, _ := r.Int64("increment")
		db.Sequences.Put(name, &model.Sequence{Name: name, StartValue: start, Increment: inc})
	})
}

func (g *Gatherer) types(ctx context.Context, db *model.Database) error {
	multi := g.multiRow()
	return g.each(ctx, db, PropTypes, nil, func(r metadata.Row) {
		name := r.Str("name")
		if name == "" {
			return
		}
		if existing, ok := db.Types.Get(name); ok && multi {
			existing.Definition += r.Str("definition")
			return
		}
		db.Types.Put(name, &model.Type{
			TypeOfType:  r.Str("type_of_type"),
			Catalog:     r.Str("catalog"),
			Schema:      r.Str("schema"),
			Name:        name,
			Description: r.Str("description"),
			Definition:  r.Str("definition"),
		})
	})
}

func (g *Gatherer) triggers(ctx context.Context, db *model.Database) error {
	return g.each(ctx, db, PropTriggers, nil, func(r metadata.Row) {
		name := r.Str("trigger_name")
		if name == "" {
			return
		}
		tr, ok := db.Triggers.Get(name)
		if !ok {
			tr = &model.Trigger{
				Name:       name,
				Table:      r.Str("table_name"),
				Timing:     r.Str("action_timing"),
				Definition: r.Str("action_statement"),
			}
			db.Triggers.Put(name, tr)
		}
		if ev := r.Str("event_manipulation"); ev != "" && !strings.Contains(tr.Event, ev) {
			if tr.Event != "" {
				tr.Event += " OR "
			}
			tr.Event += ev
		}
	})
}
