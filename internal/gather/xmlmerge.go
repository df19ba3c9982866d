package gather

import (
	"context"

	"erdspy/internal/logger"
	"erdspy/internal/model"
	"erdspy/internal/xmlmeta"
)

// mergeMeta applies the override document in two passes: first tables and
// columns, then relationships, so references may point at tables the document
// declares later.
func (g *Gatherer) mergeMeta(ctx context.Context, db *model.Database) error {
	meta := g.cfg.Meta
	if meta.Comments != "" {
		switch {
		case db.Schema != nil:
			db.Schema.Comment = meta.Comments
		case db.Catalog != nil:
			db.Catalog.Comment = meta.Comments
		}
	}

	tables := make([]*model.Table, len(meta.Tables))
	for i, tm := range meta.Tables {
		t, err := g.metaTable(ctx, db, tm)
		if err != nil {
			return err
		}
		g.updateTable(t, tm)
		tables[i] = t
	}

	for i, tm := range meta.Tables {
		t := tables[i]
		for _, cm := range tm.Columns {
			child := t.Column(cm.Name)
			if child == nil {
				continue
			}
			for _, fm := range cm.ForeignKeys {
				parent, err := g.metaParent(ctx, db, fm)
				if err != nil {
					return err
				}
				if parent == nil {
					logger.Warn("undefined table '%s' referenced by '%s'", fm.TableName, child.QualifiedName())
					continue
				}
				g.keys.ConnectXML(ctx, db, child, parent, fm.ColumnName)
			}
		}
	}
	return nil
}

func (g *Gatherer) container(db *model.Database) string {
	return firstNonEmpty(db.SchemaName(), db.CatalogName(), db.Name)
}

func (g *Gatherer) metaTable(ctx context.Context, db *model.Database, tm xmlmeta.TableMeta) (*model.Table, error) {
	if tm.IsRemote() {
		return g.keys.AddRemoteTable(ctx, db, tm.RemoteCatalog, tm.RemoteSchema, tm.Name, g.container(db), true)
	}
	if t := db.Lookup(tm.Name); t != nil {
		return t, nil
	}
	t := model.NewLogicalTable(db.Name, db.CatalogName(), db.SchemaName(), tm.Name, tm.Comments)
	db.AddTable(t)
	logger.Debug("added logical table %s", t.FullName())
	return db.Table(tm.Name), nil
}

func (g *Gatherer) metaParent(ctx context.Context, db *model.Database, fm xmlmeta.ForeignKeyMeta) (*model.Table, error) {
	if fm.IsRemote() {
		return g.keys.AddRemoteTable(ctx, db, fm.RemoteCatalog, fm.RemoteSchema, fm.TableName, g.container(db), true)
	}
	return db.Lookup(fm.TableName), nil
}

func (g *Gatherer) updateTable(t *model.Table, tm xmlmeta.TableMeta) {
	if tm.Comments != "" {
		t.SetComments(tm.Comments)
	}
	for _, cm := range tm.Columns {
		c := t.Column(cm.Name)
		if c == nil {
			c = newMetaColumn(t, cm)
			t.AddColumn(c)
		}
		updateColumn(c, cm)
	}
}

func newMetaColumn(t *model.Table, cm xmlmeta.ColumnMeta) *model.Column {
	c := model.NewColumn(cm.Name)
	if cm.ID != nil {
		c.ID = *cm.ID
	} else {
		c.ID = len(t.Columns())
	}
	if cm.Type != "" {
		c.TypeName = cm.Type
	}
	c.Length = cm.Size
	c.DecimalDigits = cm.Digits
	c.Nullable = cm.Nullable
	c.AutoUpdated = cm.AutoUpdated
	c.DefaultValue = cm.DefaultValue
	return c
}

func updateColumn(c *model.Column, cm xmlmeta.ColumnMeta) {
	if cm.Comments != "" {
		c.Comments = cm.Comments
	}
	if cm.IsPrimary {
		c.SetPrimary()
	}
	c.SetAllowImpliedParents(!cm.ImpliedParentsDisabled)
	c.SetAllowImpliedChildren(!cm.ImpliedChildrenDisabled)
	c.SetExclusions(c.IsExcluded() || cm.IsExcluded, c.IsAllExcluded() || cm.IsAllExcluded)
}
