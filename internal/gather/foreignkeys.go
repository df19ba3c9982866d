package gather

import (
	"context"
	"fmt"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// ForeignKeyResolver links child columns to parent columns and discovers
// tables in other containers on demand.
type ForeignKeyResolver struct {
	src     metadata.Source
	cfg     Config
	columns *ColumnResolver
}

// NewForeignKeyResolver returns a resolver over src. columns fills in remote
// tables as they are discovered.
func NewForeignKeyResolver(src metadata.Source, cfg Config, columns *ColumnResolver) *ForeignKeyResolver {
	return &ForeignKeyResolver{src: src, cfg: cfg, columns: columns}
}

// Connect resolves the imported keys of t and, when enabled, registers the
// remote tables that reference it. locals are the tables and views of the
// analyzed container.
func (r *ForeignKeyResolver) Connect(ctx context.Context, db *model.Database, t *model.Table, locals *model.Map[*model.Table]) error {
	rows, err := r.src.ImportedKeys(ctx, t.Catalog, t.Schema, t.Name)
	if err != nil {
		if r.strict(t) {
			return fmt.Errorf("imported keys of remote table %s: %w", t.FullName(), err)
		}
		logger.Warn("failed to get imported keys of %s: %v", t.FullName(), err)
	}
	for _, row := range rows {
		if err := r.importKey(ctx, db, t, row, locals); err != nil {
			return err
		}
	}

	if t.IsRemote() || !r.cfg.ExportedKeys || (t.Schema == "" && t.Catalog == "") {
		return nil
	}
	rows, err = r.src.ExportedKeys(ctx, t.Catalog, t.Schema, t.Name)
	if err != nil {
		logger.Warn("failed to get exported keys of %s: %v", t.FullName(), err)
		return nil
	}
	for _, row := range rows {
		if row.FKCatalog == t.Catalog && row.FKSchema == t.Schema {
			continue
		}
		if _, err := r.AddRemoteTable(ctx, db, row.FKCatalog, row.FKSchema, row.FKTable, t.Container(), false); err != nil {
			return err
		}
	}
	return nil
}

// strict reports whether failures on t must abort the gather.
func (r *ForeignKeyResolver) strict(t *model.Table) bool {
	return r.cfg.MultipleSchemas && t.IsRemote() && !t.IsLogical()
}

func (r *ForeignKeyResolver) importKey(ctx context.Context, db *model.Database, t *model.Table, row metadata.ForeignKeyRow, locals *model.Map[*model.Table]) error {
	if row.FKName == "" {
		return nil
	}
	parentContainer := firstNonEmpty(row.PKSchema, row.PKCatalog, db.Name)
	if t.IsRemote() && parentContainer != t.BaseContainer {
		return nil
	}

	if !r.cfg.IsTableIncluded(row.PKTable) {
		logger.Debug("ignoring %s referenced by %s: excluded", row.PKTable, row.FKName)
		return nil
	}
	child := t.Column(row.FKColumn)
	if child == nil {
		logger.Warn("couldn't add FK '%s' to table '%s': column '%s' doesn't exist", row.FKName, t.FullName(), row.FKColumn)
		return nil
	}

	parent, _ := locals.Get(row.PKTable)
	if parent == nil || parent.Container() != parentContainer {
		var err error
		parent, err = r.AddRemoteTable(ctx, db, row.PKCatalog, row.PKSchema, row.PKTable, baseContainer(t), false)
		if err != nil {
			return err
		}
	}
	if parent == nil {
		return nil
	}

	parentCol := parent.Column(row.PKColumn)
	if parentCol == nil {
		logger.Warn("couldn't add FK '%s' to table '%s': column '%s' doesn't exist in table '%s'",
			row.FKName, t.FullName(), row.PKColumn, parent.FullName())
		return nil
	}
	fk := model.ForeignKeyFor(t, row.FKName, model.Rule(row.UpdateRule), model.Rule(row.DeleteRule))
	fk.Link(child, parentCol)
	return nil
}

// AddRemoteTable returns the remote table (catalog, schema, name), creating it
// if needed. A new non logical table gets its columns and then its imported
// keys that point back into baseContainer.
func (r *ForeignKeyResolver) AddRemoteTable(ctx context.Context, db *model.Database, catalog, schema, name, baseContainer string, logical bool) (*model.Table, error) {
	if t := db.RemoteTable(catalog, schema, name); t != nil {
		return t, nil
	}
	if logical {
		t, _ := db.PutRemoteTable(model.NewLogicalRemoteTable(db.Name, catalog, schema, name, baseContainer))
		logger.Debug("added logical remote table %s", t.FullName())
		return t, nil
	}

	t := model.NewRemoteTable(db.Name, catalog, schema, name, baseContainer)
	if err := r.columns.Resolve(ctx, t); err != nil {
		if r.strict(t) {
			return nil, err
		}
		logger.Warn("unable to get columns of remote table %s: %v", t.FullName(), err)
	}
	t, added := db.PutRemoteTable(t)
	if !added {
		return t, nil
	}
	logger.Debug("added remote table %s", t.FullName())
	if err := r.Connect(ctx, db, t, db.Locals()); err != nil {
		return nil, err
	}
	return t, nil
}

// ConnectXML links a column to the target of an override foreign key.
func (r *ForeignKeyResolver) ConnectXML(ctx context.Context, db *model.Database, child *model.Column, parentTable *model.Table, parentColumn string) *model.ForeignKey {
	parent := parentTable.Column(parentColumn)
	if parent == nil {
		if !parentTable.IsLogical() {
			logger.Warn("undefined column '%s.%s' referenced by '%s'", parentTable.FullName(), parentColumn, child.QualifiedName())
			return nil
		}
		parent = model.NewColumn(parentColumn)
		parent.TypeName = child.TypeName
		parent.Length = child.Length
		parent.DecimalDigits = child.DecimalDigits
		parent.ID = len(parentTable.Columns())
		parentTable.AddColumn(parent)
	}
	if !parent.IsPrimary() {
		logger.Warn("assuming %s is a primary key due to being referenced by %s", parent.QualifiedName(), child.QualifiedName())
	}
	return model.NewXMLForeignKey(parent, child)
}

func baseContainer(t *model.Table) string {
	if t.IsRemote() {
		return t.BaseContainer
	}
	return t.Container()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
