package gather

import (
	"context"
	"slices"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// IndexResolver populates indexes and primary keys of physical tables.
type IndexResolver struct {
	src metadata.Source
	cfg Config
	run runner
}

// NewIndexResolver returns a resolver over src.
func NewIndexResolver(src metadata.Source, cfg Config) *IndexResolver {
	return &IndexResolver{src: src, cfg: cfg, run: runner{src: src, cfg: cfg}}
}

// Resolve runs index then primary key resolution. Views and remote tables are
// left alone.
func (r *IndexResolver) Resolve(ctx context.Context, db *model.Database, t *model.Table) error {
	if t.IsView() || t.IsRemote() {
		return nil
	}
	if err := r.resolveIndexes(ctx, db, t); err != nil {
		return err
	}
	return r.resolvePrimaryKeys(ctx, db, t)
}

func (r *IndexResolver) resolveIndexes(ctx context.Context, db *model.Database, t *model.Table) error {
	if sql := r.cfg.sql(PropIndexes); sql != "" {
		rows, err := r.run.query(ctx, sql, db, t)
		if err == nil {
			for _, row := range metadata.IndexRows(rows) {
				addIndexRow(t, row, false)
			}
			return nil
		}
		if IsConfigError(err) {
			return err
		}
		logger.Warn("failed to query index information with SQL '%s': %v", sql, err)
	}

	rows, err := r.src.Indexes(ctx, t.Catalog, t.Schema, t.Name)
	if err != nil {
		if t.IsLogical() {
			return nil
		}
		return &TableError{Table: t.FullName(), Op: "indexes", Err: err}
	}
	for _, row := range rows {
		addIndexRow(t, row, true)
	}
	return nil
}

func addIndexRow(t *model.Table, row metadata.IndexRow, fallback bool) {
	if row.Type == metadata.IndexStatistic {
		return
	}
	if fallback && row.OrdinalPosition <= 0 {
		return
	}
	if row.Name == "" {
		return
	}
	idx := t.Index(row.Name)
	if idx == nil {
		idx = t.AddIndex(model.NewIndex(row.Name, !row.NonUnique))
	}
	idx.AddColumn(t.Column(row.ColumnName), row.AscOrDesc)
}

func (r *IndexResolver) resolvePrimaryKeys(ctx context.Context, db *model.Database, t *model.Table) error {
	var (
		rows []metadata.PrimaryKeyRow
		err  error
	)
	if sql := r.cfg.sql(PropPrimaryKeys); sql != "" {
		var raw []metadata.Row
		raw, err = r.run.query(ctx, sql, db, t)
		if err == nil {
			rows = metadata.PrimaryKeyRows(raw)
		} else if IsConfigError(err) {
			return err
		} else {
			logger.Warn("failed to query primary keys with SQL '%s': %v", sql, err)
		}
	}
	if rows == nil {
		rows, err = r.src.PrimaryKeys(ctx, t.Catalog, t.Schema, t.Name)
		if err != nil {
			if t.IsLogical() {
				return nil
			}
			return &TableError{Table: t.FullName(), Op: "primary keys", Err: err}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	slices.SortStableFunc(rows, func(a, b metadata.PrimaryKeyRow) int { return a.KeySeq - b.KeySeq })

	var pkName string
	cols := make([]*model.Column, 0, len(rows))
	for _, row := range rows {
		c := t.Column(row.ColumnName)
		if c == nil {
			logger.Error("primary key column %s not found in table %s (reported as catalog %q schema %q table %q)",
				row.ColumnName, t.FullName(), row.Catalog, row.Schema, row.Table)
			if t.IsLogical() {
				continue
			}
			return &TableError{Table: t.FullName(), Op: "primary keys", Err: errMissingColumn(row.ColumnName)}
		}
		t.SetPrimaryColumn(c)
		cols = append(cols, c)
		if pkName == "" {
			pkName = row.PKName
		}
	}

	if pkName != "" {
		if idx := t.Index(pkName); idx != nil {
			idx.Primary = true
			return nil
		}
		logger.Debug("no index named %s for primary key of %s", pkName, t.FullName())
	}
	name := t.Name + "_s_pk"
	if t.Index(name) != nil {
		return nil
	}
	idx := model.NewIndex(name, true)
	idx.Primary = true
	for _, c := range cols {
		idx.AddColumn(c, "A")
	}
	t.AddIndex(idx)
	return nil
}

type errMissingColumn string

func (e errMissingColumn) Error() string { return "column " + string(e) + " not found" }
