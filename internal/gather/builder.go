package gather

import (
	"context"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// TableBuilder assembles one table or view as a unit of work.
type TableBuilder struct {
	src     metadata.Source
	cfg     Config
	quoter  *metadata.Quoter
	columns *ColumnResolver
	indexes *IndexResolver
	run     runner
}

// NewTableBuilder wires a builder from its resolvers.
func NewTableBuilder(src metadata.Source, cfg Config, quoter *metadata.Quoter, columns *ColumnResolver, indexes *IndexResolver) *TableBuilder {
	return &TableBuilder{
		src:     src,
		cfg:     cfg,
		quoter:  quoter,
		columns: columns,
		indexes: indexes,
		run:     runner{src: src, cfg: cfg},
	}
}

// Build creates the table described by row, resolves its columns, indexes,
// primary key and row count, and publishes it in db.
func (b *TableBuilder) Build(ctx context.Context, db *model.Database, row metadata.TableRow) (*model.Table, error) {
	t := model.NewTable(db.Name, row.Catalog, row.Schema, row.Name, row.Remarks)
	if err := b.columns.Resolve(ctx, t); err != nil {
		return nil, err
	}
	if err := b.indexes.Resolve(ctx, db, t); err != nil {
		return nil, err
	}
	if row.NumRows >= 0 {
		t.SetNumRows(row.NumRows)
	} else if b.cfg.NumRows {
		n, err := b.RowCount(ctx, db, t)
		if err != nil {
			return nil, err
		}
		t.SetNumRows(n)
	}
	db.AddTable(t)
	return t, nil
}

// BuildView creates the view described by row with its columns and publishes it.
func (b *TableBuilder) BuildView(ctx context.Context, db *model.Database, row metadata.TableRow) (*model.Table, error) {
	v := model.NewView(db.Name, row.Catalog, row.Schema, row.Name, row.Remarks, row.ViewDefinition)
	if err := b.columns.Resolve(ctx, v); err != nil {
		return nil, err
	}
	db.AddView(v)
	return v, nil
}

// RowCount tries the custom row count statement, then count(*), then count(1).
// Each generated statement is retried once with forced quoting. Exhausting the
// cascade yields -1; only an unusable custom statement is an error.
func (b *TableBuilder) RowCount(ctx context.Context, db *model.Database, t *model.Table) (int64, error) {
	if t.IsView() || t.IsRemote() || t.IsLogical() {
		return -1, nil
	}
	if sql := b.cfg.sql(PropRowCount); sql != "" {
		rows, err := b.run.query(ctx, sql, db, t)
		switch {
		case err == nil && len(rows) > 0:
			if n, ok := rows[0].Int64("row_count"); ok {
				return n, nil
			}
		case IsConfigError(err):
			return -1, err
		case err != nil:
			logger.Debug("custom row count of %s failed: %v", t.FullName(), err)
		}
	}

	var lastErr error
	for _, fn := range []string{"count(*)", "count(1)"} {
		for _, force := range []bool{false, true} {
			sql := "select " + fn + " as row_count from " + b.quoter.QualifiedTable(t.Catalog, t.Schema, t.Name, force)
			rows, err := b.src.Query(ctx, sql)
			if err != nil {
				lastErr = err
				continue
			}
			if len(rows) > 0 {
				if n, ok := rows[0].Int64("row_count"); ok {
					return n, nil
				}
			}
		}
	}
	logger.Warn("unable to extract the number of rows for table %s: %v", t.FullName(), lastErr)
	return -1, nil
}
