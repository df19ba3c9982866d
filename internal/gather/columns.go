package gather

import (
	"context"
	"strings"
	"sync"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// ColumnResolver populates the columns of a table. Column queries for
// different tables are serialized: some drivers corrupt concurrently open
// column cursors on one connection.
type ColumnResolver struct {
	src    metadata.Source
	cfg    Config
	quoter *metadata.Quoter
	mu     sync.Mutex
}

// NewColumnResolver returns a resolver over src.
func NewColumnResolver(src metadata.Source, cfg Config, quoter *metadata.Quoter) *ColumnResolver {
	return &ColumnResolver{src: src, cfg: cfg, quoter: quoter}
}

// Resolve adds every reported column not yet present on t and flags auto
// increment columns of physical tables.
func (r *ColumnResolver) Resolve(ctx context.Context, t *model.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.src.Columns(ctx, t.Catalog, t.Schema, t.Name)
	if err != nil {
		if t.IsLogical() {
			logger.Debug("no columns for logical table %s: %v", t.FullName(), err)
			return nil
		}
		return &ColumnInitError{Table: t.FullName(), Err: err}
	}
	for _, row := range rows {
		if row.Name == "" || t.Column(row.Name) != nil {
			continue
		}
		t.AddColumn(r.newColumn(t, row))
	}

	if t.IsView() || t.IsRemote() || t.IsLogical() {
		return nil
	}
	r.probeAutoIncrement(ctx, t)
	return nil
}

func (r *ColumnResolver) newColumn(t *model.Table, row metadata.ColumnRow) *model.Column {
	c := model.NewColumn(row.Name)
	c.ID = row.OrdinalPosition - 1
	c.TypeCode = row.TypeCode
	if row.TypeName != "" {
		c.TypeName = row.TypeName
	}
	c.Length = row.ColumnSize
	if row.BufferLength > 0 {
		c.Length = row.BufferLength
	}
	c.DecimalDigits = row.DecimalDigits
	c.Nullable = row.Nullable
	c.DefaultValue = row.Default
	c.Comments = strings.TrimSpace(row.Remarks)
	c.AutoUpdated = row.AutoIncrement

	qualified := t.Name + "." + row.Name
	all := r.cfg.ColumnExclusions.Matches(qualified)
	c.SetExclusions(all || r.cfg.IndirectColumnExclusions.Matches(qualified), all)
	return c
}

// probeAutoIncrement reads the result set description of a zero row query. An
// unquoted attempt that fails is retried once with forced quoting.
func (r *ColumnResolver) probeAutoIncrement(ctx context.Context, t *model.Table) {
	var (
		cols []metadata.ResultColumn
		err  error
	)
	for _, force := range []bool{false, true} {
		sql := "select * from " + r.quoter.QualifiedTable(t.Catalog, t.Schema, t.Name, force) + " where 0 = 1"
		cols, err = r.src.ResultColumns(ctx, sql)
		if err == nil {
			break
		}
		if !force {
			logger.Debug("auto increment probe of %s failed, retrying quoted: %v", t.FullName(), err)
			continue
		}
		logger.Warn("failed to determine auto increment status of %s with SQL '%s': %v", t.FullName(), sql, err)
		return
	}
	for _, rc := range cols {
		if !rc.AutoIncrement {
			continue
		}
		if c := lookupResultColumn(t, rc.Name); c != nil {
			c.AutoUpdated = true
		} else {
			logger.Warn("auto increment probe of %s reported unknown column %s", t.FullName(), rc.Name)
		}
	}
}

// lookupResultColumn finds a column by result label; some drivers prefix the
// label with the table or full table name.
func lookupResultColumn(t *model.Table, label string) *model.Column {
	if c := t.Column(label); c != nil {
		return c
	}
	for _, prefix := range []string{t.Name + ".", t.FullName() + "."} {
		if len(label) > len(prefix) && strings.EqualFold(label[:len(prefix)], prefix) {
			if c := t.Column(label[len(prefix):]); c != nil {
				return c
			}
		}
	}
	return nil
}
