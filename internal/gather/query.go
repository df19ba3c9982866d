package gather

import (
	"context"

	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// runner executes custom statements with the named parameters bound for one
// database and optionally one table.
type runner struct {
	src metadata.Source
	cfg Config
}

func (r runner) params(db *model.Database, t *model.Table) metadata.Params {
	p := metadata.Params{DBName: db.Name, Catalog: r.cfg.Catalog, Schema: r.cfg.Schema}
	if t != nil {
		p.Table = t.Name
		if t.Catalog != "" {
			p.Catalog = t.Catalog
		}
		if t.Schema != "" {
			p.Schema = t.Schema
		}
	}
	return p
}

func (r runner) query(ctx context.Context, sql string, db *model.Database, t *model.Table) ([]metadata.Row, error) {
	q, args, err := metadata.Prepare(sql, r.params(db, t), r.src.Placeholder)
	if err != nil {
		return nil, err
	}
	return r.src.Query(ctx, q, args...)
}
