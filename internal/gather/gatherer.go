package gather

import (
	"context"
	"fmt"
	"time"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/internal/model"
)

// Phase is the state of a gather run.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseTablesBuilt
	PhaseViewsBuilt
	PhaseAuxiliaryDetailsGathered
	PhaseConnected
	PhaseXMLMerged
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "Init"
	case PhaseTablesBuilt:
		return "TablesBuilt"
	case PhaseViewsBuilt:
		return "ViewsBuilt"
	case PhaseAuxiliaryDetailsGathered:
		return "AuxiliaryDetailsGathered"
	case PhaseConnected:
		return "Connected"
	case PhaseXMLMerged:
		return "XmlMerged"
	case PhaseDone:
		return "Done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Listener observes progress. Methods may be called from worker goroutines.
type Listener interface {
	PhaseChanged(p Phase)
	TableGathered(t *model.Table)
	TableConnected(t *model.Table)
}

type nopListener struct{}

func (nopListener) PhaseChanged(Phase)          {}
func (nopListener) TableGathered(*model.Table)  {}
func (nopListener) TableConnected(*model.Table) {}

// Option customises a Gatherer.
type Option func(*Gatherer)

// WithListener reports progress to l.
func WithListener(l Listener) Option {
	return func(g *Gatherer) { g.listener = l }
}

// WithClock replaces time.Now, for tests of the connect time projection.
func WithClock(now func() time.Time) Option {
	return func(g *Gatherer) { g.now = now }
}

// Gatherer builds a connected model from a metadata source.
type Gatherer struct {
	src      metadata.Source
	cfg      Config
	quoter   *metadata.Quoter
	columns  *ColumnResolver
	indexes  *IndexResolver
	keys     *ForeignKeyResolver
	builder  *TableBuilder
	run      runner
	listener Listener
	now      func() time.Time
	phase    Phase
}

// New wires a Gatherer and its resolvers.
func New(src metadata.Source, cfg Config, opts ...Option) *Gatherer {
	if cfg.MaxThreads < 1 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	quoter := metadata.NewQuoter(src.Dbms())
	columns := NewColumnResolver(src, cfg, quoter)
	indexes := NewIndexResolver(src, cfg)
	g := &Gatherer{
		src:      src,
		cfg:      cfg,
		quoter:   quoter,
		columns:  columns,
		indexes:  indexes,
		keys:     NewForeignKeyResolver(src, cfg, columns),
		builder:  NewTableBuilder(src, cfg, quoter, columns, indexes),
		run:      runner{src: src, cfg: cfg},
		listener: nopListener{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Phase returns the state reached by the last run.
func (g *Gatherer) Phase() Phase { return g.phase }

func (g *Gatherer) enter(p Phase) {
	g.phase = p
	logger.Debug("gather phase %s", p)
	g.listener.PhaseChanged(p)
}

// Gather reads the analyzed container into a new model named name.
//
// Errors are returned for an unusable table list, a failure of the first
// table build, an invalid custom statement, and remote table failures in
// multiple schema mode. Everything else is logged and the model is returned
// with whatever could be gathered.
func (g *Gatherer) Gather(ctx context.Context, name string) (*model.Database, error) {
	db := model.NewDatabase(name, g.cfg.Catalog, g.cfg.Schema)
	db.ConnectTime = g.now()
	g.enter(PhaseInit)

	tables, err := g.listTables(ctx, db, "table", PropTables, g.cfg.TableTypes)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if err := g.buildTables(ctx, db, tables); err != nil {
		return nil, err
	}
	g.enter(PhaseTablesBuilt)

	if g.cfg.IncludeViews {
		views, err := g.listTables(ctx, db, "view", PropViews, g.cfg.ViewTypes)
		if err != nil {
			if IsConfigError(err) {
				return nil, err
			}
			logger.Warn("ignoring views: %v", err)
		}
		for _, row := range views {
			v, err := g.builder.BuildView(ctx, db, row)
			if err != nil {
				logger.Error("view %s: %v", row.Name, err)
				continue
			}
			g.listener.TableGathered(v)
		}
	}
	g.enter(PhaseViewsBuilt)

	if err := g.gatherDetails(ctx, db); err != nil {
		return nil, err
	}
	g.enter(PhaseAuxiliaryDetailsGathered)

	if err := g.connectTables(ctx, db); err != nil {
		return nil, err
	}
	g.enter(PhaseConnected)

	if g.cfg.Meta != nil {
		if err := g.mergeMeta(ctx, db); err != nil {
			return nil, err
		}
	}
	g.enter(PhaseXMLMerged)
	g.enter(PhaseDone)
	return db, nil
}

// listTables prefers the custom statement for kind and falls back to the
// generic table list filtered by types. Names are filtered in both cases.
func (g *Gatherer) listTables(ctx context.Context, db *model.Database, kind, prop string, types []string) ([]metadata.TableRow, error) {
	var rows []metadata.TableRow
	if sql := g.cfg.sql(prop); sql != "" {
		raw, err := g.run.query(ctx, sql, db, nil)
		if err == nil {
			rows = g.customTableRows(raw, kind)
		} else if IsConfigError(err) {
			return nil, err
		} else {
			logger.Warn("failed to retrieve %s definitions with custom SQL '%s': %v", kind, sql, err)
		}
	}
	if rows == nil {
		var err error
		rows, err = g.src.Tables(ctx, g.cfg.Catalog, g.cfg.Schema, types)
		if err != nil {
			return nil, err
		}
	}
	valid := rows[:0]
	for _, r := range rows {
		if !g.cfg.IsValidTableName(r.Name) {
			logger.Debug("excluding %s %s", kind, r.Name)
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

func (g *Gatherer) customTableRows(raw []metadata.Row, kind string) []metadata.TableRow {
	rows := make([]metadata.TableRow, 0, len(raw))
	for _, r := range raw {
		tr := metadata.TableRow{
			Catalog:        r.Str(kind + "_catalog"),
			Schema:         r.Str(kind + "_schema"),
			Name:           r.Str(kind + "_name"),
			Remarks:        r.Str(kind + "_comment"),
			ViewDefinition: r.Str("view_definition"),
			NumRows:        -1,
		}
		if tr.Catalog == "" && tr.Schema == "" {
			tr.Catalog, tr.Schema = g.cfg.Catalog, g.cfg.Schema
		}
		if n, ok := r.Int64("table_rows"); ok {
			tr.NumRows = n
		}
		rows = append(rows, tr)
	}
	return rows
}

// buildTables builds the first table synchronously so a systemic failure is
// returned to the caller, then the rest on the bounded pool.
func (g *Gatherer) buildTables(ctx context.Context, db *model.Database, rows []metadata.TableRow) error {
	if len(rows) == 0 {
		return nil
	}
	logger.Info("gathering %d tables with up to %d workers", len(rows), g.cfg.MaxThreads)
	first, err := g.builder.Build(ctx, db, rows[0])
	if err != nil {
		return err
	}
	g.listener.TableGathered(first)

	if g.cfg.MaxThreads == 1 {
		for _, row := range rows[1:] {
			t, err := g.builder.Build(ctx, db, row)
			if err != nil {
				logger.Error("table %s: %v", row.Name, err)
				continue
			}
			g.listener.TableGathered(t)
		}
		return nil
	}

	pool := NewPool(g.cfg.MaxThreads)
	for _, row := range rows[1:] {
		row := row
		pool.Go("table "+row.Name, func() error {
			t, err := g.builder.Build(ctx, db, row)
			if err != nil {
				return err
			}
			g.listener.TableGathered(t)
			return nil
		})
	}
	pool.Wait()
	return nil
}

// connectTables resolves keys for tables then views. After the first item of
// each group the total is extrapolated and an advisory logged when it is long.
func (g *Gatherer) connectTables(ctx context.Context, db *model.Database) error {
	locals := db.Locals()
	for _, group := range [][]*model.Table{db.Tables(), db.Views()} {
		start := g.now()
		for i, t := range group {
			if err := g.keys.Connect(ctx, db, t, locals); err != nil {
				return err
			}
			g.listener.TableConnected(t)
			if i == 0 {
				g.advise(start, len(group))
			}
		}
	}
	return nil
}

func (g *Gatherer) advise(start time.Time, n int) {
	if !g.cfg.ExportedKeys || g.cfg.AdvisoryThreshold <= 0 {
		return
	}
	projected := g.now().Sub(start) * time.Duration(n)
	if projected > g.cfg.AdvisoryThreshold {
		logger.Warn("connecting %d tables is projected to take %s; disabling exported keys will speed this up considerably",
			n, projected.Round(time.Second))
	}
}
