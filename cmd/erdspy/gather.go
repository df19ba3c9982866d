package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"erdspy/internal/analyzer"
	"erdspy/internal/db"
	"erdspy/internal/gather"
	"erdspy/internal/introspect"
	"erdspy/internal/logger"
	"erdspy/internal/model"
	"erdspy/pkg/config"
)

// progress logs the phases of a gather run.
type progress struct {
	started   time.Time
	gathered  atomic.Int64
	connected atomic.Int64
}

func newProgress() *progress { return &progress{started: time.Now()} }

func (p *progress) PhaseChanged(ph gather.Phase) {
	logger.Info("%s: %d tables, %d connected, %v", ph, p.gathered.Load(), p.connected.Load(),
		time.Since(p.started).Round(time.Millisecond))
}

func (p *progress) TableGathered(t *model.Table) {
	p.gathered.Add(1)
	logger.Debug("gathered %s", t.FullName())
}

func (p *progress) TableConnected(t *model.Table) {
	p.connected.Add(1)
}

// modelName names the gathered database. SQLite databases are named after
// their file.
func modelName(c config.DBConfig) string {
	name := c.DatabaseName
	if config.NormalizeDriver(c.Type) == "sqlite" {
		name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return cmpOr(name, config.NormalizeDriver(c.Type))
}

// gatherDatabases connects to the configured database and gathers one model
// per analyzed schema: the configured one, or every populated schema matching
// schemaPattern when it is set.
func gatherDatabases(ctx context.Context, app config.AppConfig, timeoutSec int, schemaPattern string) ([]*model.Database, error) {
	driver, dsn, err := config.BuildDriverAndDSN(app.Database)
	if err != nil {
		return nil, err
	}
	name := modelName(app.Database)
	src, err := db.Connect(ctx, driver, dsn, name, timeoutSec)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	schemas := []string{app.Database.Schema}
	if schemaPattern != "" {
		schemas, err = analyzer.PopulatedSchemas(ctx, src, schemaPattern)
		if err != nil {
			return nil, err
		}
		if len(schemas) == 0 {
			return nil, fmt.Errorf("no populated schema matches %q", schemaPattern)
		}
		logger.Info("analyzing schemas %v", schemas)
	}

	var out []*model.Database
	for _, schema := range schemas {
		app.Database.Schema = schema
		cfg, err := config.GatherConfig(app, src.Dialect())
		if err != nil {
			return nil, err
		}
		cfg.MultipleSchemas = cfg.MultipleSchemas || len(schemas) > 1

		m, err := gather.New(src, cfg, gather.WithListener(newProgress())).Gather(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("gather %s: %w", cmpOr(cfg.Schema, cfg.Catalog, name), err)
		}
		out = append(out, m)
	}
	return out, nil
}

// gatherOne gathers the configured schema only.
func gatherOne(ctx context.Context, app config.AppConfig, timeoutSec int) (*model.Database, error) {
	dbs, err := gatherDatabases(ctx, app, timeoutSec, "")
	if err != nil {
		return nil, err
	}
	return dbs[0], nil
}

// reportOptions selects the derived relationships configured for a run.
func reportOptions(g config.GatherSection) introspect.Options {
	return introspect.Options{Implied: g.ImpliedEnabled(), Rails: g.Rails}
}
