package config

import (
	"fmt"
	"maps"
	"strings"

	"erdspy/internal/gather"
	"erdspy/internal/metadata"
	"erdspy/internal/xmlmeta"
)

// GatherConfig turns the application configuration into the settings of one
// gather run against dialect d. The dialect's custom statements are the base
// and the sql section overrides them one by one.
func GatherConfig(app AppConfig, d *metadata.Dialect) (gather.Config, error) {
	cfg := gather.DefaultConfig()
	cfg.Catalog = app.Database.Catalog
	cfg.Schema = app.Database.Schema
	if cfg.Schema == "" && d != nil {
		cfg.Schema = d.DefaultSchema
		if d.UserSchema {
			cfg.Schema = strings.ToUpper(app.Database.Username)
		}
	}

	g := app.Gather
	for _, p := range []struct {
		dst  *gather.Pattern
		expr string
	}{
		{&cfg.TableInclusions, g.TableInclusions},
		{&cfg.TableExclusions, g.TableExclusions},
		{&cfg.ColumnExclusions, g.ColumnExclusions},
		{&cfg.IndirectColumnExclusions, g.IndirectColumnExclusions},
	} {
		if p.expr == "" {
			continue
		}
		compiled, err := gather.CompilePattern(p.expr)
		if err != nil {
			return cfg, err
		}
		*p.dst = compiled
	}

	if g.MaxThreads < 0 {
		return cfg, fmt.Errorf("max_threads must be positive, got %d", g.MaxThreads)
	}
	if g.MaxThreads != 0 {
		cfg.MaxThreads = g.MaxThreads
	}
	if g.Views != nil {
		cfg.IncludeViews = *g.Views
	}
	if g.NumRows != nil {
		cfg.NumRows = *g.NumRows
	}
	if g.ExportedKeys != nil {
		cfg.ExportedKeys = *g.ExportedKeys
	}
	cfg.MultipleSchemas = g.MultipleSchemas
	if len(g.TableTypes) > 0 {
		cfg.TableTypes = g.TableTypes
	}
	if len(g.ViewTypes) > 0 {
		cfg.ViewTypes = g.ViewTypes
	}

	if d != nil {
		maps.Copy(cfg.SQL, d.Properties)
	}
	maps.Copy(cfg.SQL, app.SQL)

	if g.MetaFile != "" {
		meta, err := xmlmeta.Load(g.MetaFile)
		if err != nil {
			return cfg, fmt.Errorf("meta file: %w", err)
		}
		cfg.Meta = meta
	}
	return cfg, nil
}
