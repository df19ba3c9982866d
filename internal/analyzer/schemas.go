package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
)

// PopulatedSchemas returns the sorted schema names that match pattern (whole
// name) and contain at least one table. Engines without schemas are asked for
// catalogs instead.
func PopulatedSchemas(ctx context.Context, src metadata.Source, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("schema pattern %q: %w", pattern, err)
	}

	schemas, err := src.Schemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	found := filterPopulated(re, schemas, func(name string) bool { return hasTables(ctx, src, "", name) })
	if len(found) > 0 {
		return found, nil
	}

	catalogs, err := src.Catalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return filterPopulated(re, catalogs, func(name string) bool { return hasTables(ctx, src, name, "") }), nil
}

func filterPopulated(re *regexp.Regexp, candidates []string, hasTables func(string) bool) []string {
	var out []string
	for _, name := range candidates {
		if !re.MatchString(name) {
			logger.Debug("excluding schema %s: doesn't match '%s'", name, re)
			continue
		}
		if !hasTables(name) {
			logger.Debug("excluding schema %s: matches '%s' but contains no tables", name, re)
			continue
		}
		logger.Debug("including schema %s", name)
		out = append(out, name)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func hasTables(ctx context.Context, src metadata.Source, catalog, schema string) bool {
	rows, err := src.Tables(ctx, catalog, schema, nil)
	return err == nil && len(rows) > 0
}
