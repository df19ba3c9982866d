package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"erdspy/internal/metadata"
)

func TestGatherConfig(t *testing.T) {
	app, err := LoadFile("./testdata/full_config.yaml")
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	d := &metadata.Dialect{
		DefaultSchema: "public",
		Properties: map[string]string{
			"selectRowCountSql": "select reltuples as row_count",
			"selectViewSql":     "select view_definition",
		},
	}

	cfg, err := GatherConfig(app, d)
	if err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}

	if cfg.Schema != "app" || cfg.IncludeViews || cfg.ExportedKeys || !cfg.NumRows || cfg.MaxThreads != 2 {
		t.Errorf("\ngot config %+v", cfg)
	}
	if want := []string{"TABLE", "PARTITIONED TABLE"}; !reflect.DeepEqual(cfg.TableTypes, want) {
		t.Errorf("\ngot table types %v, wanted %v", cfg.TableTypes, want)
	}

	var tables = []struct {
		name     string
		included bool
	}{
		{"orders", true},
		{"line_items", true},
		{"line_audit", false},
		{"products", false},
	}
	for _, tt := range tables {
		if got := cfg.IsTableIncluded(tt.name); got != tt.included {
			t.Errorf("\ngot included %v for %s, wanted %v", got, tt.name, tt.included)
		}
	}
	if !cfg.ColumnExclusions.Matches("customers.notes") || cfg.ColumnExclusions.Matches("customers_notes") {
		t.Errorf("\ncolumn exclusions %v match unexpectedly", cfg.ColumnExclusions)
	}

	wantSQL := map[string]string{
		"selectRowCountSql":  "select 42 as row_count",
		"selectViewSql":      "select view_definition",
		"selectSequencesSql": "",
	}
	if !reflect.DeepEqual(cfg.SQL, wantSQL) {
		t.Errorf("\ngot sql %v, wanted %v", cfg.SQL, wantSQL)
	}
	if len(d.Properties) != 2 || d.Properties["selectRowCountSql"] != "select reltuples as row_count" {
		t.Errorf("\ndialect properties modified: %v", d.Properties)
	}

	if cfg.Meta == nil || cfg.Meta.Comments != "storefront" || len(cfg.Meta.Tables) != 1 {
		t.Errorf("\ngot meta %+v", cfg.Meta)
	}
	if !app.Gather.Rails || !app.Gather.ImpliedEnabled() || app.LogLevel != "debug" {
		t.Errorf("\ngot gather section %+v, log level %v", app.Gather, app.LogLevel)
	}
}

func TestGatherConfigSchemaDefaults(t *testing.T) {
	var tests = []struct {
		name    string
		db      DBConfig
		dialect *metadata.Dialect
		schema  string
	}{
		{"configured", DBConfig{Schema: "app"}, &metadata.Dialect{DefaultSchema: "public"}, "app"},
		{"dialect default", DBConfig{}, &metadata.Dialect{DefaultSchema: "public"}, "public"},
		{"login user", DBConfig{Username: "scott"}, &metadata.Dialect{UserSchema: true}, "SCOTT"},
		{"database as schema", DBConfig{DatabaseName: "shop"}, &metadata.Dialect{}, ""},
		{"no dialect", DBConfig{}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := GatherConfig(AppConfig{Database: tt.db}, tt.dialect)
			if err != nil {
				t.Fatalf("\ngot unexpected error: \"%v\"", err)
			}
			if cfg.Schema != tt.schema {
				t.Errorf("\ngot schema %q, wanted %q", cfg.Schema, tt.schema)
			}
		})
	}
}

func TestGatherConfigErrors(t *testing.T) {
	var tests = []struct {
		name   string
		gather GatherSection
	}{
		{"bad pattern", GatherSection{TableExclusions: "tmp_("}},
		{"missing meta file", GatherSection{MetaFile: "./testdata/no_such.meta.xml"}},
		{"negative max threads", GatherSection{MaxThreads: -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GatherConfig(AppConfig{Gather: tt.gather}, nil); err == nil {
				t.Errorf("\nexpected an error, did not receive one")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	var tests = []struct {
		name     string
		environ  map[string]string
		want     func(*AppConfig)
		errIsNil bool
	}{
		{"no overrides", map[string]string{}, func(*AppConfig) {}, true},
		{"overrides",
			map[string]string{
				"ERDSPY_DB_HOST":     "envHost",
				"ERDSPY_DB_PORT":     "6543",
				"ERDSPY_DB_SCHEMA":   "app",
				"ERDSPY_SERVER_PORT": "9090",
				"ERDSPY_LOG_LEVEL":   "warn",
				"DB_HOST":            "ignored",
			},
			func(c *AppConfig) {
				c.Database.Host = "envHost"
				c.Database.Port = 6543
				c.Database.Schema = "app"
				c.Server.Port = 9090
				c.LogLevel = "warn"
			},
			true},
		{"bad port", map[string]string{"ERDSPY_DB_PORT": "abc"}, func(*AppConfig) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadFile("./testdata/valid_config.yaml")
			if err != nil {
				t.Fatalf("\ngot unexpected error: \"%v\"", err)
			}
			want := c
			tt.want(&want)

			err = applyEnv(&c, tt.environ)
			if (err == nil) != tt.errIsNil {
				t.Fatalf("\ngot error %v, wanted error: %v", err, !tt.errIsNil)
			}
			if err == nil && !reflect.DeepEqual(c, want) {
				t.Errorf("\ngot config %v, wanted %v", c, want)
			}
		})
	}
}

func TestLoadEnvDotenv(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(dotenv, []byte("ERDSPY_DB_CATALOG=fromdotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ERDSPY_DB_CATALOG") })

	var c AppConfig
	if err := LoadEnv(&c, filepath.Join(t.TempDir(), "missing.env"), dotenv); err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	if c.Database.Catalog != "fromdotenv" {
		t.Errorf("\ngot catalog %q, wanted %q", c.Database.Catalog, "fromdotenv")
	}
}
