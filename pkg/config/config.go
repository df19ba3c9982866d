package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ERDSPY_DB_HOST.
const EnvPrefix = "ERDSPY_"

type DBConfig struct {
	Type         string `yaml:"type" json:"type" env:"TYPE"`
	Host         string `yaml:"host" json:"host" env:"HOST"`
	Port         int    `yaml:"port" json:"port" env:"PORT"`
	Username     string `yaml:"username" json:"username" env:"USERNAME"`
	Password     string `yaml:"password" json:"password" env:"PASSWORD"`
	DatabaseName string `yaml:"database_name" json:"database_name" env:"NAME"`
	DSN          string `yaml:"dsn" json:"dsn" env:"DSN"` // optional explicit DSN
	// Catalog and Schema select the analyzed container; empty uses the
	// dialect's default.
	Catalog string `yaml:"catalog" json:"catalog,omitempty" env:"CATALOG"`
	Schema  string `yaml:"schema" json:"schema,omitempty" env:"SCHEMA"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port" env:"PORT"`
}

// GatherSection controls what is read from the database and which
// relationships are inferred. Unset booleans keep the defaults.
type GatherSection struct {
	TableInclusions          string   `yaml:"table_inclusions"`
	TableExclusions          string   `yaml:"table_exclusions"`
	ColumnExclusions         string   `yaml:"column_exclusions"`
	IndirectColumnExclusions string   `yaml:"indirect_column_exclusions"`
	MaxThreads               int      `yaml:"max_threads"`
	Views                    *bool    `yaml:"views"`
	NumRows                  *bool    `yaml:"num_rows"`
	ExportedKeys             *bool    `yaml:"exported_keys"`
	MultipleSchemas          bool     `yaml:"multiple_schemas"`
	TableTypes               []string `yaml:"table_types"`
	ViewTypes                []string `yaml:"view_types"`
	// MetaFile is an optional *.meta.xml or *.meta.yaml override file.
	MetaFile string `yaml:"meta_file"`
	// Implied links columns that look like references; on by default.
	Implied *bool `yaml:"implied"`
	// Rails links <singular>_id columns to the ID of the plural table.
	Rails bool `yaml:"rails"`
}

// ImpliedEnabled reports whether implied relationships should be inferred.
func (g GatherSection) ImpliedEnabled() bool {
	return g.Implied == nil || *g.Implied
}

type AppConfig struct {
	Database DBConfig      `yaml:"database" json:"database" envPrefix:"DB_"`
	Server   ServerConfig  `yaml:"server" json:"server" envPrefix:"SERVER_"`
	Gather   GatherSection `yaml:"gather" json:"-"`
	// SQL overrides the dialect's custom statements by property name.
	SQL      map[string]string `yaml:"sql" json:"-"`
	LogLevel string            `yaml:"log_level" json:"-" env:"LOG_LEVEL"`
}

// LoadFile loads YAML config from path.
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnv applies ERDSPY_* environment variables over cfg. The given dotenv
// files are loaded first when they exist; variables already set in the
// environment win over dotenv values.
func LoadEnv(cfg *AppConfig, dotenv ...string) error {
	for _, f := range dotenv {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return applyEnv(cfg, nil)
}

// applyEnv parses overrides from environ, or from the process environment
// when environ is nil.
func applyEnv(cfg *AppConfig, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// NormalizeDriver maps common aliases to canonical keys (keeps backwards compat).
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for supported DB types.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	// If explicit DSN provided, user must also set Type to choose driver or we guess
	t := NormalizeDriver(db.Type)

	if db.DSN != "" {
		return t, db.DSN, nil
	}

	switch t {
	case "postgres", "pgx":
		driver = t
		// simple URL form
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "sqlite":
		driver = "sqlite"
		if db.DatabaseName == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in database_name")
		}
		dsn = fmt.Sprintf("file:%s?mode=ro", db.DatabaseName)
	case "sqlserver":
		driver = "sqlserver"
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "godror":
		driver = "godror"
		// simple EZCONNECT style; may need adjustments per environment
		dsn = fmt.Sprintf("%s/%s@%s:%d/%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	default:
		err = fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return
}
