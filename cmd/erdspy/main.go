package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	_ "erdspy/internal/db/dialects"
	"erdspy/internal/logger"
	"erdspy/pkg/config"
)

var (
	cfgPath    string
	envFile    string
	driverFlag string
	dsnFlag    string
	logLevel   string
	timeout    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "erdspy",
	Short: "Database schema analyzer",
	Long: `erdspy reads the metadata of a relational database, builds a cross-referenced
model of its tables, views and relationships, and reports on it.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with ERDSPY_* overrides")
	pf.StringVar(&driverFlag, "driver", "", "db driver override (postgres,pgx,mysql,sqlite,sqlserver,godror)")
	pf.StringVar(&dsnFlag, "dsn", "", "dsn override")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	pf.IntVar(&timeout, "timeout", 10, "db connect timeout seconds")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file if there is one, then applies the
// environment and the command line on top.
func loadConfig() (config.AppConfig, error) {
	var appCfg config.AppConfig
	if cfgPath != "" {
		logger.Debug("config file %s", cfgPath)
		if c, err := config.LoadFile(cfgPath); err == nil {
			appCfg = c
		} else {
			logger.Warn("error reading config file: %v", err)
		}
	}
	if err := config.LoadEnv(&appCfg, envFile); err != nil {
		return appCfg, err
	}

	if driverFlag != "" && dsnFlag != "" {
		appCfg.Database.Type = driverFlag
		appCfg.Database.DSN = dsnFlag
		appCfg.Database.Host = ""
		appCfg.Database.Port = 0
		appCfg.Database.Username = ""
		appCfg.Database.Password = ""
	}

	if level := cmpOr(logLevel, appCfg.LogLevel); level != "" {
		if err := logger.SetLevel(level); err != nil {
			return appCfg, err
		}
	}
	return appCfg, nil
}
