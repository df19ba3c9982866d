package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"erdspy/internal/logger"
	"erdspy/internal/metadata"
	"erdspy/pkg/config"
)

var (
	mu       sync.RWMutex
	dialects = map[string]*metadata.Dialect{}
)

// ConnectionError is returned when a database cannot be opened or does not
// answer a ping in time.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Register makes a Dialect available under the driver name.
func Register(driver string, d *metadata.Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[strings.ToLower(driver)] = d
}

// listRegistered returns the registered driver keys (for diagnostics).
func listRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the dialect registered for driver or one of its aliases.
func Lookup(driver string) (*metadata.Dialect, error) {
	driver = config.NormalizeDriver(driver)
	mu.RLock()
	d, ok := dialects[driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	return d, nil
}

// Connect opens driver, checks the connection within timeoutSec and wraps it
// into a metadata source. dbName names the database in the model and feeds
// the :dbname parameter.
func Connect(ctx context.Context, driver, dsn, dbName string, timeoutSec int) (*metadata.SQLSource, error) {
	driver = config.NormalizeDriver(driver)
	dialect, err := Lookup(driver)
	if err != nil {
		return nil, err
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectionError{Driver: driver, Err: err}
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		dbConn.Close()
		return nil, &ConnectionError{Driver: driver, Err: err}
	}
	src := metadata.NewSQLSource(ctx, dbConn, dialect, dbName)
	logger.Info("connected to %s %s", dialect.Name, src.Dbms().ProductVersion)
	return src, nil
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}
