package db

import (
	"context"
	"errors"
	"testing"

	"erdspy/internal/metadata"
)

var testdialect string = "testdialect"

func TestRegister(t *testing.T) {
	// tests both Register and RegisteredDialects because they take the same setup

	d := &metadata.Dialect{Name: "Test"}
	Register(testdialect, d)

	if got, ok := dialects[testdialect]; !ok || got != d {
		t.Errorf("\ndialect %v not registered correctly in %v", testdialect, dialects)
	}

	found := false
	for _, name := range RegisteredDialects() {
		if name == testdialect {
			found = true
		}
	}
	if !found {
		t.Errorf("\nRegisteredDialects returned unexpected result %v", RegisteredDialects())
	}
}

func TestLookup(t *testing.T) {
	Register("postgres", &metadata.Dialect{Name: "PostgreSQL"})

	var tests = []struct {
		name     string
		driver   string
		want     string
		errIsNil bool
	}{
		{"canonical name", "postgres", "PostgreSQL", true},
		{"alias", "PostgreSQL", "PostgreSQL", true},
		{"unregistered", "db2", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.driver)
			if (err == nil) != tt.errIsNil {
				t.Fatalf("\ngot error %v, wanted error: %v", err, !tt.errIsNil)
			}
			if err == nil && d.Name != tt.want {
				t.Errorf("\ngot %v, wanted %v", d.Name, tt.want)
			}
		})
	}
}

func TestConnect(t *testing.T) {
	Register("sqlite", &metadata.Dialect{Name: "SQLite", VersionSQL: "select sqlite_version()"})

	var tests = []struct {
		name      string
		dialect   string
		dsn       string
		timeout   int
		errIsNil  bool
		connError bool
	}{
		{"unregistered dialect", "nosuchdb", "", 10, false, false},
		{"registered but no driver", testdialect, "", 10, false, true},
		{"sqlite in memory", "sqlite", ":memory:", 10, true, false},
	}

	Register(testdialect, &metadata.Dialect{Name: "Test"})
	for _, tt := range tests {
		// Use t.Run to run each case as a subtest with a descriptive name
		t.Run(tt.name, func(t *testing.T) {
			src, err := Connect(context.Background(), tt.dialect, tt.dsn, "test", tt.timeout)

			if (err == nil) != tt.errIsNil {
				if tt.errIsNil {
					t.Errorf("\ngot unexpected error: \"%v\"", err)
				} else {
					t.Errorf("\nexpected an error, did not receive one")
				}
			}
			var connErr *ConnectionError
			if errors.As(err, &connErr) != tt.connError {
				t.Errorf("\ngot error %v, wanted a ConnectionError: %v", err, tt.connError)
			}
			if src != nil {
				if src.Dbms().ProductVersion == "" {
					t.Errorf("\nexpected a product version from %v", tt.dialect)
				}
				src.Close()
			}
		})
	}
}
