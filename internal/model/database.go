package model

import (
	"sync"
	"time"
)

// Catalog is the top level container reported by the source, if any.
type Catalog struct {
	Name    string
	Comment string
}

// Schema is the analyzed schema, if the engine has one.
type Schema struct {
	Name    string
	Comment string
}

// Database is the root aggregate of a gathered model.
//
// Table and view inserts are guarded by an internal mutex so that concurrent
// table builders can publish their results. Everything else is expected to be
// mutated from a single goroutine.
type Database struct {
	Name    string
	Catalog *Catalog
	Schema  *Schema

	// ConnectTime is when the gather run started.
	ConnectTime time.Time

	mu           sync.RWMutex
	tables       *Map[*Table]
	views        *Map[*Table]
	remoteTables *Map[*Table]

	Routines  *Map[*Routine]
	Sequences *Map[*Sequence]
	Types     *Map[*Type]
	Triggers  *Map[*Trigger]
}

// NewDatabase creates an empty model. Empty catalog or schema names mean the
// engine did not report one.
func NewDatabase(name, catalog, schema string) *Database {
	db := &Database{
		Name:         name,
		ConnectTime:  time.Now(),
		tables:       NewMap[*Table](),
		views:        NewMap[*Table](),
		remoteTables: NewMap[*Table](),
		Routines:     NewMap[*Routine](),
		Sequences:    NewMap[*Sequence](),
		Types:        NewMap[*Type](),
		Triggers:     NewMap[*Trigger](),
	}
	if catalog != "" {
		db.Catalog = &Catalog{Name: catalog}
	}
	if schema != "" {
		db.Schema = &Schema{Name: schema}
	}
	return db
}

// CatalogName returns the catalog name or "".
func (db *Database) CatalogName() string {
	if db.Catalog == nil {
		return ""
	}
	return db.Catalog.Name
}

// SchemaName returns the schema name or "".
func (db *Database) SchemaName() string {
	if db.Schema == nil {
		return ""
	}
	return db.Schema.Name
}

// AddTable publishes a local table. It returns false if a table with the same
// name already exists; the existing entry is kept.
func (db *Database) AddTable(t *Table) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, added := db.tables.PutIfAbsent(t.Name, t)
	return added
}

// AddView publishes a view.
func (db *Database) AddView(v *Table) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, added := db.views.PutIfAbsent(v.Name, v)
	return added
}

// Table returns the local table called name.
func (db *Database) Table(name string) *Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, _ := db.tables.Get(name)
	return t
}

// View returns the view called name.
func (db *Database) View(name string) *Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, _ := db.views.Get(name)
	return v
}

// Lookup returns the local table or view called name.
func (db *Database) Lookup(name string) *Table {
	if t := db.Table(name); t != nil {
		return t
	}
	return db.View(name)
}

// Tables returns the local tables ordered by name.
func (db *Database) Tables() []*Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.tables.Values()
}

// Views returns the views ordered by name.
func (db *Database) Views() []*Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.views.Values()
}

// TablesAndViews returns tables followed by views.
func (db *Database) TablesAndViews() []*Table {
	return append(db.Tables(), db.Views()...)
}

// Locals returns a snapshot map of tables and views. Tables win on name clashes.
func (db *Database) Locals() *Map[*Table] {
	db.mu.RLock()
	defer db.mu.RUnlock()
	m := NewMap[*Table]()
	for _, v := range db.views.Values() {
		m.Put(v.Name, v)
	}
	for _, t := range db.tables.Values() {
		m.Put(t.Name, t)
	}
	return m
}

// RemoteTableKey is the key of a table outside the analyzed container.
func (db *Database) RemoteTableKey(catalog, schema, name string) string {
	return FullName(db.Name, catalog, schema, name)
}

// RemoteTable returns the remote table for (catalog, schema, name).
func (db *Database) RemoteTable(catalog, schema, name string) *Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, _ := db.remoteTables.Get(db.RemoteTableKey(catalog, schema, name))
	return t
}

// PutRemoteTable stores t under its remote key and returns the stored instance.
func (db *Database) PutRemoteTable(t *Table) (*Table, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.remoteTables.PutIfAbsent(db.RemoteTableKey(t.Catalog, t.Schema, t.Name), t)
}

// RemoteTables returns the remote tables ordered by key.
func (db *Database) RemoteTables() []*Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.remoteTables.Values()
}

// AllTables returns tables, views and remote tables.
func (db *Database) AllTables() []*Table {
	return append(db.TablesAndViews(), db.RemoteTables()...)
}
