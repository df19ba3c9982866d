package introspect

import (
	"erdspy/internal/model"
)

// Column represents a table column.
type Column struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Size        string  `json:"size,omitempty"`
	Nullable    bool    `json:"nullable"`
	PK          bool    `json:"pk"`
	Unique      bool    `json:"unique,omitempty"`
	AutoUpdated bool    `json:"auto_updated,omitempty"`
	Default     *string `json:"default,omitempty"`
	Comment     string  `json:"comment,omitempty"`
}

// ForeignKey represents one column pair of a relationship.
type ForeignKey struct {
	FromSchema string `json:"from_schema,omitempty"`
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToSchema   string `json:"to_schema,omitempty"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
	Constraint string `json:"constraint,omitempty"`
	// Origin is metadata, implied, rails or xml.
	Origin   string `json:"origin"`
	OnDelete string `json:"on_delete,omitempty"`
}

// Index represents a table index.
type Index struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Columns []string `json:"columns"`
}

// Table represents a database table, view or remote table and its columns.
type Table struct {
	Schema     string            `json:"schema,omitempty"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Columns    []Column          `json:"columns"`
	Indexes    []Index           `json:"indexes,omitempty"`
	Checks     map[string]string `json:"checks,omitempty"`
	Rows       int64             `json:"rows,omitempty"`    // -1 from the model is reported as absent
	Comment    *string           `json:"comment,omitempty"` // optional table comment
	Definition string            `json:"definition,omitempty"`
}

// Routine is a stored procedure or function.
type Routine struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Returns    string   `json:"returns,omitempty"`
	Language   string   `json:"language,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// Sequence is a database sequence.
type Sequence struct {
	Name      string `json:"name"`
	Start     int64  `json:"start"`
	Increment int64  `json:"increment"`
}

// Trigger is a table trigger.
type Trigger struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Event  string `json:"event,omitempty"`
	Timing string `json:"timing,omitempty"`
}

// Schema is the full DB schema extracted for consumers.
type Schema struct {
	Database     string       `json:"database"`
	Catalog      string       `json:"catalog,omitempty"`
	Schema       string       `json:"schema,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	Tables       []Table      `json:"tables"`
	Views        []Table      `json:"views,omitempty"`
	RemoteTables []Table      `json:"remote_tables,omitempty"`
	ForeignKeys  []ForeignKey `json:"foreign_keys"`
	Routines     []Routine    `json:"routines,omitempty"`
	Sequences    []Sequence   `json:"sequences,omitempty"`
	Triggers     []Trigger    `json:"triggers,omitempty"`
}

// FromDatabase flattens db. Every relationship currently linked in the graph is
// listed, whatever its origin.
func FromDatabase(db *model.Database) Schema {
	s := Schema{
		Database:    db.Name,
		Catalog:     db.CatalogName(),
		Schema:      db.SchemaName(),
		Tables:      tablesOf(db.Tables()),
		Views:       tablesOf(db.Views()),
		ForeignKeys: []ForeignKey{},
	}
	if db.Schema != nil {
		s.Comment = db.Schema.Comment
	} else if db.Catalog != nil {
		s.Comment = db.Catalog.Comment
	}
	s.RemoteTables = tablesOf(db.RemoteTables())

	for _, t := range db.AllTables() {
		for _, c := range t.Columns() {
			for _, p := range c.Parents() {
				s.ForeignKeys = append(s.ForeignKeys, foreignKeyOf(c, p, c.ParentConstraint(p)))
			}
		}
	}

	for _, r := range db.Routines.Values() {
		out := Routine{
			Name:     r.Name,
			Type:     r.Type,
			Returns:  r.ReturnType,
			Language: r.DefinitionLanguage,
			Comment:  r.Comment,
		}
		for _, p := range r.Parameters {
			out.Parameters = append(out.Parameters, joinNonEmpty(p.Mode, p.Name, p.Type))
		}
		s.Routines = append(s.Routines, out)
	}
	for _, q := range db.Sequences.Values() {
		s.Sequences = append(s.Sequences, Sequence{Name: q.Name, Start: q.StartValue, Increment: q.Increment})
	}
	for _, tr := range db.Triggers.Values() {
		s.Triggers = append(s.Triggers, Trigger{Name: tr.Name, Table: tr.Table, Event: tr.Event, Timing: tr.Timing})
	}
	return s
}

func tablesOf(tables []*model.Table) []Table {
	if len(tables) == 0 {
		return nil
	}
	out := make([]Table, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableOf(t))
	}
	return out
}

func tableOf(t *model.Table) Table {
	out := Table{
		Schema:     t.Container(),
		Name:       t.Name,
		Kind:       t.Kind().String(),
		Columns:    make([]Column, 0),
		Definition: t.ViewDefinition,
	}
	if t.NumRows() > 0 {
		out.Rows = t.NumRows()
	}
	if c := t.Comments(); c != "" {
		out.Comment = &c
	}
	for _, c := range t.Columns() {
		out.Columns = append(out.Columns, Column{
			Name:        c.Name,
			Type:        c.Type(),
			Size:        c.DetailedSize(),
			Nullable:    c.Nullable,
			PK:          c.IsPrimary(),
			Unique:      c.IsUnique(),
			AutoUpdated: c.AutoUpdated,
			Default:     c.DefaultValue,
			Comment:     c.Comments,
		})
	}
	for _, idx := range t.Indexes() {
		names := make([]string, 0)
		for _, c := range idx.Columns() {
			names = append(names, c.Name)
		}
		out.Indexes = append(out.Indexes, Index{Name: idx.Name, Type: idx.Type(), Columns: names})
	}
	if checks := t.CheckConstraints(); len(checks) > 0 {
		out.Checks = checks
	}
	return out
}

func foreignKeyOf(child, parent *model.Column, fk *model.ForeignKey) ForeignKey {
	out := ForeignKey{
		FromSchema: child.Table().Container(),
		FromTable:  child.Table().Name,
		FromColumn: child.Name,
		ToSchema:   parent.Table().Container(),
		ToTable:    parent.Table().Name,
		ToColumn:   parent.Name,
	}
	if fk != nil {
		out.Constraint = fk.Name
		out.Origin = originName(fk.Origin())
		out.OnDelete = fk.DeleteRuleName()
	}
	return out
}

func originName(o model.Origin) string {
	switch o {
	case model.OriginImplied:
		return "implied"
	case model.OriginRails:
		return "rails"
	case model.OriginXML:
		return "xml"
	default:
		return "metadata"
	}
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
