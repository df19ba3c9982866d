package model

import (
	"sort"
	"strings"
)

// Kind says how a table relates to the live metadata source.
type Kind int

const (
	// KindTable is a physical table in the analyzed container.
	KindTable Kind = iota
	// KindView is a view in the analyzed container.
	KindView
	// KindRemote is a table in another container reached through a foreign key.
	KindRemote
	// KindLogical exists only in override metadata.
	KindLogical
	// KindLogicalRemote is a remote table declared only in override metadata.
	KindLogicalRemote
)

func (k Kind) String() string {
	switch k {
	case KindView:
		return "View"
	case KindRemote:
		return "Remote"
	case KindLogical:
		return "Logical"
	case KindLogicalRemote:
		return "LogicalRemote"
	default:
		return "Table"
	}
}

// Table is a table, view, remote table or logical table.
type Table struct {
	Catalog string
	Schema  string
	Name    string

	// ID is the vendor object id, "" if unknown.
	ID string
	// ViewDefinition holds the create text of a view when available.
	ViewDefinition string
	// BaseContainer is the container whose resolution discovered a remote table.
	BaseContainer string

	kind      Kind
	dbName    string
	fullName  string
	container string
	comments  string
	numRows   int64

	columns          *Map[*Column]
	indexes          *Map[*Index]
	primaryKeys      []*Column
	foreignKeys      *Map[*ForeignKey]
	checkConstraints *Map[string]

	maxParents  int
	maxChildren int
}

func newTable(kind Kind, dbName, catalog, schema, name, comments string) *Table {
	t := &Table{
		Catalog:          catalog,
		Schema:           schema,
		Name:             name,
		kind:             kind,
		dbName:           dbName,
		numRows:          -1,
		columns:          NewMap[*Column](),
		indexes:          NewMap[*Index](),
		foreignKeys:      NewMap[*ForeignKey](),
		checkConstraints: NewMap[string](),
	}
	t.fullName = FullName(dbName, catalog, schema, name)
	t.container = firstNonEmpty(schema, catalog, dbName)
	t.SetComments(comments)
	return t
}

// NewTable creates a physical table.
func NewTable(dbName, catalog, schema, name, comments string) *Table {
	return newTable(KindTable, dbName, catalog, schema, name, comments)
}

// NewView creates a view.
func NewView(dbName, catalog, schema, name, comments, definition string) *Table {
	v := newTable(KindView, dbName, catalog, schema, name, comments)
	v.ViewDefinition = definition
	return v
}

// NewRemoteTable creates a table outside the analyzed container.
func NewRemoteTable(dbName, catalog, schema, name, baseContainer string) *Table {
	t := newTable(KindRemote, dbName, catalog, schema, name, "")
	t.BaseContainer = baseContainer
	return t
}

// NewLogicalTable creates a table known only from override metadata.
func NewLogicalTable(dbName, catalog, schema, name, comments string) *Table {
	return newTable(KindLogical, dbName, catalog, schema, name, comments)
}

// NewLogicalRemoteTable creates a remote table known only from override metadata.
func NewLogicalRemoteTable(dbName, catalog, schema, name, baseContainer string) *Table {
	t := newTable(KindLogicalRemote, dbName, catalog, schema, name, "")
	t.BaseContainer = baseContainer
	return t
}

// FullName is the stable identity of a table. The database name is only part of
// it when neither catalog nor schema is known.
func FullName(dbName, catalog, schema, name string) string {
	var b strings.Builder
	if catalog == "" && schema == "" {
		b.WriteString(dbName)
		b.WriteByte('.')
	}
	if catalog != "" {
		b.WriteString(catalog)
		b.WriteByte('.')
	}
	if schema != "" {
		b.WriteString(schema)
		b.WriteByte('.')
	}
	b.WriteString(name)
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (t *Table) Kind() Kind           { return t.kind }
func (t *Table) FullName() string     { return t.fullName }
func (t *Table) Container() string    { return t.container }
func (t *Table) DatabaseName() string { return t.dbName }
func (t *Table) Comments() string     { return t.comments }

// IsView reports whether t is a view.
func (t *Table) IsView() bool { return t.kind == KindView }

// IsRemote reports whether t lives outside the analyzed container.
func (t *Table) IsRemote() bool { return t.kind == KindRemote || t.kind == KindLogicalRemote }

// IsLogical reports whether t has no backing object in the live source.
func (t *Table) IsLogical() bool { return t.kind == KindLogical || t.kind == KindLogicalRemote }

// Type is "View" for views and "Table" otherwise.
func (t *Table) Type() string {
	if t.IsView() {
		return "View"
	}
	return "Table"
}

// SetComments stores trimmed comments. MySQL InnoDB appends storage details to
// table comments; those are stripped.
func (t *Table) SetComments(comments string) {
	c := strings.TrimSpace(comments)
	if i := strings.Index(c, "InnoDB free: "); i != -1 {
		c = strings.TrimSpace(c[:i])
		c = strings.TrimSpace(strings.TrimSuffix(c, ";"))
	}
	t.comments = c
}

// NumRows returns the row count or -1 if undetermined.
func (t *Table) NumRows() int64 { return t.numRows }

// SetNumRows sets the row count.
func (t *Table) SetNumRows(n int64) { t.numRows = n }

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	c, _ := t.columns.Get(name)
	return c
}

// AddColumn attaches c to t. It returns false if a column with the same name
// exists already.
func (t *Table) AddColumn(c *Column) bool {
	c.table = t
	_, added := t.columns.PutIfAbsent(c.Name, c)
	return added
}

// Columns returns the columns ordered by id then name.
func (t *Table) Columns() []*Column {
	cols := t.columns.Values()
	sort.SliceStable(cols, func(i, j int) bool {
		return columnLess(cols[i], cols[j])
	})
	return cols
}

func columnLess(a, b *Column) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

// Index returns the named index or nil.
func (t *Table) Index(name string) *Index {
	i, _ := t.indexes.Get(name)
	return i
}

// AddIndex attaches idx to t unless an index of that name exists. The stored
// index is returned.
func (t *Table) AddIndex(idx *Index) *Index {
	stored, _ := t.indexes.PutIfAbsent(idx.Name, idx)
	return stored
}

// Indexes returns the indexes, primary key first.
func (t *Table) Indexes() []*Index {
	idx := t.indexes.Values()
	sort.SliceStable(idx, func(i, j int) bool { return idx[i].less(idx[j]) })
	return idx
}

// PrimaryColumns returns the primary key columns in key order.
func (t *Table) PrimaryColumns() []*Column {
	return append([]*Column(nil), t.primaryKeys...)
}

// SetPrimaryColumn marks c as part of the primary key.
func (t *Table) SetPrimaryColumn(c *Column) {
	for _, pk := range t.primaryKeys {
		if pk == c {
			c.primary = true
			return
		}
	}
	c.primary = true
	t.primaryKeys = append(t.primaryKeys, c)
}

// ForeignKey returns the named constraint declared on t.
func (t *Table) ForeignKey(name string) *ForeignKey {
	fk, _ := t.foreignKeys.Get(name)
	return fk
}

// ForeignKeys returns the constraints declared on t.
func (t *Table) ForeignKeys() []*ForeignKey {
	return t.foreignKeys.Values()
}

// AddCheckConstraint records a check constraint.
func (t *Table) AddCheckConstraint(name, text string) {
	t.checkConstraints.Put(name, text)
}

// AppendCheckConstraint extends an existing constraint text; used when the
// source splits the text across rows.
func (t *Table) AppendCheckConstraint(name, text string) {
	cur, _ := t.checkConstraints.Get(name)
	t.checkConstraints.Put(name, cur+text)
}

// CheckConstraints returns constraint name to text.
func (t *Table) CheckConstraints() map[string]string {
	out := make(map[string]string, t.checkConstraints.Len())
	for _, k := range t.checkConstraints.Keys() {
		out[k], _ = t.checkConstraints.Get(k)
	}
	return out
}

// MaxParents is the number of parent links ever added to t.
func (t *Table) MaxParents() int { return t.maxParents }

// MaxChildren is the number of child links ever added to t.
func (t *Table) MaxChildren() int { return t.maxChildren }

// IsRoot reports whether t references no other table.
func (t *Table) IsRoot() bool {
	for _, c := range t.columns.values {
		if c.IsForeignKey() {
			return false
		}
	}
	return true
}

// IsLeaf reports whether no table references t.
func (t *Table) IsLeaf() bool {
	for _, c := range t.columns.values {
		if len(c.children) > 0 {
			return false
		}
	}
	return true
}

// NumParents counts current parent links.
func (t *Table) NumParents() int {
	n := 0
	for _, c := range t.columns.values {
		n += len(c.parents)
	}
	return n
}

// NumChildren counts current child links.
func (t *Table) NumChildren() int {
	n := 0
	for _, c := range t.columns.values {
		n += len(c.children)
	}
	return n
}

// NumNonImpliedParents counts parent links backed by a non implied constraint.
func (t *Table) NumNonImpliedParents() int {
	n := 0
	for _, c := range t.columns.values {
		for _, fk := range c.parents {
			if !fk.IsImplied() {
				n++
			}
		}
	}
	return n
}

// NumNonImpliedChildren counts child links backed by a non implied constraint.
func (t *Table) NumNonImpliedChildren() int {
	n := 0
	for _, c := range t.columns.values {
		for _, fk := range c.children {
			if !fk.IsImplied() {
				n++
			}
		}
	}
	return n
}

// UnlinkParents detaches t from every table it references.
func (t *Table) UnlinkParents() {
	for _, c := range t.columns.values {
		c.UnlinkParents()
	}
}

// UnlinkChildren detaches every table that references t.
func (t *Table) UnlinkChildren() {
	for _, c := range t.columns.values {
		c.UnlinkChildren()
	}
}

// Compare orders tables by full name ignoring case.
func (t *Table) Compare(o *Table) int {
	if t == o {
		return 0
	}
	return strings.Compare(strings.ToLower(t.fullName), strings.ToLower(o.fullName))
}

func (t *Table) String() string { return t.Name }

func (t *Table) addedParent() { t.maxParents++ }
func (t *Table) addedChild()  { t.maxChildren++ }

// SortTables orders tables by full name ignoring case.
func SortTables(tables []*Table) {
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Compare(tables[j]) < 0 })
}
