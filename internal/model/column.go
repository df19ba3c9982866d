package model

import (
	"sort"
	"strconv"
	"strings"
)

// Column is a column owned by a Table. Parent and child links are weak; the
// ForeignKey that created them owns the relationship.
type Column struct {
	Name string
	// ID is the zero based ordinal position.
	ID int
	// TypeCode is the vendor type code when the source reports one.
	TypeCode      int
	TypeName      string
	ShortTypeName string
	Length        int
	DecimalDigits int
	Nullable      bool
	AutoUpdated   bool
	// DefaultValue is nil when the column has no default.
	DefaultValue *string
	Comments     string

	table        *Table
	primary      bool
	excluded     bool
	allExcluded  bool
	implParents  bool
	implChildren bool

	parents  map[*Column]*ForeignKey
	children map[*Column]*ForeignKey
}

// NewColumn returns a detached column that allows implied relationships.
func NewColumn(name string) *Column {
	return &Column{
		Name:         name,
		TypeName:     "unknown",
		implParents:  true,
		implChildren: true,
		parents:      map[*Column]*ForeignKey{},
		children:     map[*Column]*ForeignKey{},
	}
}

func (c *Column) Table() *Table { return c.table }

// Type returns the short type name when known, else the full type name.
func (c *Column) Type() string {
	if c.ShortTypeName != "" {
		return c.ShortTypeName
	}
	return c.TypeName
}

// DetailedSize is "length" or "length,digits".
func (c *Column) DetailedSize() string {
	s := strconv.Itoa(c.Length)
	if c.DecimalDigits > 0 {
		s += "," + strconv.Itoa(c.DecimalDigits)
	}
	return s
}

func (c *Column) IsPrimary() bool { return c.primary }

// SetPrimary marks the column as part of its table's primary key.
func (c *Column) SetPrimary() {
	if c.table != nil {
		c.table.SetPrimaryColumn(c)
		return
	}
	c.primary = true
}

// IsForeignKey reports whether c references another column.
func (c *Column) IsForeignKey() bool { return len(c.parents) > 0 }

// IsUnique reports whether c alone is covered by a unique index, or is the only
// primary key column.
func (c *Column) IsUnique() bool {
	if c.table == nil {
		return false
	}
	for _, idx := range c.table.indexes.values {
		if idx.Unique {
			cols := idx.Columns()
			if len(cols) == 1 && cols[0] == c {
				return true
			}
		}
	}
	pks := c.table.primaryKeys
	return len(pks) == 1 && pks[0] == c
}

// IsExcluded reports whether c is left out of diagram relationships.
func (c *Column) IsExcluded() bool { return c.excluded }

// IsAllExcluded reports whether c is left out of all relationships.
func (c *Column) IsAllExcluded() bool { return c.allExcluded }

// SetExclusions sets both exclusion flags. An all-excluded column is also excluded.
func (c *Column) SetExclusions(excluded, allExcluded bool) {
	c.allExcluded = allExcluded
	c.excluded = excluded || allExcluded
}

func (c *Column) AllowsImpliedParents() bool      { return c.implParents }
func (c *Column) AllowsImpliedChildren() bool     { return c.implChildren }
func (c *Column) SetAllowImpliedParents(v bool)  { c.implParents = v }
func (c *Column) SetAllowImpliedChildren(v bool) { c.implChildren = v }

// Parents returns the referenced columns ordered by table then name.
func (c *Column) Parents() []*Column { return sortedKeys(c.parents) }

// Children returns the referencing columns ordered by table then name.
func (c *Column) Children() []*Column { return sortedKeys(c.children) }

// ParentConstraint returns the constraint linking c to parent.
func (c *Column) ParentConstraint(parent *Column) *ForeignKey { return c.parents[parent] }

// ChildConstraint returns the constraint linking child to c.
func (c *Column) ChildConstraint(child *Column) *ForeignKey { return c.children[child] }

// AddParent links c to parent through fk.
func (c *Column) AddParent(parent *Column, fk *ForeignKey) {
	c.parents[parent] = fk
	if c.table != nil {
		c.table.addedParent()
	}
}

// AddChild links child to c through fk.
func (c *Column) AddChild(child *Column, fk *ForeignKey) {
	c.children[child] = fk
	if c.table != nil {
		c.table.addedChild()
	}
}

// RemoveParent drops the link to parent on this side only.
func (c *Column) RemoveParent(parent *Column) { delete(c.parents, parent) }

// RemoveChild drops the link to child on this side only.
func (c *Column) RemoveChild(child *Column) { delete(c.children, child) }

// UnlinkParents removes every parent link from both sides.
func (c *Column) UnlinkParents() {
	for p := range c.parents {
		p.RemoveChild(c)
	}
	clear(c.parents)
}

// UnlinkChildren removes every child link from both sides.
func (c *Column) UnlinkChildren() {
	for ch := range c.children {
		ch.RemoveParent(c)
	}
	clear(c.children)
}

// RemoveAParentConstraint detaches the first parent link in column order and
// returns its constraint, or nil.
func (c *Column) RemoveAParentConstraint() *ForeignKey {
	for _, p := range c.Parents() {
		fk := c.parents[p]
		delete(c.parents, p)
		p.RemoveChild(c)
		return fk
	}
	return nil
}

// RemoveAChildConstraint detaches the first child link in column order and
// returns its constraint, or nil.
func (c *Column) RemoveAChildConstraint() *ForeignKey {
	for _, ch := range c.Children() {
		fk := c.children[ch]
		delete(c.children, ch)
		ch.RemoveParent(c)
		return fk
	}
	return nil
}

func (c *Column) String() string { return c.Name }

// QualifiedName is "table.column".
func (c *Column) QualifiedName() string {
	if c.table == nil {
		return c.Name
	}
	return c.table.Name + "." + c.Name
}

func sortedKeys(m map[*Column]*ForeignKey) []*Column {
	out := make([]*Column, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return CompareColumns(out[i], out[j]) < 0 })
	return out
}

// CompareColumns orders columns by table full name then column name, ignoring case.
func CompareColumns(a, b *Column) int {
	if a.table != nil && b.table != nil {
		if rc := a.table.Compare(b.table); rc != 0 {
			return rc
		}
	}
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}
