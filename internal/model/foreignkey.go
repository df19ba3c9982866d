package model

// Rule is a referential action, numbered like the standard metadata API.
type Rule int

const (
	RuleCascade    Rule = 0
	RuleRestrict   Rule = 1
	RuleSetNull    Rule = 2
	RuleNoAction   Rule = 3
	RuleSetDefault Rule = 4
)

// Origin says where a constraint came from.
type Origin int

const (
	// OriginMetadata is a constraint declared in the database.
	OriginMetadata Origin = iota
	// OriginImplied is inferred from column names and types.
	OriginImplied
	// OriginRails is inferred from Rails naming conventions.
	OriginRails
	// OriginXML is declared in override metadata.
	OriginXML
)

const (
	// XMLConstraintName names every constraint declared in override metadata.
	XMLConstraintName = "Defined in XML"
	// RailsConstraintName names every constraint inferred from Rails conventions.
	RailsConstraintName = "ByRailsConventionConstraint"
)

// ForeignKey is the owning edge between one child and one parent table. The
// column lists are position correlated.
type ForeignKey struct {
	Name       string
	UpdateRule Rule
	DeleteRule Rule

	origin        Origin
	childTable    *Table
	parentTable   *Table
	childColumns  []*Column
	parentColumns []*Column
}

// ForeignKeyFor returns the named constraint on child, creating and registering
// it if needed.
func ForeignKeyFor(child *Table, name string, updateRule, deleteRule Rule) *ForeignKey {
	if fk := child.ForeignKey(name); fk != nil {
		return fk
	}
	fk := &ForeignKey{Name: name, UpdateRule: updateRule, DeleteRule: deleteRule, childTable: child}
	stored, _ := child.foreignKeys.PutIfAbsent(name, fk)
	return stored
}

func newLinked(origin Origin, name string, parent, child *Column) *ForeignKey {
	fk := &ForeignKey{
		Name:       name,
		UpdateRule: RuleNoAction,
		DeleteRule: RuleRestrict,
		origin:     origin,
		childTable: child.table,
	}
	fk.Link(child, parent)
	return fk
}

// NewImpliedForeignKey links child to parent with an unnamed implied constraint.
func NewImpliedForeignKey(parent, child *Column) *ForeignKey {
	return newLinked(OriginImplied, "", parent, child)
}

// NewRailsForeignKey links child to parent following Rails conventions.
func NewRailsForeignKey(parent, child *Column) *ForeignKey {
	return newLinked(OriginRails, RailsConstraintName, parent, child)
}

// NewXMLForeignKey links child to parent as declared by override metadata. The
// parent column becomes primary if it was not already.
func NewXMLForeignKey(parent, child *Column) *ForeignKey {
	if !parent.IsPrimary() {
		parent.SetPrimary()
	}
	return newLinked(OriginXML, XMLConstraintName, parent, child)
}

// Link appends the pair to the constraint and links both columns. Linking a
// pair twice is a no-op.
func (fk *ForeignKey) Link(child, parent *Column) {
	if child.parents[parent] == fk {
		return
	}
	if fk.parentTable == nil {
		fk.parentTable = parent.table
	}
	if fk.childTable == nil {
		fk.childTable = child.table
	}
	fk.childColumns = append(fk.childColumns, child)
	fk.parentColumns = append(fk.parentColumns, parent)
	child.AddParent(parent, fk)
	parent.AddChild(child, fk)
}

// Detach removes every pair from both endpoint columns. The column lists are kept.
func (fk *ForeignKey) Detach() {
	for i, child := range fk.childColumns {
		parent := fk.parentColumns[i]
		child.RemoveParent(parent)
		parent.RemoveChild(child)
	}
}

func (fk *ForeignKey) Origin() Origin      { return fk.origin }
func (fk *ForeignKey) ChildTable() *Table  { return fk.childTable }
func (fk *ForeignKey) ParentTable() *Table { return fk.parentTable }

// ChildColumns returns the referencing columns.
func (fk *ForeignKey) ChildColumns() []*Column { return append([]*Column(nil), fk.childColumns...) }

// ParentColumns returns the referenced columns.
func (fk *ForeignKey) ParentColumns() []*Column { return append([]*Column(nil), fk.parentColumns...) }

// IsImplied reports whether the constraint was inferred from naming.
func (fk *ForeignKey) IsImplied() bool { return fk.origin == OriginImplied }

// IsReal reports whether the constraint came from database metadata.
func (fk *ForeignKey) IsReal() bool { return fk.origin == OriginMetadata }

func (fk *ForeignKey) IsCascadeOnDelete() bool { return fk.DeleteRule == RuleCascade }

func (fk *ForeignKey) IsRestrictDelete() bool {
	return fk.DeleteRule == RuleNoAction || fk.DeleteRule == RuleRestrict
}

func (fk *ForeignKey) IsNullOnDelete() bool { return fk.DeleteRule == RuleSetNull }

// DeleteRuleName is a short description of the delete rule.
func (fk *ForeignKey) DeleteRuleName() string {
	switch {
	case fk.IsCascadeOnDelete():
		return "Cascade on delete"
	case fk.IsRestrictDelete():
		return "Restrict delete"
	case fk.IsNullOnDelete():
		return "Null on delete"
	}
	return ""
}

// DeleteRuleAlias is a one letter code for the delete rule.
func (fk *ForeignKey) DeleteRuleAlias() string {
	switch {
	case fk.IsCascadeOnDelete():
		return "C"
	case fk.IsRestrictDelete():
		return "R"
	case fk.IsNullOnDelete():
		return "N"
	}
	return ""
}
