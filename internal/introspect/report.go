package introspect

import (
	"erdspy/internal/analyzer"
	"erdspy/internal/logger"
	"erdspy/internal/model"
)

// Options select the derived relationships and sections of a Report.
type Options struct {
	// Implied links columns that look like references to another table's key.
	Implied bool
	// Rails links <singular>_id columns to the plural table's ID.
	Rails bool
	// Order adds the referential integrity order. It consumes the
	// relationship graph, so the model must not be used afterwards.
	Order bool
}

// Anomalies lists the schema quality findings by qualified name.
type Anomalies struct {
	WithoutIndexes          []string     `json:"without_indexes"`
	IncrementingColumnNames []string     `json:"incrementing_column_names"`
	OneColumn               []string     `json:"one_column"`
	DefaultNullString       []string     `json:"default_null_string"`
	Orphans                 []string     `json:"orphans"`
	SelfReferencing         []ForeignKey `json:"self_referencing"`
}

// Order is the sequence in which tables can be loaded without violating
// their constraints. Recursive lists the constraints that had to be removed.
type Order struct {
	Tables    []string     `json:"tables"`
	Recursive []ForeignKey `json:"recursive,omitempty"`
}

// Neighborhood is the subgraph around one table.
type Neighborhood struct {
	Focus     string       `json:"focus"`
	Relatives []string     `json:"relatives"`
	Cousins   []string     `json:"cousins,omitempty"`
	Edges     []ForeignKey `json:"edges"`
	Skipped   []ForeignKey `json:"skipped,omitempty"`
}

// Report is everything derived from one gathered model.
type Report struct {
	Schema    Schema    `json:"schema"`
	Anomalies Anomalies `json:"anomalies"`
	Order     *Order    `json:"order,omitempty"`
}

// Relate adds the derived relationships selected by opts to db and returns
// how many were linked.
func Relate(db *model.Database, opts Options) int {
	n := 0
	if opts.Rails {
		n += len(analyzer.RailsConstraints(db.Locals()))
	}
	if opts.Implied {
		n += len(analyzer.ImpliedConstraints(db.Tables()))
	}
	if n > 0 {
		logger.Debug("linked %d derived relationships in %s", n, db.Name)
	}
	return n
}

// NewReport relates db according to opts and describes it.
func NewReport(db *model.Database, opts Options) Report {
	Relate(db, opts)
	r := Report{
		Schema:    FromDatabase(db),
		Anomalies: AnomaliesOf(db, opts.Implied),
	}
	if opts.Order {
		r.Order = OrderOf(db)
	}
	return r
}

// AnomaliesOf runs every anomaly check over the local tables of db.
func AnomaliesOf(db *model.Database, withImplied bool) Anomalies {
	rep := analyzer.Anomalies(db, withImplied)
	out := Anomalies{
		WithoutIndexes:          names(rep.WithoutIndexes),
		IncrementingColumnNames: names(rep.IncrementingColumnNames),
		OneColumn:               names(rep.OneColumn),
		DefaultNullString:       []string{},
		Orphans:                 names(rep.Orphans),
		SelfReferencing:         []ForeignKey{},
	}
	for _, c := range rep.DefaultNullString {
		out.DefaultNullString = append(out.DefaultNullString, c.QualifiedName())
	}
	for _, fk := range rep.SelfReferencing {
		out.SelfReferencing = append(out.SelfReferencing, pairsOf(fk)...)
	}
	return out
}

// OrderOf orders the local tables of db by referential integrity. The
// relationship graph of db is dismantled in the process.
func OrderOf(db *model.Database) *Order {
	ordered, recursive := analyzer.OrderByRI(db.Tables())
	out := &Order{Tables: names(ordered)}
	for _, fk := range recursive {
		out.Recursive = append(out.Recursive, pairsOf(fk)...)
	}
	return out
}

// NeighborhoodOf describes the tables within one or two hops of focus.
func NeighborhoodOf(focus *model.Table, twoDegrees, withImplied bool) Neighborhood {
	n := analyzer.NewNeighborhood(focus, twoDegrees, withImplied)
	out := Neighborhood{
		Focus:     focus.Name,
		Relatives: names(n.Relatives),
		Cousins:   names(n.Cousins),
		Edges:     []ForeignKey{},
	}
	for _, e := range n.Edges {
		out.Edges = append(out.Edges, foreignKeyOf(e.Child, e.Parent, e.Constraint))
	}
	for _, fk := range n.Skipped {
		out.Skipped = append(out.Skipped, pairsOf(fk)...)
	}
	return out
}

func pairsOf(fk *model.ForeignKey) []ForeignKey {
	children, parents := fk.ChildColumns(), fk.ParentColumns()
	out := make([]ForeignKey, 0, len(children))
	for i, c := range children {
		out = append(out, foreignKeyOf(c, parents[i], fk))
	}
	return out
}

func names(tables []*model.Table) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Name)
	}
	return out
}
