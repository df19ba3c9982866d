// Package analyzer answers questions about a connected schema graph:
// neighborhoods of a table, orphans, anomalies, inferred relationships and a
// referential integrity ordering. Nothing here performs I/O except
// PopulatedSchemas.
package analyzer

import (
	"erdspy/internal/model"
)

// skippable reports whether c is left out of relationships. Excluded columns
// only count when includeExcluded is set; all-excluded columns never do.
func skippable(c *model.Column, includeExcluded bool) bool {
	return c.IsAllExcluded() || (!includeExcluded && c.IsExcluded())
}

// ImmediateRelatives returns the tables one hop away from t through its
// columns' parent and child links. Constraints dropped because they are implied
// and includeImplied is false are returned as skipped.
func ImmediateRelatives(t *model.Table, includeExcluded, includeImplied bool) (related []*model.Table, skipped []*model.ForeignKey) {
	seen := map[*model.Table]bool{}
	seenFK := map[*model.ForeignKey]bool{}
	visit := func(other *model.Column, fk *model.ForeignKey) {
		if skippable(other, includeExcluded) || fk == nil {
			return
		}
		if includeImplied || !fk.IsImplied() {
			if rt := other.Table(); rt != nil && rt != t && !seen[rt] {
				seen[rt] = true
				related = append(related, rt)
			}
			return
		}
		if !seenFK[fk] {
			seenFK[fk] = true
			skipped = append(skipped, fk)
		}
	}

	for _, c := range t.Columns() {
		if skippable(c, includeExcluded) {
			continue
		}
		for _, child := range c.Children() {
			visit(child, c.ChildConstraint(child))
		}
		for _, parent := range c.Parents() {
			visit(parent, c.ParentConstraint(parent))
		}
	}
	model.SortTables(related)
	return related, skipped
}

// Cousins returns the tables two hops from focus: the immediate relatives of
// each table in relatives that are neither focus nor one of relatives. Excluded
// columns never count at this distance.
func Cousins(focus *model.Table, relatives []*model.Table, includeImplied bool) (cousins []*model.Table, skipped []*model.ForeignKey) {
	known := map[*model.Table]bool{focus: true}
	for _, r := range relatives {
		known[r] = true
	}
	seenFK := map[*model.ForeignKey]bool{}
	for _, r := range relatives {
		more, skip := ImmediateRelatives(r, false, includeImplied)
		for _, m := range more {
			if !known[m] {
				known[m] = true
				cousins = append(cousins, m)
			}
		}
		for _, fk := range skip {
			if !seenFK[fk] {
				seenFK[fk] = true
				skipped = append(skipped, fk)
			}
		}
	}
	model.SortTables(cousins)
	return cousins, skipped
}

// Edge is one child column to parent column link.
type Edge struct {
	Parent     *model.Column
	Child      *model.Column
	Constraint *model.ForeignKey
}

// Neighborhood is the subgraph around a focus table.
type Neighborhood struct {
	Focus     *model.Table
	Relatives []*model.Table
	Cousins   []*model.Table
	// Edges connect any two participants, not only the focus and its relatives.
	Edges []Edge
	// Skipped are implied constraints left out.
	Skipped []*model.ForeignKey
}

// Tables returns the focus, its relatives and its cousins.
func (n *Neighborhood) Tables() []*model.Table {
	out := make([]*model.Table, 0, 1+len(n.Relatives)+len(n.Cousins))
	out = append(out, n.Focus)
	out = append(out, n.Relatives...)
	return append(out, n.Cousins...)
}

// NewNeighborhood collects the tables within one hop of focus, or two when
// twoDegrees is set, and every edge between them.
func NewNeighborhood(focus *model.Table, twoDegrees, includeImplied bool) *Neighborhood {
	n := &Neighborhood{Focus: focus}
	var skipped []*model.ForeignKey
	n.Relatives, skipped = ImmediateRelatives(focus, true, includeImplied)
	n.Skipped = append(n.Skipped, skipped...)
	if twoDegrees {
		n.Cousins, skipped = Cousins(focus, n.Relatives, includeImplied)
		n.Skipped = appendNew(n.Skipped, skipped)
	}
	n.Edges = connect(focus, n.Tables(), includeImplied)
	return n
}

func appendNew(dst, src []*model.ForeignKey) []*model.ForeignKey {
	have := make(map[*model.ForeignKey]bool, len(dst))
	for _, fk := range dst {
		have[fk] = true
	}
	for _, fk := range src {
		if !have[fk] {
			have[fk] = true
			dst = append(dst, fk)
		}
	}
	return dst
}

// connect returns every edge whose endpoints are both in tables. Excluded
// columns only contribute edges that touch focus.
func connect(focus *model.Table, tables []*model.Table, includeImplied bool) []Edge {
	in := make(map[*model.Table]bool, len(tables))
	for _, t := range tables {
		in[t] = true
	}
	var edges []Edge
	for _, t := range tables {
		for _, c := range t.Columns() {
			for _, p := range c.Parents() {
				if !in[p.Table()] {
					continue
				}
				fk := c.ParentConstraint(p)
				if fk == nil || (fk.IsImplied() && !includeImplied) {
					continue
				}
				direct := c.Table() == focus || p.Table() == focus
				if skippable(c, direct) || skippable(p, direct) {
					continue
				}
				edges = append(edges, Edge{Parent: p, Child: c, Constraint: fk})
			}
		}
	}
	return edges
}

// IsOrphan reports whether t has no relationships. With withImplied every link
// ever made counts; otherwise only current non implied links do.
func IsOrphan(t *model.Table, withImplied bool) bool {
	if withImplied {
		return t.MaxParents() == 0 && t.MaxChildren() == 0
	}
	return t.NumNonImpliedParents() == 0 && t.NumNonImpliedChildren() == 0
}

// Orphans returns the tables (not views) without relationships, by name.
func Orphans(tables []*model.Table, withImplied bool) []*model.Table {
	var out []*model.Table
	for _, t := range tables {
		if !t.IsView() && IsOrphan(t, withImplied) {
			out = append(out, t)
		}
	}
	model.SortTables(out)
	return out
}
