package analyzer

import "erdspy/internal/model"

// RemoveSelfReferencingConstraint detaches the first constraint of t that
// references t itself and returns it, or nil.
func RemoveSelfReferencingConstraint(t *model.Table) *model.ForeignKey {
	for _, c := range t.Columns() {
		for _, p := range c.Parents() {
			if p.Table() == t {
				fk := c.ParentConstraint(p)
				fk.Detach()
				return fk
			}
		}
	}
	return nil
}

// RemoveNonRealForeignKeys detaches every constraint of t that the database did
// not declare and returns them.
func RemoveNonRealForeignKeys(t *model.Table) []*model.ForeignKey {
	var nonReal []*model.ForeignKey
	seen := map[*model.ForeignKey]bool{}
	for _, c := range t.Columns() {
		for _, p := range c.Parents() {
			fk := c.ParentConstraint(p)
			if fk != nil && !fk.IsReal() && !seen[fk] {
				seen[fk] = true
				nonReal = append(nonReal, fk)
			}
		}
	}
	for _, fk := range nonReal {
		fk.Detach()
	}
	return nonReal
}

// RemoveAForeignKeyConstraint detaches one column link of t and returns its
// constraint, or nil when t has no links. It prunes the side (parents or
// children) with fewer links, so repeated calls isolate t in as few removals as
// possible. An empty side falls back to the other one.
func RemoveAForeignKeyConstraint(t *model.Table) *model.ForeignKey {
	parents, children := t.NumParents(), t.NumChildren()
	fromParents := parents > 0 && (parents <= children || children == 0)
	for _, c := range t.Columns() {
		var fk *model.ForeignKey
		if fromParents {
			fk = c.RemoveAParentConstraint()
		} else {
			fk = c.RemoveAChildConstraint()
		}
		if fk != nil {
			return fk
		}
	}
	return nil
}
