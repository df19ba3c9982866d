package analyzer

import (
	"slices"

	"erdspy/internal/logger"
	"erdspy/internal/model"
)

// OrderByRI orders tables so parents come before their children, the order in
// which rows can be inserted. Unrelated tables come last. Cycles are broken by
// removing constraints, which are returned as recursive.
//
// The walk unlinks tables as it goes: the relationships of tables are consumed
// and must not be used afterwards.
func OrderByRI(tables []*model.Table) (ordered []*model.Table, recursive []*model.ForeignKey) {
	var heads, tails, unattached, remaining []*model.Table
	for _, t := range tables {
		switch {
		case t.IsRemote():
			t.UnlinkParents()
			t.UnlinkChildren()
		case t.IsLeaf() && t.IsRoot():
			unattached = append(unattached, t)
		default:
			remaining = append(remaining, t)
		}
	}
	sortLevel(unattached)

	prunedNonReal := false
	for len(remaining) > 0 {
		before := len(remaining)

		var leaves []*model.Table
		leaves, remaining = split(remaining, (*model.Table).IsLeaf)
		sortLevel(leaves)
		for _, t := range leaves {
			t.UnlinkParents()
		}
		tails = append(leaves, tails...)

		var roots []*model.Table
		roots, remaining = split(remaining, (*model.Table).IsRoot)
		sortLevel(roots)
		for _, t := range roots {
			t.UnlinkChildren()
		}
		heads = append(heads, roots...)

		if len(remaining) != before {
			continue
		}
		if !prunedNonReal {
			for _, t := range remaining {
				RemoveNonRealForeignKeys(t)
			}
			prunedNonReal = true
			continue
		}

		foundSelf := false
		for _, t := range remaining {
			if fk := RemoveSelfReferencingConstraint(t); fk != nil {
				recursive = append(recursive, fk)
				foundSelf = true
			}
		}
		if foundSelf {
			continue
		}
		fk := RemoveAForeignKeyConstraint(mostLopsided(remaining))
		if fk == nil {
			logger.Warn("unable to break the remaining cycles among %d tables", len(remaining))
			sortLevel(remaining)
			heads = append(heads, remaining...)
			break
		}
		recursive = append(recursive, fk)
	}

	ordered = make([]*model.Table, 0, len(heads)+len(tails)+len(unattached))
	ordered = append(ordered, heads...)
	ordered = append(ordered, tails...)
	return append(ordered, unattached...), recursive
}

func split(tables []*model.Table, pred func(*model.Table) bool) (matched, rest []*model.Table) {
	for _, t := range tables {
		if pred(t) {
			matched = append(matched, t)
		} else {
			rest = append(rest, t)
		}
	}
	return matched, rest
}

// sortLevel orders tables of one level by most children, then fewest parents,
// then name. The max counters are used since links are gone by now.
func sortLevel(tables []*model.Table) {
	slices.SortStableFunc(tables, func(a, b *model.Table) int {
		if rc := b.MaxChildren() - a.MaxChildren(); rc != 0 {
			return rc
		}
		if rc := a.MaxParents() - b.MaxParents(); rc != 0 {
			return rc
		}
		return a.Compare(b)
	})
}

// mostLopsided returns the table with the largest difference between current
// children and parents, by name on ties.
func mostLopsided(tables []*model.Table) *model.Table {
	delta := func(t *model.Table) int {
		d := t.NumChildren() - t.NumParents()
		if d < 0 {
			return -d
		}
		return d
	}
	return slices.MinFunc(tables, func(a, b *model.Table) int {
		if rc := delta(b) - delta(a); rc != 0 {
			return rc
		}
		return a.Compare(b)
	})
}
