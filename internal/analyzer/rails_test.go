package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdspy/internal/model"
)

func TestRailsConstraints(t *testing.T) {
	tables := model.NewMap[*model.Table]()
	for _, tbl := range []*model.Table{
		newTable("people", "ID", "name"),
		newTable("categories", "ID"),
		newTable("posts", "ID", "person_id", "category_id", "tag_id"),
		newTable("comments", "ID", "post_id"),
	} {
		tables.Put(tbl.Name, tbl)
	}
	comments, _ := tables.Get("comments")
	comments.Column("post_id").SetAllowImpliedParents(false)

	found := RailsConstraints(tables)
	require.Len(t, found, 2)

	parents := map[string]string{}
	for _, fk := range found {
		assert.Equal(t, model.OriginRails, fk.Origin())
		assert.Equal(t, model.RailsConstraintName, fk.Name)
		parents[fk.ChildColumns()[0].QualifiedName()] = fk.ParentTable().Name
	}
	assert.Equal(t, map[string]string{
		"posts.person_id":   "people",
		"posts.category_id": "categories",
	}, parents)

	posts, _ := tables.Get("posts")
	assert.Nil(t, posts.ForeignKey(model.RailsConstraintName))
	assert.Empty(t, RailsConstraints(tables))
}
