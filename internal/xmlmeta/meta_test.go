package xmlmeta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	for _, path := range []string{"testdata/library.meta.xml", "testdata/library.meta.yaml"} {
		t.Run(path, func(t *testing.T) {
			m, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "Lending library", m.Comments)
			require.Len(t, m.Tables, 2)

			loans := m.Tables[0]
			assert.Equal(t, "LOANS", loans.Name)
			assert.Equal(t, "Books out on loan", loans.Comments)
			assert.False(t, loans.IsRemote())
			require.Len(t, loans.Columns, 3)

			book := loans.Columns[0]
			assert.Equal(t, "Borrowed book", book.Comments)
			assert.True(t, book.ImpliedParentsDisabled)
			assert.False(t, book.ImpliedChildrenDisabled)
			require.Len(t, book.ForeignKeys, 1)
			assert.Equal(t, ForeignKeyMeta{TableName: "BOOKS", ColumnName: "ID"}, book.ForeignKeys[0])

			member := loans.Columns[1]
			assert.True(t, member.IsExcluded)
			assert.False(t, member.IsAllExcluded)
			require.Len(t, member.ForeignKeys, 1)
			assert.True(t, member.ForeignKeys[0].IsRemote())
			assert.Equal(t, "crm", member.ForeignKeys[0].RemoteSchema)

			audit := loans.Columns[2]
			assert.True(t, audit.IsExcluded)
			assert.True(t, audit.IsAllExcluded)
			assert.True(t, audit.Nullable)

			books := m.Tables[1]
			assert.Equal(t, "Catalogue", books.Comments)
			id := books.Columns[0]
			assert.True(t, id.IsPrimary)
			assert.Equal(t, "int", id.Type)
			assert.Equal(t, 10, id.Size)
			require.NotNil(t, id.ID)
			assert.Equal(t, 0, *id.ID)

			notes := books.Columns[1]
			assert.False(t, notes.Nullable)
			assert.Equal(t, "Free text", notes.Comments)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("testdata/broken.meta.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key needs table and column")

	_, err = Load("testdata/no_such_file.xml")
	require.Error(t, err)
}

func TestParseUnnamedTable(t *testing.T) {
	_, err := Parse(strings.NewReader("tables:\n  - comments: nameless\n"), YAML)
	require.Error(t, err)
}
