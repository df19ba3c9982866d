package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoter(t *testing.T) {
	q := NewQuoter(DbmsMeta{IdentifierQuote: "` ", ExtraNameChars: "$#", Keywords: []string{"limit"}, Functions: []string{"now"}})

	var tests = []struct {
		name  string
		quote bool
	}{
		{"orders", false},
		{"ORDER", true},
		{"Limit", true},
		{"NOW", true},
		{"line items", true},
		{"sys$col#1", false},
		{"dash-name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quote, q.NeedsQuoting(tt.name))
		})
	}

	assert.Equal(t, "`order`", q.Quote("order"))
	assert.Equal(t, "orders", q.Quote("orders"))
	assert.Equal(t, "`orders`", q.ForceQuote("orders"))
}

func TestQualifiedTable(t *testing.T) {
	q := NewQuoter(DbmsMeta{IdentifierQuote: `"`})

	var tests = []struct {
		name                   string
		catalog, schema, table string
		force                  bool
		want                   string
	}{
		{"schema", "cat", "app", "orders", false, "app.orders"},
		{"catalog only", "cat", "", "orders", false, "cat.orders"},
		{"bare", "", "", "orders", false, "orders"},
		{"forced", "", "app", "orders", true, `"app"."orders"`},
		{"keyword", "", "app", "user", false, `app."user"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, q.QualifiedTable(tt.catalog, tt.schema, tt.table, tt.force))
		})
	}
}
