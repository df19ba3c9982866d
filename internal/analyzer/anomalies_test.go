package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"erdspy/internal/model"
)

func TestTablesWithIncrementingColumnNames(t *testing.T) {
	var tests = []struct {
		name string
		cols []string
		want bool
	}{
		{"numbered pair", []string{"id", "phone1", "phone2"}, true},
		{"implicit first", []string{"id", "address", "address2"}, true},
		{"descending", []string{"line3", "line2"}, true},
		{"gap", []string{"id", "phone1", "phone3"}, false},
		{"no numbers", []string{"id", "name", "email"}, false},
		{"different prefixes", []string{"a1", "b2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TablesWithIncrementingColumnNames([]*model.Table{newTable("contacts", tt.cols...)})
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestAnomalies(t *testing.T) {
	db := model.NewDatabase("shop", "", "app")
	s := newShop()
	for _, tbl := range s.all() {
		db.AddTable(tbl)
	}
	s.orders.AddIndex(model.NewIndex("orders_pkey", true)).AddColumn(s.orders.Column("id"), "A")
	nullString := "'NULL' "
	s.customers.Column("name").DefaultValue = &nullString
	realNull := "NULL"
	s.audit.Column("order_id").DefaultValue = &realNull
	employees := newTable("employees", "id", "manager_id", "phone", "phone2")
	self := link(employees, "manager_id", employees, "id")
	db.AddTable(employees)
	db.AddView(model.NewView("shop", "", "app", "recent", "", "select 1"))

	r := Anomalies(db, false)
	assert.Equal(t, []string{"audit", "customers", "employees", "line_items", "products"}, names(r.WithoutIndexes))
	assert.Equal(t, []string{"employees"}, names(r.IncrementingColumnNames))
	assert.Equal(t, []string{"products"}, names(r.OneColumn))
	if assert.Len(t, r.DefaultNullString, 1) {
		assert.Equal(t, "customers.name", r.DefaultNullString[0].QualifiedName())
	}
	assert.Equal(t, []string{"audit"}, names(r.Orphans))
	assert.Equal(t, []*model.ForeignKey{self}, r.SelfReferencing)
}
