package analyzer

import "erdspy/internal/model"

func newTable(name string, cols ...string) *model.Table {
	t := model.NewTable("shop", "", "app", name, "")
	for i, n := range cols {
		c := model.NewColumn(n)
		c.ID = i
		c.TypeName = "int4"
		t.AddColumn(c)
	}
	return t
}

func link(child *model.Table, childCol string, parent *model.Table, parentCol string) *model.ForeignKey {
	fk := model.ForeignKeyFor(child, child.Name+"_"+parent.Name+"_fk", model.RuleNoAction, model.RuleRestrict)
	fk.Link(child.Column(childCol), parent.Column(parentCol))
	return fk
}

func names(tables []*model.Table) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Name)
	}
	return out
}

// shop is customers <- orders <- line_items -> products, plus an unrelated
// audit table.
type shop struct {
	customers, orders, lineItems, products, audit *model.Table
}

func newShop() shop {
	s := shop{
		customers: newTable("customers", "id", "name"),
		orders:    newTable("orders", "id", "customer_id"),
		lineItems: newTable("line_items", "id", "order_id", "product_id"),
		products:  newTable("products", "id"),
		audit:     newTable("audit", "id", "order_id"),
	}
	link(s.orders, "customer_id", s.customers, "id")
	link(s.lineItems, "order_id", s.orders, "id")
	link(s.lineItems, "product_id", s.products, "id")
	return s
}

func (s shop) all() []*model.Table {
	return []*model.Table{s.audit, s.customers, s.lineItems, s.orders, s.products}
}
