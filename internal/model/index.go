package model

import "strings"

// Index is a table index. Primary is set after primary key resolution.
type Index struct {
	Name    string
	Unique  bool
	Primary bool
	// ID is the vendor index id, "" if unknown.
	ID string

	columns   []*Column
	ascending []bool
}

// NewIndex creates an index without columns.
func NewIndex(name string, unique bool) *Index {
	return &Index{Name: name, Unique: unique}
}

// AddColumn appends a column unless it is already indexed. sortOrder "A" or ""
// means ascending.
func (i *Index) AddColumn(c *Column, sortOrder string) {
	if c == nil {
		return
	}
	for _, col := range i.columns {
		if col == c {
			return
		}
	}
	i.columns = append(i.columns, c)
	i.ascending = append(i.ascending, sortOrder == "" || sortOrder == "A")
}

// Columns returns the indexed columns in index order.
func (i *Index) Columns() []*Column {
	return append([]*Column(nil), i.columns...)
}

// IsAscending reports the sort direction of c within the index.
func (i *Index) IsAscending(c *Column) bool {
	for n, col := range i.columns {
		if col == c {
			return i.ascending[n]
		}
	}
	return false
}

// Type is a human readable classification.
func (i *Index) Type() string {
	switch {
	case i.Primary:
		return "Primary key"
	case i.Unique:
		return "Must be unique"
	default:
		return "Performance"
	}
}

// ColumnsString joins the column names with " + ".
func (i *Index) ColumnsString() string {
	names := make([]string, len(i.columns))
	for n, c := range i.columns {
		names[n] = c.Name
	}
	return strings.Join(names, " + ")
}

// Equal compares vendor ids when both are known, else names ignoring case.
func (i *Index) Equal(o *Index) bool {
	if i == o {
		return true
	}
	if o == nil {
		return false
	}
	if i.ID != "" && o.ID != "" {
		return strings.EqualFold(i.ID, o.ID)
	}
	return strings.EqualFold(i.Name, o.Name)
}

func (i *Index) less(o *Index) bool {
	if i.Primary != o.Primary {
		return i.Primary
	}
	if i.ID != "" && o.ID != "" {
		return strings.ToLower(i.ID) < strings.ToLower(o.ID)
	}
	return strings.ToLower(i.Name) < strings.ToLower(o.Name)
}
