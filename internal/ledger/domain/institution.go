package domain

// Institution is a linked source. Name is the operator's label for the source,
// not the bank's own name.
type Institution struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (i Institution) Columns() []string {
	return []string{PrimaryKey, "name"}
}

func (i Institution) Values() []any {
	return []any{i.ID, i.Name}
}
