package domain

// MaxCategoryDepth is how many hierarchy levels a Category keeps.
const MaxCategoryDepth = 3

type Category struct {
	ID        string  `json:"id"`
	Group     string  `json:"group"`
	Category  *string `json:"category"`
	Category1 *string `json:"category1"`
	Category2 *string `json:"category2"`
}

func (c Category) Columns() []string {
	return []string{PrimaryKey, "group", "category", "category1", "category2"}
}

func (c Category) Values() []any {
	return []any{c.ID, c.Group, nullable(c.Category), nullable(c.Category1), nullable(c.Category2)}
}
