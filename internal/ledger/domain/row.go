package domain

import "database/sql/driver"

// PrimaryKey is the identifier column shared by every synced table.
const PrimaryKey = "id"

const (
	TableCategories   = "categories"
	TableInstitutions = "institutions"
	TableAccounts     = "accounts"
	TableTransactions = "transactions"
)

// Tables lists the synced tables in write order. Later tables reference
// earlier ones by identifier.
var Tables = []string{TableCategories, TableInstitutions, TableAccounts, TableTransactions}

// Row is one canonical record ready to be upserted. Columns and Values are
// index aligned and Columns()[0] is always PrimaryKey.
type Row interface {
	Columns() []string
	Values() []any
}

// AsRows widens a typed slice into the shape the writer consumes.
func AsRows[R Row](rows []R) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// nullable converts an optional column into a driver value.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Numeric is a decimal value bound as its exact text form so no driver rounds
// it through float64.
type Numeric string

func (n Numeric) Value() (driver.Value, error) {
	return string(n), nil
}
