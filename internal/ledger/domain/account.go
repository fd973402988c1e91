package domain

import "github.com/shopspring/decimal"

// Account balances are stored asset-positive: credit and loan balances are
// negated from the upstream sign.
type Account struct {
	ID             string              `json:"id"`
	InstitutionID  string              `json:"institution_id"`
	BalanceCurrent decimal.NullDecimal `json:"balance_current"`
	Mask           *string             `json:"mask"`
	Name           string              `json:"name"`
	Type           string              `json:"type"`
	Subtype        *string             `json:"subtype"`
}

func (a Account) Columns() []string {
	return []string{PrimaryKey, "institution_id", "balance_current", "mask", "name", "type", "subtype"}
}

func (a Account) Values() []any {
	var balance any
	if a.BalanceCurrent.Valid {
		balance = Numeric(a.BalanceCurrent.Decimal.String())
	}
	return []any{a.ID, a.InstitutionID, balance, nullable(a.Mask), a.Name, a.Type, nullable(a.Subtype)}
}
