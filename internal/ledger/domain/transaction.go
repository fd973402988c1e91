package domain

import "github.com/shopspring/decimal"

// Transaction is a settled transaction. Amount is expense-negative.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"` // YYYY-MM-DD
	CategoryID      *string         `json:"category_id"`
	CurrencyCode    *string         `json:"currency_code"`
	LocationCity    *string         `json:"location_city"`
	LocationState   *string         `json:"location_state"`
	LocationCountry *string         `json:"location_country"`
	PaymentChannel  *string         `json:"payment_channel"`
}

func (t Transaction) Columns() []string {
	return []string{
		PrimaryKey, "account_id", "name", "amount", "date", "category_id", "currency_code",
		"location_city", "location_state", "location_country", "payment_channel",
	}
}

func (t Transaction) Values() []any {
	return []any{
		t.ID, t.AccountID, t.Name, Numeric(t.Amount.String()), t.Date, nullable(t.CategoryID), nullable(t.CurrencyCode),
		nullable(t.LocationCity), nullable(t.LocationState), nullable(t.LocationCountry), nullable(t.PaymentChannel),
	}
}
