// Package normalize turns raw aggregator records into canonical ledger rows.
// Everything here is pure: no I/O, deterministic for a given input.
package normalize

import (
	"regexp"

	"github.com/sebuszqo/FinanceSync/internal/ledger/domain"
	"github.com/sebuszqo/FinanceSync/internal/plaid"
)

// HomeCountry is back-filled on USD transactions that carry a region but no
// country.
const HomeCountry = "US"

var namePrefix = regexp.MustCompile(`^Ext Credit Card (Debit|Credit) `)

func Category(c plaid.Category) domain.Category {
	row := domain.Category{ID: c.CategoryID, Group: c.Group}
	levels := []**string{&row.Category, &row.Category1, &row.Category2}
	for i := 0; i < len(c.Hierarchy) && i < domain.MaxCategoryDepth; i++ {
		label := c.Hierarchy[i]
		*levels[i] = &label
	}
	return row
}

func Categories(categories []plaid.Category) []domain.Category {
	rows := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, Category(c))
	}
	return rows
}

// Institution keys the source by the upstream institution id but names it
// with the operator's label.
func Institution(label string, item plaid.Item) domain.Institution {
	return domain.Institution{ID: item.InstitutionID, Name: label}
}

func Account(institutionID string, a plaid.Account) domain.Account {
	balance := a.Balances.Current
	if balance.Valid && isLiability(a.Type) {
		balance.Decimal = balance.Decimal.Neg()
	}

	name := a.Name
	if a.OfficialName != nil && *a.OfficialName != "" {
		name = *a.OfficialName
	}

	return domain.Account{
		ID:             a.AccountID,
		InstitutionID:  institutionID,
		BalanceCurrent: balance,
		Mask:           a.Mask,
		Name:           name,
		Type:           a.Type,
		Subtype:        a.Subtype,
	}
}

func Accounts(institutionID string, accounts []plaid.Account) []domain.Account {
	rows := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, Account(institutionID, a))
	}
	return rows
}

func isLiability(accountType string) bool {
	return accountType == "credit" || accountType == "loan"
}

// Transaction returns false for records that must never be stored.
func Transaction(t plaid.Transaction) (domain.Transaction, bool) {
	if t.Pending {
		return domain.Transaction{}, false
	}

	name := t.Name
	if loc := namePrefix.FindStringIndex(name); loc != nil {
		name = name[loc[1]:]
	}

	country := t.Location.Country
	if isBlank(country) && t.IsoCurrencyCode != nil && *t.IsoCurrencyCode == "USD" && !isBlank(t.Location.Region) {
		home := HomeCountry
		country = &home
	}

	return domain.Transaction{
		ID:              t.TransactionID,
		AccountID:       t.AccountID,
		Name:            name,
		Amount:          t.Amount.Neg(),
		Date:            t.Date,
		CategoryID:      t.CategoryID,
		CurrencyCode:    t.IsoCurrencyCode,
		LocationCity:    t.Location.City,
		LocationState:   t.Location.Region,
		LocationCountry: country,
		PaymentChannel:  t.PaymentChannel,
	}, true
}

// Transactions keeps settled transactions and reports how many pending ones
// were dropped.
func Transactions(transactions []plaid.Transaction) (rows []domain.Transaction, pending int) {
	rows = make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		row, ok := Transaction(t)
		if !ok {
			pending++
			continue
		}
		rows = append(rows, row)
	}
	return rows, pending
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
