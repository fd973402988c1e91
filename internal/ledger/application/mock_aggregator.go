package application

import (
	"context"
	"time"

	"github.com/sebuszqo/FinanceSync/internal/plaid"
)

type sourceData struct {
	Item         plaid.Item
	Accounts     []plaid.Account
	Transactions []plaid.Transaction
	AccountsErr  error
	TxErr        error
	RefreshErr   error
}

// MockAggregatorClient serves canned data keyed by access token.
type MockAggregatorClient struct {
	Categories    []plaid.Category
	CategoriesErr error
	Sources       map[string]sourceData

	Calls     []string
	TxWindows [][2]time.Time
}

func (m *MockAggregatorClient) ListCategories(_ context.Context) ([]plaid.Category, error) {
	m.Calls = append(m.Calls, "categories")
	return m.Categories, m.CategoriesErr
}

func (m *MockAggregatorClient) GetAccounts(_ context.Context, accessToken string) (plaid.Item, []plaid.Account, error) {
	m.Calls = append(m.Calls, "accounts:"+accessToken)
	data := m.Sources[accessToken]
	if data.AccountsErr != nil {
		return plaid.Item{}, nil, data.AccountsErr
	}
	return data.Item, data.Accounts, nil
}

func (m *MockAggregatorClient) GetTransactions(_ context.Context, accessToken string, start, end time.Time) ([]plaid.Transaction, error) {
	m.Calls = append(m.Calls, "transactions:"+accessToken)
	m.TxWindows = append(m.TxWindows, [2]time.Time{start, end})
	data := m.Sources[accessToken]
	if data.TxErr != nil {
		return nil, data.TxErr
	}
	return data.Transactions, nil
}

func (m *MockAggregatorClient) RefreshTransactions(_ context.Context, accessToken string) error {
	m.Calls = append(m.Calls, "refresh:"+accessToken)
	return m.Sources[accessToken].RefreshErr
}
