package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("client-id", "secret", "sandbox",
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf, 1),
	)
	assert.NoError(t, err)
	return client
}

func TestNewClient_UnknownEnvironment(t *testing.T) {
	_, err := NewClient("id", "secret", "staging")
	assert.Error(t, err)

	url, err := BaseURL("Production")
	assert.NoError(t, err)
	assert.Equal(t, "https://production.plaid.com", url)
}

func TestListCategories(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories/get", r.URL.Path)
		assert.Equal(t, apiVersion, r.Header.Get("Plaid-Version"))
		w.Write([]byte(`{"categories":[{"category_id":"10000000","group":"special","hierarchy":["Bank Fees"]}],"request_id":"r1"}`))
	})

	categories, err := client.ListCategories(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []Category{{CategoryID: "10000000", Group: "special", Hierarchy: []string{"Bank Fees"}}}, categories)
}

func TestGetAccounts_SendsCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client-id", body["client_id"])
		assert.Equal(t, "secret", body["secret"])
		assert.Equal(t, "access-sandbox-1", body["access_token"])

		w.Write([]byte(`{
			"accounts":[{"account_id":"acc_1","balances":{"available":null,"current":410.05,"iso_currency_code":"USD"},
			             "mask":"3333","name":"Plaid Credit Card","official_name":null,"type":"credit","subtype":"credit card"}],
			"item":{"item_id":"item_1","institution_id":"ins_3"}}`))
	})

	item, accounts, err := client.GetAccounts(context.Background(), "access-sandbox-1")
	assert.NoError(t, err)
	assert.Equal(t, "ins_3", item.InstitutionID)
	assert.Len(t, accounts, 1)
	assert.True(t, accounts[0].Balances.Current.Valid)
	assert.True(t, decimal.RequireFromString("410.05").Equal(accounts[0].Balances.Current.Decimal))
	assert.False(t, accounts[0].Balances.Available.Valid)
	assert.Nil(t, accounts[0].OfficialName)
}

func TestGetAccounts_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_type":"ITEM_ERROR","error_code":"ITEM_LOGIN_REQUIRED","error_message":"the login details of this item have changed"}`))
	})

	_, _, err := client.GetAccounts(context.Background(), "access-sandbox-1")

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ITEM_LOGIN_REQUIRED", apiErr.ErrorCode)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGetAccounts_UnexpectedErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, _, err := client.GetAccounts(context.Background(), "access-sandbox-1")

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "UNEXPECTED_RESPONSE", apiErr.ErrorCode)
}

func TestGetTransactions_Paginates(t *testing.T) {
	var offsets []int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body transactionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-02-01", body.StartDate)
		assert.Equal(t, "2024-03-01", body.EndDate)
		assert.Equal(t, transactionPageSize, body.Options.Count)
		offsets = append(offsets, body.Options.Offset)

		page := transactionsResponse{TotalTransactions: 3}
		if body.Options.Offset == 0 {
			page.Transactions = []Transaction{{TransactionID: "t1"}, {TransactionID: "t2"}}
		} else {
			page.Transactions = []Transaction{{TransactionID: "t3"}}
		}
		json.NewEncoder(w).Encode(page)
	})

	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	transactions, err := client.GetTransactions(context.Background(), "access-sandbox-1", start, end)

	assert.NoError(t, err)
	assert.Len(t, transactions, 3)
	assert.Equal(t, []int{0, 2}, offsets)
}

func TestRefreshTransactions(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/transactions/refresh", r.URL.Path)
		w.Write([]byte(`{"request_id":"r2"}`))
	})

	assert.NoError(t, client.RefreshTransactions(context.Background(), "access-sandbox-1"))
	assert.True(t, called)
}
