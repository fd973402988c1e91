package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiVersion          = "2019-05-29"
	transactionPageSize = 500
	dateLayout          = "2006-01-02"
)

var environments = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// BaseURL returns the API host for a deployment environment.
func BaseURL(env string) (string, error) {
	url, ok := environments[strings.ToLower(env)]
	if !ok {
		return "", fmt.Errorf("unknown plaid environment %q", env)
	}
	return url, nil
}

// APIError is the error body the API answers with on non-2xx responses.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid %s/%s (HTTP %d): %s", e.ErrorType, e.ErrorCode, e.StatusCode, e.ErrorMessage)
}

type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit caps the request rate against the API.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

type Client struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(clientID, secret, env string, opts ...Option) (*Client, error) {
	baseURL, err := BaseURL(env)
	if err != nil {
		return nil, err
	}
	c := &Client{
		clientID:   clientID,
		secret:     secret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp categoriesResponse
	if err := c.post(ctx, "/categories/get", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) GetAccounts(ctx context.Context, accessToken string) (Item, []Account, error) {
	var resp accountsResponse
	if err := c.post(ctx, "/accounts/get", c.tokenRequest(accessToken), &resp); err != nil {
		return Item{}, nil, err
	}
	return resp.Item, resp.Accounts, nil
}

// GetTransactions pages through every transaction between start and end,
// both inclusive.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error) {
	req := transactionsRequest{
		tokenRequest: c.tokenRequest(accessToken),
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
		Options:      transactionsOptions{Count: transactionPageSize},
	}

	var transactions []Transaction
	for {
		var resp transactionsResponse
		if err := c.post(ctx, "/transactions/get", req, &resp); err != nil {
			return nil, err
		}
		transactions = append(transactions, resp.Transactions...)
		if len(resp.Transactions) == 0 || len(transactions) >= resp.TotalTransactions {
			return transactions, nil
		}
		req.Options.Offset = len(transactions)
	}
}

// RefreshTransactions asks the API to pull fresh data from the institution.
// Not every environment supports it.
func (c *Client) RefreshTransactions(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/transactions/refresh", c.tokenRequest(accessToken), nil)
}

func (c *Client) tokenRequest(accessToken string) tokenRequest {
	return tokenRequest{ClientID: c.clientID, Secret: c.secret, AccessToken: accessToken}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Plaid-Version", apiVersion)
	req.Header.Set("User-Agent", "FinanceSync")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.ErrorCode == "" {
			apiErr.ErrorType = "API_ERROR"
			apiErr.ErrorCode = "UNEXPECTED_RESPONSE"
			apiErr.ErrorMessage = resp.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
