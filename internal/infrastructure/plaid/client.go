package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sandboxURL    = "https://sandbox.plaid.com"
	productionURL = "https://production.plaid.com"

	defaultTimeout = 30 * time.Second

	// Plaid caps /transactions/get at 500 transactions per page
	transactionsPageSize = 500

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	itemGetPath      = "/item/get"
	institutionPath  = "/institutions/get_by_id"
	transactionsPath = "/transactions/get"
	itemRemovePath   = "/item/remove"
)

// Client errors. ErrProviderRejected means Plaid refused the request itself
// (bad token, revoked item); retrying with the same input will not help.
// ErrProviderUnavailable means Plaid could not be reached or answered with a
// server error; the same request may succeed later.
var (
	ErrProviderRejected    = errors.New("provider rejected request")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Client handles communication with the Plaid API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	secret      string
	clientName  string
	countryCode string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Config carries the credentials and environment for a Plaid client
type Config struct {
	ClientID    string
	Secret      string
	Environment string // "sandbox" or "production"
	ClientName  string
	Timeout     time.Duration
}

// NewClient creates a new Plaid API client
func NewClient(cfg Config) *Client {
	base := sandboxURL
	if cfg.Environment == "production" {
		base = productionURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     base,
		clientID:    cfg.ClientID,
		secret:      cfg.Secret,
		clientName:  cfg.ClientName,
		countryCode: "US",
	}
}

// LinkTokenResponse represents the response from /link/token/create
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

// ExchangeResult is the outcome of a successful public token exchange,
// enriched with the institution name resolved from the item.
type ExchangeResult struct {
	AccessToken     string
	ItemID          string
	InstitutionName string
}

// Transaction represents a transaction from /transactions/get
type Transaction struct {
	TransactionID   string   `json:"transaction_id"`
	AccountID       string   `json:"account_id"`
	Amount          float64  `json:"amount"` // positive = money out, negative = money in
	ISOCurrencyCode string   `json:"iso_currency_code"`
	DateString      string   `json:"date"` // "2006-01-02" format
	Name            string   `json:"name"`
	MerchantName    string   `json:"merchant_name"`
	Category        []string `json:"category"`
	Pending         bool     `json:"pending"`
}

// GetDate parses and returns the transaction date
func (t *Transaction) GetDate() (*time.Time, error) {
	if t.DateString == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
	}
	return &parsed, nil
}

// PrimaryCategory returns the most specific category Plaid assigned,
// or an empty string when the transaction is uncategorized.
func (t *Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 {
		return ""
	}
	return t.Category[len(t.Category)-1]
}

// TransactionsResponse represents the aggregated response from /transactions/get
type TransactionsResponse struct {
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
	RequestID         string        `json:"request_id"`
}

// apiError represents an error body returned by the Plaid API
type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("plaid API error %s/%s: %s", e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// post sends a JSON request with credentials injected and decodes the
// response into out. Errors are classified as rejected vs unavailable so
// callers can tell a bad token from a provider outage.
func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	payload["client_id"] = c.clientID
	payload["secret"] = c.secret

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.ErrorType == "" {
			return fmt.Errorf("%w: status %d: %s", ErrProviderRejected, resp.StatusCode, string(respBody))
		}
		if errResp.ErrorType == "API_ERROR" {
			return fmt.Errorf("%w: %s", ErrProviderUnavailable, errResp.Error())
		}
		return fmt.Errorf("%w: %s", ErrProviderRejected, errResp.Error())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// CreateLinkToken creates a short-lived link token for starting a Link flow
func (c *Client) CreateLinkToken(ctx context.Context, userID int64) (*LinkTokenResponse, error) {
	payload := map[string]any{
		"client_name":   c.clientName,
		"language":      "en",
		"country_codes": []string{c.countryCode},
		"user": map[string]any{
			"client_user_id": fmt.Sprintf("%d", userID),
		},
		"products": []string{"transactions"},
	}

	var resp LinkTokenResponse
	if err := c.post(ctx, linkTokenPath, payload, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ExchangePublicToken exchanges a public token for a durable access token
// and resolves the institution name behind the item.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	var exchangeResp struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
		RequestID   string `json:"request_id"`
	}

	payload := map[string]any{"public_token": publicToken}
	if err := c.post(ctx, exchangePath, payload, &exchangeResp); err != nil {
		return nil, err
	}

	result := &ExchangeResult{
		AccessToken: exchangeResp.AccessToken,
		ItemID:      exchangeResp.ItemID,
	}

	name, err := c.institutionName(ctx, exchangeResp.AccessToken)
	if err != nil {
		// The exchange itself succeeded; the link is usable without a
		// resolved institution name.
		return result, nil
	}
	result.InstitutionName = name

	return result, nil
}

// institutionName resolves the institution behind an access token via
// /item/get followed by /institutions/get_by_id.
func (c *Client) institutionName(ctx context.Context, accessToken string) (string, error) {
	var itemResp struct {
		Item struct {
			InstitutionID string `json:"institution_id"`
		} `json:"item"`
	}

	if err := c.post(ctx, itemGetPath, map[string]any{"access_token": accessToken}, &itemResp); err != nil {
		return "", err
	}
	if itemResp.Item.InstitutionID == "" {
		return "", nil
	}

	var instResp struct {
		Institution struct {
			Name string `json:"name"`
		} `json:"institution"`
	}

	payload := map[string]any{
		"institution_id": itemResp.Item.InstitutionID,
		"country_codes":  []string{c.countryCode},
	}
	if err := c.post(ctx, institutionPath, payload, &instResp); err != nil {
		return "", err
	}

	return instResp.Institution.Name, nil
}

// GetTransactions fetches all transactions from startDate (inclusive) through
// today, following pagination until the full set is retrieved.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate string) (*TransactionsResponse, error) {
	endDate := time.Now().Format("2006-01-02")

	result := &TransactionsResponse{}
	offset := 0

	for {
		payload := map[string]any{
			"access_token": accessToken,
			"start_date":   startDate,
			"end_date":     endDate,
			"options": map[string]any{
				"count":  transactionsPageSize,
				"offset": offset,
			},
		}

		var page TransactionsResponse
		if err := c.post(ctx, transactionsPath, payload, &page); err != nil {
			return nil, err
		}

		result.Transactions = append(result.Transactions, page.Transactions...)
		result.TotalTransactions = page.TotalTransactions
		result.RequestID = page.RequestID

		if len(page.Transactions) == 0 || len(result.Transactions) >= page.TotalTransactions {
			break
		}
		offset = len(result.Transactions)
	}

	return result, nil
}

// RemoveItem revokes the access token and deletes the item at the provider
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	return c.post(ctx, itemRemovePath, map[string]any{"access_token": accessToken}, nil)
}
