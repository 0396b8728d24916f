package plaid

import (
	"context"
)

// ClientInterface defines the methods required from the Plaid API client
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, userID int64) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error)
	GetTransactions(ctx context.Context, accessToken string, startDate string) (*TransactionsResponse, error)
	RemoveItem(ctx context.Context, accessToken string) error
}
