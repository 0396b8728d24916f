package transaction

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction represents a bank transaction synced from the provider.
// Amounts follow the provider convention: positive is money out,
// negative is money in.
type Transaction struct {
	ID           int64     `json:"id"`
	AccountID    string    `json:"accountId"` // linked account this transaction belongs to
	ExternalID   string    `json:"-"`         // provider transaction ID, used for dedup
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Description  string    `json:"description"`
	MerchantName string    `json:"merchantName,omitempty"`
	Category     string    `json:"category,omitempty"`
	PostedDate   time.Time `json:"postedDate"`
	Pending      bool      `json:"pending"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpsertParams contains parameters for upserting a transaction
type UpsertParams struct {
	AccountID    string
	ExternalID   string
	Amount       float64
	Currency     string
	Description  string
	MerchantName string
	Category     string
	PostedDate   time.Time
	Pending      bool
}

// Validate validates the upsert parameters
func (p UpsertParams) Validate() error {
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if p.ExternalID == "" {
		return errors.New("external transaction ID is required")
	}
	if p.PostedDate.IsZero() {
		return errors.New("posted date is required")
	}
	return nil
}
