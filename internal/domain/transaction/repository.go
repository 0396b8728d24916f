package transaction

import (
	"context"
	"time"
)

// Repository defines the interface for transaction data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Upsert creates or updates a transaction keyed by (account_id, external_id)
	Upsert(ctx context.Context, params UpsertParams) (*Transaction, error)

	// GetByExternalID retrieves a transaction by its provider ID within an
	// account. Returns (nil, nil) when no such transaction exists.
	GetByExternalID(ctx context.Context, accountID, externalID string) (*Transaction, error)

	// ListByUserID retrieves transactions across all of a user's linked
	// accounts, newest first
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error)

	// ListAllByUserID retrieves every transaction for a user, newest first
	ListAllByUserID(ctx context.Context, userID int64) ([]*Transaction, error)

	// LatestPostedDate returns the newest posted date stored for an account,
	// or nil when the account has no transactions yet
	LatestPostedDate(ctx context.Context, accountID string) (*time.Time, error)
}
