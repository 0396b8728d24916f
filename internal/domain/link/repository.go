package link

import (
	"context"
	"time"
)

// Repository defines the interface for linked account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create persists a new linked account. Returns ErrDuplicateLink when the
	// user already has a link to the same institution.
	Create(ctx context.Context, params CreateParams) (*LinkedAccount, error)

	// GetByID retrieves a linked account by ID, access token decrypted
	GetByID(ctx context.Context, id string) (*LinkedAccount, error)

	// ListByUserID retrieves all linked accounts for a user
	ListByUserID(ctx context.Context, userID int64) ([]*LinkedAccount, error)

	// ListUserIDsWithLinks returns the IDs of all users that have at least
	// one linked account, for scheduled background syncs
	ListUserIDsWithLinks(ctx context.Context) ([]int64, error)

	// SetRelinkRequired flags or clears the relink marker on a link
	SetRelinkRequired(ctx context.Context, id string, required bool) error

	// UpdateLastSyncedAt records a successful sync time
	UpdateLastSyncedAt(ctx context.Context, id string, syncedAt time.Time) error

	// Delete removes a linked account and its transactions
	Delete(ctx context.Context, id string) error
}
