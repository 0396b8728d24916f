package insight

import "context"

// Repository defines the interface for insight data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// ReplaceForUser atomically replaces all stored insights for a user
	ReplaceForUser(ctx context.Context, userID int64, insights []Insight) error

	// ListByUserID retrieves the stored insights for a user in generation order
	ListByUserID(ctx context.Context, userID int64) ([]Insight, error)
}
