package notification

import "context"

// Repository defines the interface for device token data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// UpsertDeviceToken registers a token, reassigning it if it already
	// belongs to another user
	UpsertDeviceToken(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error)

	// GetActiveTokensByUserID returns a user's active device tokens
	GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*DeviceToken, error)

	// DeactivateToken marks a token inactive after FCM reports it invalid
	DeactivateToken(ctx context.Context, token string) error
}
