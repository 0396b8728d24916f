package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/notification"
)

// DeviceTokenRepository implements the notification.Repository interface for PostgreSQL
type DeviceTokenRepository struct {
	db *DB
}

// NewDeviceTokenRepository creates a new PostgreSQL device token repository
func NewDeviceTokenRepository(db *DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// UpsertDeviceToken registers a token, reassigning it if it already belongs
// to another user (same device, new login)
func (r *DeviceTokenRepository) UpsertDeviceToken(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	query := `
		INSERT INTO device_tokens (id, user_id, token, device_type, is_active, last_used)
		VALUES ($1, $2, $3, $4, TRUE, CURRENT_TIMESTAMP)
		ON CONFLICT (token) DO UPDATE SET
		    user_id = EXCLUDED.user_id,
		    device_type = EXCLUDED.device_type,
		    is_active = TRUE,
		    last_used = CURRENT_TIMESTAMP
		RETURNING id, user_id, token, device_type, is_active, created_at, last_used
	`

	var dt notification.DeviceToken
	err := r.db.QueryRowContext(
		ctx, query,
		uuid.NewString(), params.UserID, params.Token, params.DeviceType,
	).Scan(
		&dt.ID, &dt.UserID, &dt.Token, &dt.DeviceType,
		&dt.IsActive, &dt.CreatedAt, &dt.LastUsed,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}

	return &dt, nil
}

// GetActiveTokensByUserID returns a user's active device tokens
func (r *DeviceTokenRepository) GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*notification.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_type, is_active, created_at, last_used
		FROM device_tokens
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY last_used DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*notification.DeviceToken
	for rows.Next() {
		var dt notification.DeviceToken
		err := rows.Scan(
			&dt.ID, &dt.UserID, &dt.Token, &dt.DeviceType,
			&dt.IsActive, &dt.CreatedAt, &dt.LastUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, &dt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}

	return tokens, nil
}

// DeactivateToken marks a token inactive after FCM reports it invalid
func (r *DeviceTokenRepository) DeactivateToken(ctx context.Context, token string) error {
	query := `UPDATE device_tokens SET is_active = FALSE WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}

	return nil
}
