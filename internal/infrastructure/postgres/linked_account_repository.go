package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ledgerlink/internal/domain/link"
	"ledgerlink/internal/infrastructure/crypto"
)

// LinkedAccountRepository implements the link.Repository interface for
// PostgreSQL. Access tokens are encrypted before they touch the database
// and decrypted on the way out.
type LinkedAccountRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

// NewLinkedAccountRepository creates a new PostgreSQL linked account repository
func NewLinkedAccountRepository(db *DB, encryptor *crypto.Encryptor) *LinkedAccountRepository {
	return &LinkedAccountRepository{db: db, encryptor: encryptor}
}

// Create persists a new linked account. A unique index on
// (user_id, institution_name) enforces one link per institution per user.
func (r *LinkedAccountRepository) Create(ctx context.Context, params link.CreateParams) (*link.LinkedAccount, error) {
	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO linked_accounts (id, user_id, item_id, access_token, institution_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, item_id, institution_name, relink_required, last_synced_at, created_at, updated_at
	`

	var linked link.LinkedAccount
	var lastSyncedAt sql.NullTime

	err = r.db.QueryRowContext(
		ctx, query,
		params.ID, params.UserID, params.ItemID, encrypted, params.InstitutionName,
	).Scan(
		&linked.ID, &linked.UserID, &linked.ItemID, &linked.InstitutionName,
		&linked.RelinkRequired, &lastSyncedAt, &linked.CreatedAt, &linked.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "linked_accounts_user_institution_key") {
			return nil, link.ErrDuplicateLink
		}
		return nil, fmt.Errorf("failed to create linked account: %w", err)
	}

	if lastSyncedAt.Valid {
		linked.LastSyncedAt = &lastSyncedAt.Time
	}
	linked.AccessToken = params.AccessToken

	return &linked, nil
}

// GetByID retrieves a linked account by ID with its access token decrypted
func (r *LinkedAccountRepository) GetByID(ctx context.Context, id string) (*link.LinkedAccount, error) {
	query := `
		SELECT id, user_id, item_id, access_token, institution_name, relink_required,
		       last_synced_at, created_at, updated_at
		FROM linked_accounts
		WHERE id = $1
	`

	var linked link.LinkedAccount
	var encrypted string
	var lastSyncedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&linked.ID, &linked.UserID, &linked.ItemID, &encrypted, &linked.InstitutionName,
		&linked.RelinkRequired, &lastSyncedAt, &linked.CreatedAt, &linked.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, link.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}

	token, err := r.encryptor.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	linked.AccessToken = token

	if lastSyncedAt.Valid {
		linked.LastSyncedAt = &lastSyncedAt.Time
	}

	return &linked, nil
}

// ListByUserID retrieves all linked accounts for a user
func (r *LinkedAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*link.LinkedAccount, error) {
	query := `
		SELECT id, user_id, item_id, access_token, institution_name, relink_required,
		       last_synced_at, created_at, updated_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*link.LinkedAccount
	for rows.Next() {
		var linked link.LinkedAccount
		var encrypted string
		var lastSyncedAt sql.NullTime

		err := rows.Scan(
			&linked.ID, &linked.UserID, &linked.ItemID, &encrypted, &linked.InstitutionName,
			&linked.RelinkRequired, &lastSyncedAt, &linked.CreatedAt, &linked.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}

		token, err := r.encryptor.Decrypt(encrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt access token: %w", err)
		}
		linked.AccessToken = token

		if lastSyncedAt.Valid {
			linked.LastSyncedAt = &lastSyncedAt.Time
		}

		accounts = append(accounts, &linked)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked accounts: %w", err)
	}

	return accounts, nil
}

// ListUserIDsWithLinks returns the IDs of all users with at least one linked account
func (r *LinkedAccountRepository) ListUserIDsWithLinks(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM linked_accounts ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with links: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user IDs: %w", err)
	}

	return userIDs, nil
}

// SetRelinkRequired flags or clears the relink marker on a linked account
func (r *LinkedAccountRepository) SetRelinkRequired(ctx context.Context, id string, required bool) error {
	query := `UPDATE linked_accounts SET relink_required = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, required, id)
	if err != nil {
		return fmt.Errorf("failed to set relink flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return link.ErrLinkNotFound
	}

	return nil
}

// UpdateLastSyncedAt records a successful sync time
func (r *LinkedAccountRepository) UpdateLastSyncedAt(ctx context.Context, id string, syncedAt time.Time) error {
	query := `UPDATE linked_accounts SET last_synced_at = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update last synced time: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return link.ErrLinkNotFound
	}

	return nil
}

// Delete removes a linked account. Transactions cascade via foreign key.
func (r *LinkedAccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM linked_accounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return link.ErrLinkNotFound
	}

	return nil
}
