package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ledgerlink/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, account_id, external_id, amount, currency, description,
	       merchant_name, category, posted_date, pending, created_at, updated_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var merchantName, category sql.NullString

	err := scanner.Scan(
		&tx.ID, &tx.AccountID, &tx.ExternalID, &tx.Amount, &tx.Currency,
		&tx.Description, &merchantName, &category, &tx.PostedDate, &tx.Pending,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if merchantName.Valid {
		tx.MerchantName = merchantName.String
	}
	if category.Valid {
		tx.Category = category.String
	}

	return &tx, nil
}

// Upsert creates or updates a transaction keyed by (account_id, external_id),
// which is what makes re-syncing the same window idempotent
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (account_id, external_id, amount, currency, description,
		                          merchant_name, category, posted_date, pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, external_id) DO UPDATE SET
		    amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    description = EXCLUDED.description,
		    merchant_name = EXCLUDED.merchant_name,
		    category = EXCLUDED.category,
		    posted_date = EXCLUDED.posted_date,
		    pending = EXCLUDED.pending,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.AccountID, params.ExternalID, params.Amount, params.Currency,
		params.Description, nullString(params.MerchantName), nullString(params.Category),
		params.PostedDate, params.Pending,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return tx, nil
}

// GetByExternalID retrieves a transaction by its provider ID within an account.
// Returns (nil, nil) when no such transaction exists.
func (r *TransactionRepository) GetByExternalID(ctx context.Context, accountID, externalID string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND external_id = $2
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// ListByUserID retrieves transactions across all of a user's linked accounts, newest first
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.external_id, t.amount, t.currency, t.description,
		       t.merchant_name, t.category, t.posted_date, t.pending, t.created_at, t.updated_at
		FROM transactions t
		JOIN linked_accounts la ON la.id = t.account_id
		WHERE la.user_id = $1
		ORDER BY t.posted_date DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListAllByUserID retrieves every transaction for a user, newest first
func (r *TransactionRepository) ListAllByUserID(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.external_id, t.amount, t.currency, t.description,
		       t.merchant_name, t.category, t.posted_date, t.pending, t.created_at, t.updated_at
		FROM transactions t
		JOIN linked_accounts la ON la.id = t.account_id
		WHERE la.user_id = $1
		ORDER BY t.posted_date DESC, t.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]*transaction.Transaction, error) {
	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// LatestPostedDate returns the newest posted date stored for an account,
// or nil when the account has no transactions yet
func (r *TransactionRepository) LatestPostedDate(ctx context.Context, accountID string) (*time.Time, error) {
	query := `SELECT MAX(posted_date) FROM transactions WHERE account_id = $1`

	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to get latest posted date: %w", err)
	}

	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
