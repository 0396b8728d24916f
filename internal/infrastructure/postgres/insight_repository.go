package postgres

import (
	"context"
	"fmt"

	"ledgerlink/internal/domain/insight"
)

// InsightRepository implements the insight.Repository interface for PostgreSQL
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new PostgreSQL insight repository
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// ReplaceForUser atomically replaces all stored insights for a user.
// Delete-and-insert inside a transaction keeps readers from ever seeing a
// mixed generation.
func (r *InsightRepository) ReplaceForUser(ctx context.Context, userID int64, insights []insight.Insight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM insights WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear insights: %w", err)
	}

	insertQuery := `
		INSERT INTO insights (user_id, kind, title, detail, value, period_start, period_end, generated_at, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i, in := range insights {
		_, err := tx.ExecContext(ctx, insertQuery,
			userID, in.Kind, in.Title, in.Detail, in.Value,
			in.PeriodStart, in.PeriodEnd, in.GeneratedAt, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}

	return nil
}

// ListByUserID retrieves the stored insights for a user in generation order
func (r *InsightRepository) ListByUserID(ctx context.Context, userID int64) ([]insight.Insight, error) {
	query := `
		SELECT id, user_id, kind, title, detail, value, period_start, period_end, generated_at
		FROM insights
		WHERE user_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var insights []insight.Insight
	for rows.Next() {
		var in insight.Insight
		err := rows.Scan(
			&in.ID, &in.UserID, &in.Kind, &in.Title, &in.Detail, &in.Value,
			&in.PeriodStart, &in.PeriodEnd, &in.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insights = append(insights, in)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating insights: %w", err)
	}

	return insights, nil
}
