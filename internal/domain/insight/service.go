package insight

import (
	"context"
	"fmt"
	"time"

	"ledgerlink/internal/domain/transaction"
)

// Service recomputes and serves insights for users
type Service struct {
	txRepo          transaction.Repository
	repo            Repository
	minTransactions int
}

// NewService creates a new insight service
func NewService(txRepo transaction.Repository, repo Repository, minTransactions int) *Service {
	return &Service{
		txRepo:          txRepo,
		repo:            repo,
		minTransactions: minTransactions,
	}
}

// Refresh regenerates a user's insights from their full transaction history
// and replaces the stored set. Returns ErrInsufficientData unwrapped so
// callers can treat it as "no insights yet" rather than a failure.
func (s *Service) Refresh(ctx context.Context, userID int64) ([]Insight, error) {
	txs, err := s.txRepo.ListAllByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	insights, err := Generate(userID, txs, s.minTransactions, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceForUser(ctx, userID, insights); err != nil {
		return nil, fmt.Errorf("failed to store insights: %w", err)
	}

	return insights, nil
}

// Latest returns the most recently generated insights for a user
func (s *Service) Latest(ctx context.Context, userID int64) ([]Insight, error) {
	return s.repo.ListByUserID(ctx, userID)
}
