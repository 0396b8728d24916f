package link

import (
	"context"
	"fmt"
	"log"

	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

// Service contains the business logic for linked account operations
type Service struct {
	repo   Repository
	client plaidclient.ClientInterface
}

// NewService creates a new linked account service
func NewService(repo Repository, client plaidclient.ClientInterface) *Service {
	return &Service{repo: repo, client: client}
}

// CreateLinkToken requests a short-lived link token for starting a Link flow
func (s *Service) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	resp, err := s.client.CreateLinkToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return resp.LinkToken, nil
}

// ListAccounts retrieves all linked accounts for a user
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]*LinkedAccount, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// GetAccount retrieves a linked account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, id string, userID int64) (*LinkedAccount, error) {
	linked, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Business rule: verify ownership
	if linked.UserID != userID {
		return nil, ErrForbidden
	}

	return linked, nil
}

// Unlink removes a linked account after verifying ownership. The provider
// item is revoked first; a revocation failure is logged but does not keep
// the local link alive.
func (s *Service) Unlink(ctx context.Context, id string, userID int64) error {
	linked, err := s.GetAccount(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.client.RemoveItem(ctx, linked.AccessToken); err != nil {
		log.Printf("Failed to revoke provider item for link %s: %v", id, err)
	}

	return s.repo.Delete(ctx, id)
}
