package notification

import (
	"context"
	"fmt"
	"log"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. messenger may be nil when
// push delivery is not configured; registration still works.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.repo.UpsertDeviceToken(ctx, params)
}

// SendRelinkRequired notifies a user that one of their linked institutions
// needs to be re-authenticated
func (s *Service) SendRelinkRequired(ctx context.Context, userID int64, institutionName string) error {
	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get device tokens: %w", err)
	}

	if len(tokens) == 0 {
		log.Printf("No active device tokens for user %d, skipping relink notification", userID)
		return nil
	}

	if s.messenger == nil {
		return nil
	}

	title := "Reconnect your bank"
	body := fmt.Sprintf("%s needs to be reconnected to keep syncing transactions", institutionName)
	if institutionName == "" {
		body = "One of your banks needs to be reconnected to keep syncing transactions"
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	if err := s.messenger.SendMulticast(ctx, tokenStrings, title, body, map[string]string{
		"route": "accounts",
	}); err != nil {
		log.Printf("Error sending relink notification to user %d: %v", userID, err)
	}

	return nil
}
