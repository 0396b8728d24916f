package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"ledgerlink/internal/domain/insight"
	"ledgerlink/internal/domain/link"
	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

// RelinkNotifier pushes a "reconnect your bank" notification when the
// provider revokes an access token.
type RelinkNotifier interface {
	SendRelinkRequired(ctx context.Context, userID int64, institutionName string) error
}

// UserSyncJob syncs every linked account of one user, then refreshes the
// user's insights. An account whose token the provider has revoked is
// flagged for relink instead of aborting the rest of the user's accounts.
type UserSyncJob struct {
	userID   int64
	links    link.Repository
	syncer   link.TransactionSyncer
	insights link.InsightRefresher
	notifier RelinkNotifier
}

// NewUserSyncJob creates a sync job for a user. notifier may be nil when
// push notifications are not configured.
func NewUserSyncJob(userID int64, links link.Repository, syncer link.TransactionSyncer, insights link.InsightRefresher, notifier RelinkNotifier) *UserSyncJob {
	return &UserSyncJob{
		userID:   userID,
		links:    links,
		syncer:   syncer,
		insights: insights,
		notifier: notifier,
	}
}

// Execute syncs all of the user's linked accounts and refreshes insights.
func (j *UserSyncJob) Execute(ctx context.Context) error {
	accounts, err := j.links.ListByUserID(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("listing linked accounts: %w", err)
	}

	var failures int
	var synced int
	for _, account := range accounts {
		if account.RelinkRequired {
			continue
		}

		result, err := j.syncer.SyncAccount(ctx, account.ID, account.AccessToken)
		if err != nil {
			if errors.Is(err, plaidclient.ErrProviderRejected) {
				j.flagRelink(ctx, account)
				continue
			}
			log.Printf("Sync failed for account %s (user %d): %v", account.ID, j.userID, err)
			failures++
			continue
		}

		if err := j.links.UpdateLastSyncedAt(ctx, account.ID, time.Now().UTC()); err != nil {
			log.Printf("Failed to record sync time for account %s: %v", account.ID, err)
		}

		synced++
		if len(result.Errors) > 0 {
			log.Printf("Sync for account %s completed with %d errors: Created=%d, Updated=%d",
				account.ID, len(result.Errors), result.Created, result.Updated)
		}
	}

	if synced > 0 {
		if _, err := j.insights.Refresh(ctx, j.userID); err != nil && !errors.Is(err, insight.ErrInsufficientData) {
			log.Printf("Insight refresh failed for user %d: %v", j.userID, err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("sync failed for %d of %d accounts", failures, len(accounts))
	}
	return nil
}

// flagRelink marks the account as needing relink and notifies the user.
// The stored token stays in place; the provider has already invalidated it.
func (j *UserSyncJob) flagRelink(ctx context.Context, account *link.LinkedAccount) {
	log.Printf("Provider revoked access for account %s (user %d), flagging for relink",
		account.ID, j.userID)

	if err := j.links.SetRelinkRequired(ctx, account.ID, true); err != nil {
		log.Printf("Failed to flag account %s for relink: %v", account.ID, err)
		return
	}

	if j.notifier == nil {
		return
	}
	if err := j.notifier.SendRelinkRequired(ctx, j.userID, account.InstitutionName); err != nil {
		log.Printf("Failed to send relink notification to user %d: %v", j.userID, err)
	}
}

// UserID returns the user ID associated with this job
func (j *UserSyncJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

// Description returns a human-readable description of the job
func (j *UserSyncJob) Description() string {
	return fmt.Sprintf("Account sync for user %d", j.userID)
}
