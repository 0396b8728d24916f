package transaction

import (
	"context"
	"fmt"
	"log"
	"time"

	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

// overlapDays is how far behind the newest stored transaction an incremental
// sync starts. Providers report transactions late and amend recent ones, so
// re-fetching a window keeps the store consistent without a full resync.
const overlapDays = 7

// SyncResult contains the results of a transaction sync operation
type SyncResult struct {
	AccountID         string
	TransactionsFound int
	Created           int
	Updated           int
	Errors            []string
}

// SyncService syncs transactions from the provider into the local store.
// Syncing is idempotent: re-running over the same window upserts rather
// than duplicates.
type SyncService struct {
	client    plaidclient.ClientInterface
	repo      Repository
	startDate time.Time
}

// NewSyncService creates a new transaction sync service. startDate bounds how
// far back the first sync of an account reaches.
func NewSyncService(client plaidclient.ClientInterface, repo Repository, startDate time.Time) *SyncService {
	return &SyncService{
		client:    client,
		repo:      repo,
		startDate: startDate,
	}
}

// SyncAccount fetches transactions for a linked account and upserts them.
// The first sync starts from the configured start date; subsequent syncs
// start an overlap window before the newest stored transaction.
func (s *SyncService) SyncAccount(ctx context.Context, accountID, accessToken string) (*SyncResult, error) {
	result := &SyncResult{
		AccountID: accountID,
		Errors:    []string{},
	}

	start, err := s.syncStart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txResp, err := s.client.GetTransactions(ctx, accessToken, start.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions from provider: %w", err)
	}

	result.TransactionsFound = len(txResp.Transactions)
	log.Printf("Fetched %d transactions for account %s (since %s)",
		result.TransactionsFound, accountID, start.Format("2006-01-02"))

	for i := range txResp.Transactions {
		if err := s.processTransaction(ctx, accountID, &txResp.Transactions[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to process transaction %s: %v", txResp.Transactions[i].TransactionID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Error: %s", errMsg)
		}
	}

	// Individual bad rows are tolerated, but a sync where nothing landed
	// is a failure, not a success with a long error list.
	if result.Created+result.Updated == 0 && len(result.Errors) > 0 {
		return nil, fmt.Errorf("all %d fetched transactions failed to process", len(result.Errors))
	}

	log.Printf("Transaction sync completed for account %s: found=%d, created=%d, updated=%d, errors=%d",
		accountID, result.TransactionsFound, result.Created, result.Updated, len(result.Errors))

	return result, nil
}

// syncStart computes the window start for an incremental sync
func (s *SyncService) syncStart(ctx context.Context, accountID string) (time.Time, error) {
	latest, err := s.repo.LatestPostedDate(ctx, accountID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest posted date: %w", err)
	}

	if latest == nil {
		return s.startDate, nil
	}

	start := latest.AddDate(0, 0, -overlapDays)
	if start.Before(s.startDate) {
		return s.startDate, nil
	}
	return start, nil
}

// processTransaction upserts a single provider transaction
func (s *SyncService) processTransaction(ctx context.Context, accountID string, apiTx *plaidclient.Transaction, result *SyncResult) error {
	postedDate, err := apiTx.GetDate()
	if err != nil {
		return err
	}
	if postedDate == nil {
		return fmt.Errorf("transaction date is required")
	}

	existing, err := s.repo.GetByExternalID(ctx, accountID, apiTx.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to check existing transaction: %w", err)
	}

	params := UpsertParams{
		AccountID:    accountID,
		ExternalID:   apiTx.TransactionID,
		Amount:       apiTx.Amount,
		Currency:     apiTx.ISOCurrencyCode,
		Description:  apiTx.Name,
		MerchantName: apiTx.MerchantName,
		Category:     apiTx.PrimaryCategory(),
		PostedDate:   *postedDate,
		Pending:      apiTx.Pending,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.Upsert(ctx, params); err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	if existing == nil {
		result.Created++
	} else {
		result.Updated++
	}

	return nil
}
