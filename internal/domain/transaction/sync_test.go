package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

type MockRepo struct {
	UpsertFunc           func(ctx context.Context, params UpsertParams) (*Transaction, error)
	GetByExternalIDFunc  func(ctx context.Context, accountID, externalID string) (*Transaction, error)
	LatestPostedDateFunc func(ctx context.Context, accountID string) (*time.Time, error)
}

func (m *MockRepo) Upsert(ctx context.Context, params UpsertParams) (*Transaction, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return &Transaction{AccountID: params.AccountID, ExternalID: params.ExternalID}, nil
}
func (m *MockRepo) GetByExternalID(ctx context.Context, accountID, externalID string) (*Transaction, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, accountID, externalID)
	}
	return nil, nil
}
func (m *MockRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error) {
	return nil, nil
}
func (m *MockRepo) ListAllByUserID(ctx context.Context, userID int64) ([]*Transaction, error) {
	return nil, nil
}
func (m *MockRepo) LatestPostedDate(ctx context.Context, accountID string) (*time.Time, error) {
	if m.LatestPostedDateFunc != nil {
		return m.LatestPostedDateFunc(ctx, accountID)
	}
	return nil, nil
}

type MockPlaidClient struct {
	GetTransactionsFunc func(ctx context.Context, accessToken string, startDate string) (*plaidclient.TransactionsResponse, error)
}

func (m *MockPlaidClient) CreateLinkToken(ctx context.Context, userID int64) (*plaidclient.LinkTokenResponse, error) {
	return nil, nil
}
func (m *MockPlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (*plaidclient.ExchangeResult, error) {
	return nil, nil
}
func (m *MockPlaidClient) GetTransactions(ctx context.Context, accessToken string, startDate string) (*plaidclient.TransactionsResponse, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, startDate)
	}
	return &plaidclient.TransactionsResponse{}, nil
}
func (m *MockPlaidClient) RemoveItem(ctx context.Context, accessToken string) error {
	return nil
}

var testStartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSyncAccount_FirstSyncUsesStartDate(t *testing.T) {
	var gotStartDate string
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			gotStartDate = startDate
			return &plaidclient.TransactionsResponse{}, nil
		},
	}

	svc := NewSyncService(client, &MockRepo{}, testStartDate)

	result, err := svc.SyncAccount(context.Background(), "acct-1", "access-token")
	if err != nil {
		t.Fatalf("SyncAccount() failed: %v", err)
	}

	if gotStartDate != "2024-01-01" {
		t.Errorf("start date = %q, want 2024-01-01", gotStartDate)
	}
	if result.TransactionsFound != 0 {
		t.Errorf("TransactionsFound = %d, want 0", result.TransactionsFound)
	}
}

func TestSyncAccount_IncrementalOverlapWindow(t *testing.T) {
	latest := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	repo := &MockRepo{
		LatestPostedDateFunc: func(ctx context.Context, accountID string) (*time.Time, error) {
			return &latest, nil
		},
	}

	var gotStartDate string
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			gotStartDate = startDate
			return &plaidclient.TransactionsResponse{}, nil
		},
	}

	svc := NewSyncService(client, repo, testStartDate)

	if _, err := svc.SyncAccount(context.Background(), "acct-1", "access-token"); err != nil {
		t.Fatalf("SyncAccount() failed: %v", err)
	}

	// 7 days before the newest stored transaction
	if gotStartDate != "2026-08-13" {
		t.Errorf("start date = %q, want 2026-08-13", gotStartDate)
	}
}

func TestSyncAccount_OverlapNeverPrecedesStartDate(t *testing.T) {
	latest := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	repo := &MockRepo{
		LatestPostedDateFunc: func(ctx context.Context, accountID string) (*time.Time, error) {
			return &latest, nil
		},
	}

	var gotStartDate string
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			gotStartDate = startDate
			return &plaidclient.TransactionsResponse{}, nil
		},
	}

	svc := NewSyncService(client, repo, testStartDate)

	if _, err := svc.SyncAccount(context.Background(), "acct-1", "access-token"); err != nil {
		t.Fatalf("SyncAccount() failed: %v", err)
	}

	if gotStartDate != "2024-01-01" {
		t.Errorf("start date = %q, want 2024-01-01", gotStartDate)
	}
}

func TestSyncAccount_CreatedVsUpdated(t *testing.T) {
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			return &plaidclient.TransactionsResponse{
				Transactions: []plaidclient.Transaction{
					{TransactionID: "tx-new", Amount: 10, DateString: "2026-08-01", Name: "Coffee"},
					{TransactionID: "tx-known", Amount: 20, DateString: "2026-08-02", Name: "Lunch"},
				},
				TotalTransactions: 2,
			}, nil
		},
	}

	repo := &MockRepo{
		GetByExternalIDFunc: func(ctx context.Context, accountID, externalID string) (*Transaction, error) {
			if externalID == "tx-known" {
				return &Transaction{ID: 1, AccountID: accountID, ExternalID: externalID}, nil
			}
			return nil, nil
		},
	}

	svc := NewSyncService(client, repo, testStartDate)

	result, err := svc.SyncAccount(context.Background(), "acct-1", "access-token")
	if err != nil {
		t.Fatalf("SyncAccount() failed: %v", err)
	}

	if result.Created != 1 {
		t.Errorf("Created = %d, want 1", result.Created)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestSyncAccount_PerTransactionErrorsDoNotAbort(t *testing.T) {
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			return &plaidclient.TransactionsResponse{
				Transactions: []plaidclient.Transaction{
					{TransactionID: "tx-bad", Amount: 10, DateString: "not-a-date", Name: "Broken"},
					{TransactionID: "tx-good", Amount: 20, DateString: "2026-08-02", Name: "Lunch"},
				},
				TotalTransactions: 2,
			}, nil
		},
	}

	svc := NewSyncService(client, &MockRepo{}, testStartDate)

	result, err := svc.SyncAccount(context.Background(), "acct-1", "access-token")
	if err != nil {
		t.Fatalf("SyncAccount() failed: %v", err)
	}

	if result.Created != 1 {
		t.Errorf("Created = %d, want 1", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Errorf("got %d errors, want 1: %v", len(result.Errors), result.Errors)
	}
}

func TestSyncAccount_AllRowsFailingIsAnError(t *testing.T) {
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			return &plaidclient.TransactionsResponse{
				Transactions: []plaidclient.Transaction{
					{TransactionID: "tx-1", Amount: 10, DateString: "not-a-date", Name: "Broken"},
					{TransactionID: "tx-2", Amount: 20, DateString: "also-bad", Name: "Broken too"},
				},
				TotalTransactions: 2,
			}, nil
		},
	}

	svc := NewSyncService(client, &MockRepo{}, testStartDate)

	if _, err := svc.SyncAccount(context.Background(), "acct-1", "access-token"); err == nil {
		t.Error("SyncAccount() succeeded with every transaction failing to process")
	}
}

func TestSyncAccount_ProviderFailure(t *testing.T) {
	client := &MockPlaidClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, startDate string) (*plaidclient.TransactionsResponse, error) {
			return nil, plaidclient.ErrProviderUnavailable
		},
	}

	svc := NewSyncService(client, &MockRepo{}, testStartDate)

	_, err := svc.SyncAccount(context.Background(), "acct-1", "access-token")
	if !errors.Is(err, plaidclient.ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}
