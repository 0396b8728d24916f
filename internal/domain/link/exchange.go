package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ledgerlink/internal/domain/insight"
	"ledgerlink/internal/domain/transaction"
	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

var (
	exchangeTracer = otel.Tracer("ledgerlink.exchange")
	exchangeMeter  = otel.Meter("ledgerlink/exchange")

	stageCounter, _ = exchangeMeter.Int64Counter(
		"link_exchange_stage_total",
		metric.WithDescription("Exchange pipeline stages by outcome"),
	)
)

// TransactionSyncer syncs provider transactions for a linked account
type TransactionSyncer interface {
	SyncAccount(ctx context.Context, accountID, accessToken string) (*transaction.SyncResult, error)
}

// InsightRefresher regenerates a user's insights
type InsightRefresher interface {
	Refresh(ctx context.Context, userID int64) ([]insight.Insight, error)
}

// ExchangeService runs the exchange-and-sync pipeline: trade a public token
// for an access token, persist the link, sync transactions, refresh insights.
type ExchangeService struct {
	client   plaidclient.ClientInterface
	repo     Repository
	syncer   TransactionSyncer
	insights InsightRefresher
}

// NewExchangeService creates a new exchange service
func NewExchangeService(client plaidclient.ClientInterface, repo Repository, syncer TransactionSyncer, insights InsightRefresher) *ExchangeService {
	return &ExchangeService{
		client:   client,
		repo:     repo,
		syncer:   syncer,
		insights: insights,
	}
}

func recordStage(ctx context.Context, stage string, ok bool) {
	stageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", ok),
	))
}

// ExchangeAndSync exchanges a public token and runs the initial sync for the
// resulting link. Later stages degrade independently: once the token is
// exchanged and the link persisted, a sync or insight failure is reported in
// the outcome rather than as an error, because the link itself is durable
// and a scheduled sync will catch up.
//
// An error return means nothing usable happened: the token was malformed
// (ErrInvalidPublicToken), the institution is already linked
// (ErrDuplicateLink), the link could not be persisted, or the provider was
// unreachable. A rejected token is not an error; it yields an all-false
// outcome.
func (s *ExchangeService) ExchangeAndSync(ctx context.Context, userID int64, publicToken string) (*SyncOutcome, error) {
	ctx, span := exchangeTracer.Start(ctx, "link.ExchangeAndSync")
	defer span.End()

	if err := ValidatePublicToken(publicToken); err != nil {
		return nil, err
	}

	outcome := &SyncOutcome{}

	result, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		recordStage(ctx, "exchange", false)
		if errors.Is(err, plaidclient.ErrProviderRejected) {
			// Token shape was fine but the provider does not know it
			// (expired or already used). Nothing was linked.
			log.Printf("Provider rejected public token for user %d: %v", userID, err)
			return outcome, nil
		}
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	recordStage(ctx, "exchange", true)

	linked, err := s.repo.Create(ctx, CreateParams{
		ID:              uuid.NewString(),
		UserID:          userID,
		ItemID:          result.ItemID,
		AccessToken:     result.AccessToken,
		InstitutionName: result.InstitutionName,
	})
	if err != nil {
		recordStage(ctx, "persist", false)
		if errors.Is(err, ErrDuplicateLink) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist linked account: %w", err)
	}
	recordStage(ctx, "persist", true)

	outcome.TokenExchanged = true
	outcome.InstitutionName = linked.InstitutionName

	syncResult, err := s.syncer.SyncAccount(ctx, linked.ID, result.AccessToken)
	if err != nil {
		recordStage(ctx, "sync", false)
		log.Printf("Initial sync failed for link %s (user %d): %v", linked.ID, userID, err)
	} else {
		recordStage(ctx, "sync", true)
		outcome.TransactionsSynced = true

		if err := s.repo.UpdateLastSyncedAt(ctx, linked.ID, time.Now()); err != nil {
			log.Printf("Failed to record sync time for link %s: %v", linked.ID, err)
		}

		log.Printf("Initial sync for link %s: found=%d, created=%d, updated=%d",
			linked.ID, syncResult.TransactionsFound, syncResult.Created, syncResult.Updated)
	}

	// Insights are computed over everything already stored for the user, so
	// a failed initial sync does not block them.
	if _, err := s.insights.Refresh(ctx, userID); err != nil {
		recordStage(ctx, "insights", false)
		if !errors.Is(err, insight.ErrInsufficientData) {
			log.Printf("Insight refresh failed for user %d: %v", userID, err)
		}
		return outcome, nil
	}
	recordStage(ctx, "insights", true)
	outcome.InsightsGenerated = true

	return outcome, nil
}
