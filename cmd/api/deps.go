package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ledgerlink/internal/domain/insight"
	"ledgerlink/internal/domain/link"
	"ledgerlink/internal/domain/notification"
	"ledgerlink/internal/domain/transaction"
	"ledgerlink/internal/infrastructure/crypto"
	"ledgerlink/internal/infrastructure/firebase"
	plaidclient "ledgerlink/internal/infrastructure/plaid"
	"ledgerlink/internal/infrastructure/postgres"
	httphandlers "ledgerlink/internal/interfaces/http"
	"ledgerlink/internal/shared/auth"
	"ledgerlink/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler         *httphandlers.AuthHandler
	UserHandler         *httphandlers.UserHandler
	PlaidHandler        *httphandlers.PlaidHandler
	TransactionHandler  *httphandlers.TransactionHandler
	InsightHandler      *httphandlers.InsightHandler
	NotificationHandler *httphandlers.NotificationHandler
	HealthHandler       *httphandlers.HealthHandler

	// Auth
	JWT *auth.JWT

	// Services and repositories the scheduler drives
	LinkRepo            *postgres.LinkedAccountRepository
	SyncService         *transaction.SyncService
	InsightService      *insight.Service
	NotificationService *notification.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor for access tokens at rest
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	linkRepo := postgres.NewLinkedAccountRepository(db, encryptor)
	transactionRepo := postgres.NewTransactionRepository(db)
	insightRepo := postgres.NewInsightRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)

	// Initialize provider client and sync services
	client := plaidclient.NewClient(plaidclient.Config{
		ClientID:    cfg.Plaid.ClientID,
		Secret:      cfg.Plaid.Secret,
		Environment: cfg.Plaid.Environment,
		ClientName:  cfg.Plaid.ClientName,
		Timeout:     cfg.Plaid.Timeout,
	})

	syncStart, err := time.Parse("2006-01-02", cfg.Plaid.SyncStartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid sync start date: %w", err)
	}

	syncService := transaction.NewSyncService(client, transactionRepo, syncStart)
	insightService := insight.NewService(transactionRepo, insightRepo, cfg.Insights.MinTransactions)
	linkService := link.NewService(linkRepo, client)
	exchangeService := link.NewExchangeService(client, linkRepo, syncService, insightService)

	// Push notifications are optional; without Firebase credentials the
	// notification service logs instead of sending.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcmClient, err := firebase.NewClient(context.Background(), cfg.Firebase.CredentialsFile, deviceTokenRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase: %v", err)
		} else {
			messenger = fcmClient
			log.Println("Firebase Cloud Messaging initialized")
		}
	}
	notificationService := notification.NewService(deviceTokenRepo, messenger)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	authHandler := httphandlers.NewAuthHandler(userRepo, jwt)
	userHandler := httphandlers.NewUserHandler(userRepo)
	plaidHandler := httphandlers.NewPlaidHandler(linkService, exchangeService)
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo)
	insightHandler := httphandlers.NewInsightHandler(insightService)
	notificationHandler := httphandlers.NewNotificationHandler(notificationService)
	healthHandler := httphandlers.NewHealthHandler(db)

	return &Dependencies{
		DB:                  db,
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		PlaidHandler:        plaidHandler,
		TransactionHandler:  transactionHandler,
		InsightHandler:      insightHandler,
		NotificationHandler: notificationHandler,
		HealthHandler:       healthHandler,
		JWT:                 jwt,
		LinkRepo:            linkRepo,
		SyncService:         syncService,
		InsightService:      insightService,
		NotificationService: notificationService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
