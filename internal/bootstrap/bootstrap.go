package bootstrap

import (
	"atacado-server/internal/config"
	"atacado-server/internal/observability"
	"atacado-server/internal/store"
	"context"
	"fmt"

	authHandler "atacado-server/internal/auth/handler"
	authProcessor "atacado-server/internal/auth/processor"
	campaignHandler "atacado-server/internal/campaigns/handler"
	campaignProcessor "atacado-server/internal/campaigns/processor"
	catalogHandler "atacado-server/internal/catalog/handler"
	catalogProcessor "atacado-server/internal/catalog/processor"
	"atacado-server/internal/clients/bling"
	"atacado-server/internal/clients/catalogindex"
	"atacado-server/internal/clients/mail"
	"atacado-server/internal/clients/payments"
	"atacado-server/internal/clients/pdfengine"
	"atacado-server/internal/clients/whatsapp"
	crmHandler "atacado-server/internal/crm/handler"
	crmProcessor "atacado-server/internal/crm/processor"
	ordersHandler "atacado-server/internal/orders/handler"
	ordersProcessor "atacado-server/internal/orders/processor"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	AuthHandler     authHandler.Handler
	CatalogHandler  catalogHandler.Handler
	CampaignHandler campaignHandler.Handler
	CRMHandler      crmHandler.Handler
	OrdersHandler   ordersHandler.Handler
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	connectionString := cfg.Database.ConnectionString()
	var err error
	deps.Store, err = store.New(connectionString, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize clients
	indexClient, err := catalogindex.NewClient(cfg.Services.OpenAIAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index client: %w", err)
	}

	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}

	blingClient := bling.NewClient(cfg.Services.BlingBaseURL, cfg.Services.BlingAPIKey, logger)
	pdfClient := pdfengine.NewClient(cfg.Services.PDFEngineURL, logger)
	paymentClient := payments.NewClient(cfg.Services.StripeSecretKey, logger)
	whatsappClient := whatsapp.NewClient(
		cfg.Services.TwilioAccountSID,
		cfg.Services.TwilioAuthToken,
		cfg.Services.WhatsAppFrom,
		logger,
	)

	// Initialize auth processor and handler
	authProc := authProcessor.New(cfg.Auth, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	// Initialize catalog processor and handler
	catalogProc := catalogProcessor.New(&deps.Store, indexClient, pdfClient, logger)
	deps.CatalogHandler = catalogHandler.New(catalogProc, logger)

	// Initialize campaign processor and handler
	campaignProc := campaignProcessor.New(&deps.Store, pdfClient, logger)
	deps.CampaignHandler = campaignHandler.New(campaignProc, logger)

	// Initialize client resolver and handler
	resolver := crmProcessor.New(&deps.Store, blingClient, logger)
	deps.CRMHandler = crmHandler.New(resolver, logger)

	// Initialize fulfillment composer and handler
	composer := ordersProcessor.New(
		&deps.Store,
		blingClient,
		paymentClient,
		whatsappClient,
		mailClient,
		cfg.Services.DefaultEmailSender,
		logger,
	)
	deps.OrdersHandler = ordersHandler.New(composer, logger)

	return deps, nil
}
