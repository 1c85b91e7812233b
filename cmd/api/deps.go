package main

import (
	"log"

	"fatura/internal/domain/transaction"
	"fatura/internal/infrastructure/postgres"
	httphandlers "fatura/internal/interfaces/http"
	"fatura/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ChargeHandler  *httphandlers.ChargeHandler
	InvoiceHandler *httphandlers.InvoiceHandler
	PaymentHandler *httphandlers.PaymentHandler

	// Repositories (for scheduler job provider)
	CardRepo *postgres.CardRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if cfg.Database.RunMigrations {
		if err := postgres.RunMigrations(cfg.Database.ConnectionString()); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("Database migrations applied")
	}

	// Initialize repositories
	cardRepo := postgres.NewCardRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	accountRepo := postgres.NewAccountRepository(db)

	// Initialize domain services
	chargeService := transaction.NewChargeService(cardRepo, invoiceRepo, transactionRepo)
	paymentService := transaction.NewPaymentService(invoiceRepo, transactionRepo, cardRepo, accountRepo)

	// Initialize handlers
	chargeHandler := httphandlers.NewChargeHandler(chargeService)
	invoiceHandler := httphandlers.NewInvoiceHandler(invoiceRepo, cardRepo)
	paymentHandler := httphandlers.NewPaymentHandler(paymentService)

	return &Dependencies{
		DB:             db,
		ChargeHandler:  chargeHandler,
		InvoiceHandler: invoiceHandler,
		PaymentHandler: paymentHandler,
		CardRepo:       cardRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
