package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	httphandlers "fatura/internal/interfaces/http"
	"fatura/internal/shared/config"
	"fatura/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("/health", httphandlers.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Protected routes
	identity := middleware.Identity

	mux.Handle("/api/cards/{id}/charges", identity(http.HandlerFunc(deps.ChargeHandler.HandleCharge)))
	mux.Handle("/api/cards/{id}/invoices", identity(http.HandlerFunc(deps.InvoiceHandler.HandleListInvoices)))
	mux.Handle("/api/invoices/{id}/pay", identity(http.HandlerFunc(deps.PaymentHandler.HandlePayInvoice)))
	mux.Handle("/api/invoices/pay", identity(http.HandlerFunc(deps.PaymentHandler.HandlePayByReference)))
	mux.Handle("/api/installment-groups/{id}", identity(http.HandlerFunc(deps.ChargeHandler.HandleUpdatePlan)))

	// Apply global middleware
	handler := middleware.Logging(middleware.Tracing(middleware.Telemetry(middleware.CORS(cfg.Server.AllowedHosts)(mux))))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
