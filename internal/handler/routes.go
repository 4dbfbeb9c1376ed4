package handler

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/pkg/response"
)

// SetupRoutes builds the HTTP router
func SetupRoutes(ledger *LedgerHandler, health *HealthHandler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/health/ready", health.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/capital", ledger.GetCapital).Methods("GET")
	api.HandleFunc("/capital", ledger.SetCapital).Methods("PUT")
	api.HandleFunc("/capital/adjust", ledger.AdjustCapital).Methods("POST")
	api.HandleFunc("/capital/movements", ledger.ListMovements).Methods("GET")

	api.HandleFunc("/clients", ledger.CreateClient).Methods("POST")
	api.HandleFunc("/clients", ledger.ListClients).Methods("GET")
	api.HandleFunc("/clients/{clientId}", ledger.GetClient).Methods("GET")
	api.HandleFunc("/clients/{clientId}", ledger.UpdateClient).Methods("PUT")
	api.HandleFunc("/clients/{clientId}", ledger.DeleteClient).Methods("DELETE")

	api.HandleFunc("/loans", ledger.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", ledger.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", ledger.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}", ledger.DeleteLoan).Methods("DELETE")
	api.HandleFunc("/loans/{loanId}/status", ledger.SetLoanStatus).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/payments", ledger.ListPayments).Methods("GET")

	api.HandleFunc("/payments", ledger.MakePayment).Methods("POST")
	api.HandleFunc("/maintenance/repair-schedules", ledger.RepairSchedules).Methods("POST")
	api.HandleFunc("/dashboard", ledger.Dashboard).Methods("GET")

	return router
}
