package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User management
	r.HandleFunc("/api/user/current", requireUser(deps.UserHandler.CurrentUser)).Methods("GET")
	r.HandleFunc("/api/user/current", requireUser(deps.UserHandler.UpdateUser)).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/{userUid}", requireUser(deps.UserHandler.DeleteUser)).Methods("DELETE")

	// Time entries
	r.HandleFunc("/api/entry", requireUser(deps.TimeEntryHandler.GetEntries)).Methods("GET")
	r.HandleFunc("/api/entry", requireUser(deps.TimeEntryHandler.CreateEntry)).Methods("POST")
	r.HandleFunc("/api/entry/{entryUid}", requireUser(deps.TimeEntryHandler.UpdateEntry)).Methods("PUT")
	r.HandleFunc("/api/entry/{entryUid}", requireUser(deps.TimeEntryHandler.DeleteEntry)).Methods("DELETE")

	// Minijob limits
	r.HandleFunc("/api/limit", requireUser(deps.LimitHandler.ListLimits)).Methods("GET")
	r.HandleFunc("/api/limit", requireUser(deps.LimitHandler.CreateLimit)).Methods("POST")
	r.HandleFunc("/api/limit/{limitId}", requireUser(deps.LimitHandler.DeleteLimit)).Methods("DELETE")

	// Billing periods
	r.HandleFunc("/api/period", requireUser(deps.PeriodHandler.ListPeriods)).Methods("GET")

	// Ledger
	r.HandleFunc("/api/ledger", requireUser(deps.LedgerHandler.GetEntry)).Methods("GET")
	r.HandleFunc("/api/ledger/history", requireUser(deps.LedgerHandler.GetHistory)).Methods("GET")
}
