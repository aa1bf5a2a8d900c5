package handlers

import (
	"net/http"
	"strings"

	"github.com/vijay-kartik/iphonetoagent/internal/api/middleware"
)

// NewRouter assembles the API routes over the given handlers.
func NewRouter(txns *TransactionsHandler, ingest *IngestHandler, jobsHandler *JobsHandler) http.Handler {
	mux := http.NewServeMux()

	post := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("/api/txn-sms", post(txns.TxnSMS))
	mux.HandleFunc("/api/txn-analysis", post(txns.TxnAnalysis))
	mux.HandleFunc("/api/ingest", post(ingest.Ingest))
	mux.HandleFunc("/api/table-ingest", post(ingest.TableIngest))

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		txns.ListTransactions(w, r)
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		Health(w, r)
	})

	return mux
}
