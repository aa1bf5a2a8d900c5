package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/api/middleware"
	"github.com/vijay-kartik/iphonetoagent/internal/domain"
	bq "github.com/vijay-kartik/iphonetoagent/internal/infra/bigquery"
	"github.com/vijay-kartik/iphonetoagent/internal/jobs"
	"github.com/vijay-kartik/iphonetoagent/internal/notion"
)

// Analyser runs the LLM agents. Satisfied by agent.Factory.
type Analyser interface {
	AnalyseSMS(ctx context.Context, sms string) (domain.Transaction, error)
	MonthlySummary(ctx context.Context, table string) (string, error)
}

// Ingestor writes free-form and tabular content to the document workspace.
// Satisfied by notion.Ingestor.
type Ingestor interface {
	Ingest(ctx context.Context, title, content string) (*notion.IngestResult, error)
	TableIngest(ctx context.Context, pageTitle string, data map[string]string) (*notion.IngestResult, error)
}

// TransactionsHandler handles the SMS analysis endpoints.
type TransactionsHandler struct {
	analyser  Analyser
	repo      bq.TransactionRepository
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(analyser Analyser, repo bq.TransactionRepository, publisher jobs.Publisher, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		analyser:  analyser,
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// TxnSMS handles POST /api/txn-sms. The SMS text is analysed into a
// transaction, persisted, and queued for workspace sync. An SMS the agent
// cannot read as a transaction is reported as extracted=false without failing
// the request.
func (h *TransactionsHandler) TxnSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Content cannot be empty", "VALIDATION_ERROR")
		return
	}

	tx, err := h.analyser.AnalyseSMS(ctx, req.Content)
	if err != nil {
		h.log.Error().Err(err).Msg("SMS analysis failed")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to analyse SMS", "HANDLE_TXN_SMS_ERROR")
		return
	}

	if tx.IsFallback() {
		h.log.Warn().Str("content", req.Content).Msg("No transaction extracted from SMS")
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "success",
			"extracted": false,
			"message":   "No transaction could be extracted from the SMS",
		})
		return
	}

	row, err := bq.NewTransactionRow(tx, req.Content, h.now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build transaction row")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to persist transaction", "HANDLE_TXN_SMS_ERROR")
		return
	}

	if err := h.repo.InsertTransaction(ctx, row); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert transaction")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to persist transaction", "HANDLE_TXN_SMS_ERROR")
		return
	}

	// Workspace sync is best-effort: a queue failure is logged, not returned
	job := &jobs.SyncTransactionJob{
		Transaction: tx,
		SourceText:  req.Content,
	}
	if err := h.publisher.PublishSyncTransaction(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue workspace sync")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"extracted":   true,
		"transaction": tx,
		"job_id":      job.JobID,
	})
}

// TxnAnalysis handles POST /api/txn-analysis. Stored transactions for the
// current month are summarised by the monthly analysis agent.
func (h *TransactionsHandler) TxnAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	rows, err := h.repo.GetMonthlyTransactions(ctx, now.Year(), int(now.Month()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query monthly transactions")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to load transactions", "ANALYSE_TXN_ERROR")
		return
	}

	if len(rows) == 0 {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "success",
			"analysis": "No transactions recorded this month.",
		})
		return
	}

	summary, err := h.analyser.MonthlySummary(ctx, RenderTable(rows))
	if err != nil {
		h.log.Error().Err(err).Msg("Monthly analysis failed")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to analyse transactions", "ANALYSE_TXN_ERROR")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"analysis": summary,
	})
}

// ListTransactions handles GET /api/transactions. With column/operator/value
// query parameters it returns matching transactions, otherwise the current
// month's.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	column := query.Get("column")
	operator := query.Get("operator")
	value := query.Get("value")

	var rows []*bq.TransactionRow
	var err error

	if column != "" || operator != "" || value != "" {
		if column == "" || operator == "" || value == "" {
			middleware.WriteErrorCode(w, http.StatusBadRequest, "column, operator and value are all required for filtering", "VALIDATION_ERROR")
			return
		}
		if ferr := bq.ValidateFilter(column, operator); ferr != nil {
			middleware.WriteErrorCode(w, http.StatusBadRequest, ferr.Error(), "VALIDATION_ERROR")
			return
		}
		rows, err = h.repo.GetTransactionsByFilter(ctx, column, operator, value)
	} else {
		now := h.now()
		rows, err = h.repo.GetMonthlyTransactions(ctx, now.Year(), int(now.Month()))
	}

	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	transactions := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.Transaction())
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// RenderTable flattens transaction rows into a markdown table for the
// analysis prompt.
func RenderTable(rows []*bq.TransactionRow) string {
	var b strings.Builder
	b.WriteString("| date | detail | amount_inr | amount_usd | type | category | account |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, row := range rows {
		tx := row.Transaction()
		fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %s | %s | %s |\n",
			tx.Date, tx.Detail, tx.AmountINR, tx.AmountUSD, tx.Type, tx.Category, tx.AccountName)
	}
	return b.String()
}

// IngestHandler handles the document workspace ingestion endpoints.
type IngestHandler struct {
	ingestor Ingestor
	log      zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingestor Ingestor, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		ingestor: ingestor,
		log:      log,
	}
}

// Ingest handles POST /api/ingest. Content is appended to the page with the
// given title, or a new page is created.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Title and content are required", "VALIDATION_ERROR")
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), req.Title, req.Content)
	if err != nil {
		h.log.Error().Err(err).Str("title", req.Title).Msg("Ingest failed")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to process ingest request", "INTERNAL_ERROR")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "success",
		"notion_page_id": result.PageID,
		"message":        result.Message,
		"action":         result.Action,
	})
}

// TableIngest handles POST /api/table-ingest. One row of key/value data is
// appended to the table in the page with the given title.
func (h *IngestHandler) TableIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageTitle string            `json:"page_title"`
		TableData map[string]string `json:"table_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
		return
	}

	switch {
	case strings.TrimSpace(req.PageTitle) == "":
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Page title cannot be empty", "VALIDATION_ERROR")
		return
	case len(req.TableData) == 0:
		middleware.WriteErrorCode(w, http.StatusBadRequest, "Table data cannot be empty", "VALIDATION_ERROR")
		return
	}
	for _, v := range req.TableData {
		if strings.TrimSpace(v) == "" {
			middleware.WriteErrorCode(w, http.StatusBadRequest, "Table data values cannot be empty", "VALIDATION_ERROR")
			return
		}
	}

	result, err := h.ingestor.TableIngest(r.Context(), req.PageTitle, req.TableData)
	if err != nil {
		h.log.Error().Err(err).Str("page_title", req.PageTitle).Msg("Table ingest failed")
		middleware.WriteErrorCode(w, http.StatusInternalServerError, "Failed to process table request", "TABLE_INGEST_ERROR")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "success",
		"notion_page_id": result.PageID,
		"message":        result.Message,
		"action":         result.Action,
	})
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// Health handles GET /api/health
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UnixMilli(),
	})
}
