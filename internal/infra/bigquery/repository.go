package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

const transactionsTable = "transactions"

// TransactionRepository is the persistence boundary for analysed transactions.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, row *TransactionRow) error
	GetMonthlyTransactions(ctx context.Context, year int, month int) ([]*TransactionRow, error)
	GetTransactionsByFilter(ctx context.Context, column, operator string, value any) ([]*TransactionRow, error)
	Close() error
}

// filterColumns and filterOperators bound GetTransactionsByFilter. Column and
// operator names are interpolated into SQL, so anything outside these sets is
// rejected before the query is built.
var filterColumns = map[string]bool{
	"txn_date":     true,
	"detail":       true,
	"account_name": true,
	"amount_inr":   true,
	"amount_usd":   true,
	"txn_type":     true,
	"category":     true,
}

var filterOperators = map[string]bool{
	"=":    true,
	"!=":   true,
	"<":    true,
	"<=":   true,
	">":    true,
	">=":   true,
	"LIKE": true,
}

// BigQueryTransactionRepository implements TransactionRepository over a shared
// BigQuery client.
type BigQueryTransactionRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryTransactionRepository creates a repository with its own client.
// Close must be called when the repository is no longer needed.
func NewBigQueryTransactionRepository(ctx context.Context, projectID, datasetID string) (*BigQueryTransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the shared BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertTransaction streams one row into the transactions table.
func (r *BigQueryTransactionRepository) InsertTransaction(ctx context.Context, row *TransactionRow) error {
	if row == nil {
		return nil
	}
	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// GetMonthlyTransactions returns all transactions within the given calendar
// month ordered by date.
func (r *BigQueryTransactionRepository) GetMonthlyTransactions(ctx context.Context, year int, month int) ([]*TransactionRow, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("GetMonthlyTransactions: month out of range: %d", month)
	}

	start := civil.Date{Year: year, Month: timeMonth(month), Day: 1}
	end := start.AddDays(daysIn(year, month) - 1)

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id, txn_date, detail, account_name,
			amount_inr, amount_usd, txn_type, category,
			source_text, created_ts
		FROM %s.%s
		WHERE txn_date >= @start_date AND txn_date <= @end_date
		ORDER BY txn_date, created_ts
	`, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start},
		{Name: "end_date", Value: end},
	}

	return r.readRows(ctx, q, "GetMonthlyTransactions")
}

// GetTransactionsByFilter returns transactions matching a single-column
// predicate. Column and operator must belong to the allowed sets; the value is
// always bound as a query parameter.
func (r *BigQueryTransactionRepository) GetTransactionsByFilter(ctx context.Context, column, operator string, value any) ([]*TransactionRow, error) {
	if err := ValidateFilter(column, operator); err != nil {
		return nil, fmt.Errorf("GetTransactionsByFilter: %w", err)
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id, txn_date, detail, account_name,
			amount_inr, amount_usd, txn_type, category,
			source_text, created_ts
		FROM %s.%s
		WHERE %s %s @value
		ORDER BY txn_date, created_ts
	`, r.datasetID, transactionsTable, column, operator))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "value", Value: value},
	}

	return r.readRows(ctx, q, "GetTransactionsByFilter")
}

// ValidateFilter reports whether a column/operator pair is allowed in filter
// queries.
func ValidateFilter(column, operator string) error {
	if !filterColumns[column] {
		return fmt.Errorf("column not allowed: %q", column)
	}
	if !filterOperators[operator] {
		return fmt.Errorf("operator not allowed: %q", operator)
	}
	return nil
}

func timeMonth(m int) time.Month {
	return time.Month(m)
}

// daysIn returns the number of days in the given calendar month.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (r *BigQueryTransactionRepository) readRows(ctx context.Context, q *bigquery.Query, op string) ([]*TransactionRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}
