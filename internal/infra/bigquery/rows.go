package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

// TransactionRow mirrors the finance.transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TxnDate civil.Date `bigquery:"txn_date"` // REQUIRED

	Detail      string `bigquery:"detail"`       // REQUIRED STRING
	AccountName string `bigquery:"account_name"` // NULLABLE STRING

	AmountINR float64 `bigquery:"amount_inr"` // REQUIRED FLOAT64
	AmountUSD float64 `bigquery:"amount_usd"` // REQUIRED FLOAT64

	TxnType  string `bigquery:"txn_type"` // REQUIRED STRING
	Category string `bigquery:"category"` // REQUIRED STRING

	SourceText string `bigquery:"source_text"` // NULLABLE STRING, raw SMS

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// NewTransactionRow builds an insertable row from an analysed transaction.
// The transaction date must already be normalized to DD/MM/YYYY.
func NewTransactionRow(tx domain.Transaction, sourceText string, now time.Time) (*TransactionRow, error) {
	parsed, err := time.Parse(domain.DateFormat, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRow: parsing date %q: %w", tx.Date, err)
	}

	return &TransactionRow{
		TransactionID: uuid.New().String(),
		TxnDate:       civil.DateOf(parsed),
		Detail:        tx.Detail,
		AccountName:   tx.AccountName,
		AmountINR:     tx.AmountINR,
		AmountUSD:     tx.AmountUSD,
		TxnType:       string(tx.Type),
		Category:      string(tx.Category),
		SourceText:    sourceText,
		CreatedTS:     now.UTC(),
	}, nil
}

// Transaction converts a stored row back to the domain representation.
func (r *TransactionRow) Transaction() domain.Transaction {
	return domain.Transaction{
		Date:        r.TxnDate.In(time.UTC).Format(domain.DateFormat),
		Detail:      r.Detail,
		AmountINR:   r.AmountINR,
		AmountUSD:   r.AmountUSD,
		Type:        domain.TransactionType(r.TxnType),
		Category:    domain.Category(r.Category),
		AccountName: r.AccountName,
	}
}
