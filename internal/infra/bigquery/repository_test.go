package bigquery

import (
	"testing"
	"time"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
)

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name     string
		column   string
		operator string
		wantErr  bool
	}{
		{name: "category equals", column: "category", operator: "=", wantErr: false},
		{name: "amount greater", column: "amount_inr", operator: ">", wantErr: false},
		{name: "detail like", column: "detail", operator: "LIKE", wantErr: false},
		{name: "unknown column", column: "password", operator: "=", wantErr: true},
		{name: "injection in column", column: "category; DROP TABLE", operator: "=", wantErr: true},
		{name: "unknown operator", column: "category", operator: "IN", wantErr: true},
		{name: "injection in operator", column: "category", operator: "= 1 OR 1", wantErr: true},
		{name: "empty column", column: "", operator: "=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilter(tt.column, tt.operator)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilter(%q, %q) error = %v, wantErr %v", tt.column, tt.operator, err, tt.wantErr)
			}
		})
	}
}

func TestNewTransactionRow(t *testing.T) {
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		Date:        "05/03/2024",
		Detail:      "ABC Store",
		AmountINR:   450,
		AmountUSD:   5.4,
		Type:        domain.TypeOutflow,
		Category:    domain.CategoryFood,
		AccountName: "HDFC card",
	}

	row, err := NewTransactionRow(tx, "raw sms text", now)
	if err != nil {
		t.Fatalf("NewTransactionRow() error = %v", err)
	}

	if row.TransactionID == "" {
		t.Error("TransactionID is empty")
	}
	if got := row.TxnDate.String(); got != "2024-03-05" {
		t.Errorf("TxnDate = %q, want 2024-03-05", got)
	}
	if row.TxnType != "OUTFLOW" {
		t.Errorf("TxnType = %q, want OUTFLOW", row.TxnType)
	}
	if row.SourceText != "raw sms text" {
		t.Errorf("SourceText = %q", row.SourceText)
	}
	if !row.CreatedTS.Equal(now) {
		t.Errorf("CreatedTS = %v, want %v", row.CreatedTS, now)
	}
}

func TestNewTransactionRow_BadDate(t *testing.T) {
	tx := domain.Transaction{Date: "2024-03-05"} // ISO form is not accepted
	if _, err := NewTransactionRow(tx, "", time.Now()); err == nil {
		t.Error("NewTransactionRow() expected error for non DD/MM/YYYY date")
	}
}

func TestTransactionRowRoundTrip(t *testing.T) {
	tx := domain.Transaction{
		Date:        "15/01/2025",
		Detail:      "Salary credit",
		AmountINR:   250000,
		AmountUSD:   3000,
		Type:        domain.TypeInflow,
		Category:    domain.CategoryMiscellaneous,
		AccountName: "ICICI savings",
	}

	row, err := NewTransactionRow(tx, "", time.Now())
	if err != nil {
		t.Fatalf("NewTransactionRow() error = %v", err)
	}

	got := row.Transaction()
	if got != tx {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tx)
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2025, 2, 28},
		{2025, 1, 31},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		if got := daysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("daysIn(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}
