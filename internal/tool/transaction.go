package tool

import (
	"context"

	"github.com/vijay-kartik/iphonetoagent/internal/llm"
)

const (
	// ExpenseExtractorName identifies the extraction tool in the registry.
	ExpenseExtractorName = "expense_extractor"
	// TransactionValidatorName identifies the validation tool in the registry.
	TransactionValidatorName = "transaction-detail-validator"
)

// transactionFields is the shared parameter set for the transaction tools.
func transactionFields() map[string]*llm.Schema {
	return map[string]*llm.Schema{
		"date":         llm.String("Date on which the transaction is performed, in DD/MM/YYYY format"),
		"detail":       llm.String("Person or entity name the transaction is credited to or done for"),
		"amount_inr":   llm.Number("Amount of the transaction in INR"),
		"amount_usd":   llm.Number("Amount of the transaction in USD"),
		"type":         llm.StringEnum("Type of transaction", "INFLOW", "OUTFLOW", "CC_USAGE", "NONE"),
		"category":     llm.String("Category the transaction falls into, according to its type and the SMS text"),
		"account_name": llm.String("Name of the account the transaction is done in"),
	}
}

// ExpenseExtractor forces the model to commit to a structured tool call
// instead of free text: it echoes the candidate transaction fields back as a
// transaction-shaped result.
type ExpenseExtractor struct{}

func (ExpenseExtractor) Name() string { return ExpenseExtractorName }

func (ExpenseExtractor) Description() string {
	return "Tool for extracting transaction details from SMS text"
}

func (ExpenseExtractor) Parameters() *llm.Schema {
	return llm.Object(
		"Candidate transaction extracted from the SMS",
		transactionFields(),
		"date", "detail", "amount_inr", "amount_usd", "type",
	)
}

func (ExpenseExtractor) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(args))
	for k, v := range args {
		result[k] = v
	}
	return result, nil
}

// DateCheck decides whether an extracted date string is acceptable.
type DateCheck func(date string) bool

// DefaultDateCheck is the current (deliberately weak) policy: a DD/MM/YYYY
// date string is exactly 10 characters.
func DefaultDateCheck(date string) bool {
	return len(date) == 10
}

// TransactionValidator verifies extracted transaction details and reports a
// boolean verdict the model can react to. The date rule is pluggable.
type TransactionValidator struct {
	CheckDate DateCheck
}

// NewTransactionValidator creates a validator with the default date policy.
func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{CheckDate: DefaultDateCheck}
}

func (*TransactionValidator) Name() string { return TransactionValidatorName }

func (*TransactionValidator) Description() string {
	return "Tool for verifying that extracted details from a transaction sms are valid"
}

func (*TransactionValidator) Parameters() *llm.Schema {
	return llm.Object(
		"Extracted transaction details to validate",
		transactionFields(),
		"date", "detail", "amount_inr", "amount_usd", "type", "category",
	)
}

func (v *TransactionValidator) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	check := v.CheckDate
	if check == nil {
		check = DefaultDateCheck
	}

	date, _ := args["date"].(string)
	return map[string]any{"valid": check(date)}, nil
}
