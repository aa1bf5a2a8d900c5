package domain

import (
	"math"
	"time"
)

// TransactionType classifies the direction of a transaction extracted from an
// SMS. NONE means the model could not classify the message.
type TransactionType string

const (
	TypeInflow  TransactionType = "INFLOW"
	TypeOutflow TransactionType = "OUTFLOW"
	TypeCCUsage TransactionType = "CC_USAGE"
	TypeNone    TransactionType = "NONE"
)

// ParseTransactionType maps a model-produced string onto the closed type set.
// Anything unrecognized becomes NONE.
func ParseTransactionType(value string) TransactionType {
	switch value {
	case "INFLOW":
		return TypeInflow
	case "OUTFLOW":
		return TypeOutflow
	case "CC_USAGE":
		return TypeCCUsage
	default:
		return TypeNone
	}
}

// Category is the controlled spending/income vocabulary. Which values are
// valid depends on the transaction type; see CategoriesFor.
type Category string

const (
	CategoryFood           Category = "Food"
	CategoryClothing       Category = "Clothing"
	CategoryFlights        Category = "Flights"
	CategoryTransportation Category = "Transportation"
	CategoryMiscellaneous  Category = "Miscellaneous"
	CategorySalary         Category = "Salary"
	CategoryDividend       Category = "Dividend"
	CategoryTransfer       Category = "Transfer"
)

// expenseCategories and incomeCategories are the per-type vocabularies the
// model is constrained to. CC_USAGE and NONE always map to Miscellaneous.
var (
	expenseCategories = []Category{
		CategoryFood, CategoryClothing, CategoryFlights,
		CategoryTransportation, CategoryMiscellaneous,
	}
	incomeCategories = []Category{
		CategorySalary, CategoryDividend, CategoryTransfer,
	}
)

// CategoriesFor returns the allowed category vocabulary for a transaction type.
func CategoriesFor(t TransactionType) []Category {
	switch t {
	case TypeOutflow:
		return expenseCategories
	case TypeInflow:
		return incomeCategories
	default:
		return []Category{CategoryMiscellaneous}
	}
}

// NormalizeCategory constrains a model-produced category string to the
// vocabulary valid for the given type. Out-of-vocabulary values are coerced
// to Miscellaneous rather than propagated.
func NormalizeCategory(t TransactionType, raw string) Category {
	for _, c := range CategoriesFor(t) {
		if string(c) == raw {
			return c
		}
	}
	return CategoryMiscellaneous
}

// DateFormat is the canonical transaction date layout (DD/MM/YYYY).
const DateFormat = "02/01/2006"

// Transaction is the structured output of the SMS analysis agent. JSON field
// names match the schema the model is asked to produce.
type Transaction struct {
	Date        string          `json:"date"`
	Detail      string          `json:"detail"`
	AmountINR   float64         `json:"amount_inr"`
	AmountUSD   float64         `json:"amount_usd"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category"`
	AccountName string          `json:"account_name"`
}

// FallbackTransaction is the well-known sentinel returned when structured
// extraction fails. NaN amounts mark the record as unusable content while
// still being a well-formed value.
func FallbackTransaction() Transaction {
	return Transaction{
		Date:      "",
		Detail:    "",
		AmountINR: math.NaN(),
		AmountUSD: math.NaN(),
		Type:      TypeInflow,
		Category:  CategoryMiscellaneous,
	}
}

// InvalidTransaction is the sentinel for an explicit negative validation
// outcome. Currently produced only by the reserved invalid-result path.
func InvalidTransaction() Transaction {
	return Transaction{
		Date:     "INVALID",
		Detail:   "VALIDATION_FAILED",
		Type:     TypeNone,
		Category: CategoryMiscellaneous,
	}
}

// IsFallback reports whether t is the extraction-failure sentinel.
func (t Transaction) IsFallback() bool {
	return math.IsNaN(t.AmountINR) && math.IsNaN(t.AmountUSD)
}

// Normalize enforces the domain invariants on a model-produced transaction:
// the type is constrained to the closed set, the category to the vocabulary
// for that type, and a missing date defaults to now in DD/MM/YYYY.
func (t Transaction) Normalize(now time.Time) Transaction {
	t.Type = ParseTransactionType(string(t.Type))
	t.Category = NormalizeCategory(t.Type, string(t.Category))
	if t.Date == "" {
		t.Date = now.Format(DateFormat)
	}
	return t
}
