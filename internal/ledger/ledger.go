package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source records how an expense entered the ledger
type Source string

const (
	SourceManual Source = "manual"
	SourceScan   Source = "scan"
)

// Expense is a single recorded amount on a calendar day
type Expense struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Source    Source          `json:"source"`
	StoreName string          `json:"storeName,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store defines the persistence port for expense records.
// Records are grouped per day under the key returned by Key.
type Store interface {
	// Get returns the expenses stored under key, or an empty slice
	Get(ctx context.Context, key string) ([]Expense, error)

	// Put replaces the expenses stored under key. An empty slice removes the key.
	Put(ctx context.Context, key string, expenses []Expense) error

	// Close releases the underlying connection
	Close() error
}

// Key builds the ledger key for a day. Month is 1-based and nothing is
// zero padded, so March 5th 2026 is "2026-3-5".
func Key(year, month, day int) string {
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

// Total sums the amounts of the given expenses
func Total(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}
