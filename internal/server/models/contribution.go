package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContributionStatus is the ledger state of a contribution. Only
// StatusCompleted is reachable today.
type ContributionStatus string

const (
	StatusCompleted ContributionStatus = "completed"
)

// Contribution is one verified support payment. Rows are immutable once
// inserted; the gateway evidence is kept for audit.
type Contribution struct {
	ID                string
	RecipientUsername string
	RecipientEmail    string
	SupporterName     string
	Amount            decimal.Decimal
	Message           string
	GatewayOrderID    string
	GatewayPaymentID  string
	GatewaySignature  string
	Status            ContributionStatus
	CreatedAt         time.Time
	VerifiedAt        time.Time
}

// ParseAmount reads a stored amount leniently: anything unparseable counts
// as zero so one bad row cannot break aggregation.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Stats aggregates a recipient's ledger.
type Stats struct {
	TotalEarnings  decimal.Decimal
	SupporterCount int
	AverageSupport decimal.Decimal
}

// Order is a gateway payment intent. Amount is in minor currency units.
type Order struct {
	ID       string
	Currency string
	Amount   int64
	Receipt  string
	Status   string
}
