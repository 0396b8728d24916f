package insight

import (
	"errors"
	"time"
)

// Domain errors
var (
	// ErrInsufficientData means the user does not yet have enough transaction
	// history to generate meaningful insights. Not a failure; callers report
	// it as "no insights yet".
	ErrInsufficientData = errors.New("not enough transaction data for insights")
)

// Insight kinds, in the order they are generated and returned
const (
	KindMonthlySpend       = "monthly_spend"
	KindMonthlyIncome      = "monthly_income"
	KindSavingsRate        = "savings_rate"
	KindTopCategory        = "top_category"
	KindTopMerchant        = "top_merchant"
	KindDailyAverage       = "daily_average_spend"
	KindLargestTransaction = "largest_transaction"
)

// Insight is a derived observation over a user's recent transactions
type Insight struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Detail      string    `json:"detail"`
	Value       float64   `json:"value"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	GeneratedAt time.Time `json:"generatedAt"`
}
