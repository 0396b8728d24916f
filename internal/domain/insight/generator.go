package insight

import (
	"fmt"
	"sort"
	"time"

	"ledgerlink/internal/domain/transaction"
)

// windowDays is the lookback window insights are computed over
const windowDays = 30

// Generate derives insights from a user's transactions over the last 30 days.
// Pending transactions are excluded since their amounts can still change.
// Returns ErrInsufficientData when fewer than minTransactions settled
// transactions exist in total.
//
// Output order is fixed and ties are broken alphabetically, so the same
// input always yields the same insights.
func Generate(userID int64, txs []*transaction.Transaction, minTransactions int, now time.Time) ([]Insight, error) {
	var settled []*transaction.Transaction
	for _, tx := range txs {
		if !tx.Pending {
			settled = append(settled, tx)
		}
	}

	if len(settled) < minTransactions {
		return nil, ErrInsufficientData
	}

	periodEnd := now
	periodStart := now.AddDate(0, 0, -windowDays)

	var window []*transaction.Transaction
	for _, tx := range settled {
		if tx.PostedDate.Before(periodStart) || tx.PostedDate.After(periodEnd) {
			continue
		}
		window = append(window, tx)
	}

	base := Insight{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		GeneratedAt: now,
	}

	var (
		spend, income float64
		byCategory    = map[string]float64{}
		byMerchant    = map[string]float64{}
		largest       *transaction.Transaction
	)
	for _, tx := range window {
		if tx.Amount > 0 {
			spend += tx.Amount
			if tx.Category != "" {
				byCategory[tx.Category] += tx.Amount
			}
			if tx.MerchantName != "" {
				byMerchant[tx.MerchantName] += tx.Amount
			}
			if largest == nil || tx.Amount > largest.Amount {
				largest = tx
			}
		} else {
			income += -tx.Amount
		}
	}

	var insights []Insight

	add := func(kind, title, detail string, value float64) {
		in := base
		in.Kind = kind
		in.Title = title
		in.Detail = detail
		in.Value = value
		insights = append(insights, in)
	}

	add(KindMonthlySpend, "Spending this month",
		fmt.Sprintf("You spent %.2f over the last %d days", spend, windowDays), spend)

	add(KindMonthlyIncome, "Income this month",
		fmt.Sprintf("You received %.2f over the last %d days", income, windowDays), income)

	if income > 0 {
		rate := (income - spend) / income * 100
		add(KindSavingsRate, "Savings rate",
			fmt.Sprintf("You kept %.1f%% of your income", rate), rate)
	}

	if name, total, ok := topEntry(byCategory); ok {
		add(KindTopCategory, "Top spending category",
			fmt.Sprintf("%s accounts for %.2f of your spending", name, total), total)
	}

	if name, total, ok := topEntry(byMerchant); ok {
		add(KindTopMerchant, "Top merchant",
			fmt.Sprintf("You spent %.2f at %s", total, name), total)
	}

	add(KindDailyAverage, "Daily average spend",
		fmt.Sprintf("You spend %.2f per day on average", spend/windowDays), spend/windowDays)

	if largest != nil {
		add(KindLargestTransaction, "Largest purchase",
			fmt.Sprintf("%s for %.2f on %s", largest.Description, largest.Amount,
				largest.PostedDate.Format("Jan 2")), largest.Amount)
	}

	return insights, nil
}

// topEntry returns the key with the highest total, breaking ties by name
func topEntry(totals map[string]float64) (string, float64, bool) {
	if len(totals) == 0 {
		return "", 0, false
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if totals[name] > totals[best] {
			best = name
		}
	}
	return best, totals[best], true
}
