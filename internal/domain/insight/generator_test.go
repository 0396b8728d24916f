package insight

import (
	"errors"
	"testing"
	"time"

	"ledgerlink/internal/domain/transaction"
)

var now = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func tx(amount float64, daysAgo int, desc, category, merchant string) *transaction.Transaction {
	return &transaction.Transaction{
		Amount:       amount,
		Description:  desc,
		Category:     category,
		MerchantName: merchant,
		PostedDate:   now.AddDate(0, 0, -daysAgo),
	}
}

func sampleTransactions() []*transaction.Transaction {
	return []*transaction.Transaction{
		tx(50.00, 1, "Groceries", "Groceries", "Wholefoods"),
		tx(30.00, 2, "Groceries", "Groceries", "Wholefoods"),
		tx(12.50, 3, "Coffee", "Coffee Shop", "Blue Bottle"),
		tx(200.00, 5, "New shoes", "Shopping", "Nike"),
		tx(-2000.00, 10, "Payroll", "", ""),
		tx(15.00, 12, "Lunch", "Restaurants", "Chipotle"),
		tx(80.00, 15, "Utilities", "Utilities", ""),
		tx(9.99, 20, "Streaming", "Entertainment", "Netflix"),
		tx(45.00, 25, "Gas", "Gas", "Shell"),
		tx(22.00, 28, "Dinner", "Restaurants", "Chipotle"),
	}
}

func findKind(t *testing.T, insights []Insight, kind string) Insight {
	t.Helper()
	for _, in := range insights {
		if in.Kind == kind {
			return in
		}
	}
	t.Fatalf("no insight of kind %q in %v", kind, insights)
	return Insight{}
}

func TestGenerate_InsufficientData(t *testing.T) {
	txs := sampleTransactions()[:3]

	_, err := Generate(1, txs, 10, now)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData", err)
	}
}

func TestGenerate_PendingExcludedFromMinimum(t *testing.T) {
	txs := sampleTransactions()[:5]
	for i := 0; i < 5; i++ {
		p := tx(10, 1, "Pending", "", "")
		p.Pending = true
		txs = append(txs, p)
	}

	_, err := Generate(1, txs, 10, now)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData (pending should not count)", err)
	}
}

func TestGenerate_SpendAndIncome(t *testing.T) {
	insights, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	spend := findKind(t, insights, KindMonthlySpend)
	if diff := spend.Value - 464.49; diff > 0.01 || diff < -0.01 {
		t.Errorf("monthly spend = %.2f, want 464.49", spend.Value)
	}

	income := findKind(t, insights, KindMonthlyIncome)
	if income.Value != 2000.00 {
		t.Errorf("monthly income = %.2f, want 2000.00", income.Value)
	}
}

func TestGenerate_SavingsRate(t *testing.T) {
	insights, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	rate := findKind(t, insights, KindSavingsRate)
	want := (2000.00 - 464.49) / 2000.00 * 100
	if diff := rate.Value - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("savings rate = %.2f, want %.2f", rate.Value, want)
	}
}

func TestGenerate_NoIncomeSkipsSavingsRate(t *testing.T) {
	var txs []*transaction.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, tx(10, i+1, "Spend", "Misc", ""))
	}

	insights, err := Generate(1, txs, 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	for _, in := range insights {
		if in.Kind == KindSavingsRate {
			t.Error("savings rate generated with zero income")
		}
	}
}

func TestGenerate_TopCategoryAndMerchant(t *testing.T) {
	insights, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	top := findKind(t, insights, KindTopCategory)
	// Shopping: 200.00 beats Groceries: 80.00
	if top.Value != 200.00 {
		t.Errorf("top category value = %.2f, want 200.00", top.Value)
	}

	merchant := findKind(t, insights, KindTopMerchant)
	if merchant.Value != 200.00 {
		t.Errorf("top merchant value = %.2f, want 200.00", merchant.Value)
	}
}

func TestGenerate_LargestTransaction(t *testing.T) {
	insights, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	largest := findKind(t, insights, KindLargestTransaction)
	if largest.Value != 200.00 {
		t.Errorf("largest transaction = %.2f, want 200.00", largest.Value)
	}
}

func TestGenerate_OldTransactionsOutsideWindow(t *testing.T) {
	txs := sampleTransactions()
	txs = append(txs, tx(9999.00, 60, "Old purchase", "Shopping", "Nike"))

	insights, err := Generate(1, txs, 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	largest := findKind(t, insights, KindLargestTransaction)
	if largest.Value == 9999.00 {
		t.Error("transaction outside the 30-day window included in insights")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	b, err := Generate(1, sampleTransactions(), 10, now)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("insight %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestTopEntry_TieBrokenAlphabetically(t *testing.T) {
	name, total, ok := topEntry(map[string]float64{
		"Zeta":  50,
		"Alpha": 50,
	})
	if !ok {
		t.Fatal("topEntry() returned not ok")
	}
	if name != "Alpha" || total != 50 {
		t.Errorf("topEntry() = (%q, %.2f), want (Alpha, 50.00)", name, total)
	}
}
