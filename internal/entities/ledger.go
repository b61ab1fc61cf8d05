package entities

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for amounts.
const MoneyPlaces = 2

// RoundMoney rounds an amount to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SumPayments adds up payment amounts.
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return RoundMoney(total)
}

// RecomputeBalance returns the remaining amount for a transaction of the given
// amount after totalPaid has been paid, floored at zero, and whether that
// balance closes the transaction.
func RecomputeBalance(amount, totalPaid decimal.Decimal) (decimal.Decimal, bool) {
	remaining := RoundMoney(amount.Sub(totalPaid))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining, remaining.IsZero()
}

// ApplyBalance recomputes RemainingAmount and Status from totalPaid.
// Status is closed exactly when the remaining amount is zero.
func (t *DebtTransaction) ApplyBalance(totalPaid decimal.Decimal) {
	remaining, closed := RecomputeBalance(t.Amount, totalPaid)
	t.RemainingAmount = remaining
	if closed {
		t.Status = StatusClosed
	} else {
		t.Status = StatusActive
	}
}
