// Package fees derives end dates, installment plans and balances from enrollment data.
// Every function is pure.
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentCount is the number of installments an installment plan is split into.
const InstallmentCount = 3

var installments = decimal.NewFromInt(InstallmentCount)

// Installment is one entry of a payment schedule.
type Installment struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// CalculateEndDate advances start by durationMonths calendar months. Dates are calendar
// values: the clock and zone of start are dropped and the result is UTC midnight. When the
// target month is shorter than the start day the date clamps to its last day.
func CalculateEndDate(start time.Time, durationMonths int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, durationMonths, 0)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// CalculateInstallmentAmount returns ceil(total/3) in whole currency units.
func CalculateInstallmentAmount(total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return total.Div(installments).Ceil()
}

// Schedule splits total into three installments due at start and the two following months.
// Fixed course amounts are honoured when both are set and fit within total; otherwise the
// equal split is used and the last installment absorbs the rounding remainder. Amounts
// always sum to total (zero for a non-positive total).
func Schedule(total, first, second decimal.Decimal, start time.Time) []Installment {
	var amounts [InstallmentCount]decimal.Decimal
	if first.IsPositive() && second.IsPositive() && first.Add(second).LessThanOrEqual(total) {
		amounts = [InstallmentCount]decimal.Decimal{first, second, total.Sub(first).Sub(second)}
	} else {
		// each installment is capped at what is still owed, so tiny totals front-load
		v := CalculateInstallmentAmount(total)
		remaining := decimal.Max(total, decimal.Zero)
		for i := 0; i < InstallmentCount-1; i++ {
			amounts[i] = decimal.Min(v, remaining)
			remaining = remaining.Sub(amounts[i])
		}
		amounts[InstallmentCount-1] = remaining
	}

	out := make([]Installment, InstallmentCount)
	for i := range amounts {
		out[i] = Installment{
			Number:  i + 1,
			Amount:  amounts[i],
			DueDate: CalculateEndDate(start, i),
		}
	}
	return out
}

// ComputePaidAmount sums payment amounts. A nil or empty slice is zero.
func ComputePaidAmount(amounts []decimal.Decimal) decimal.Decimal {
	paid := decimal.Zero
	for _, a := range amounts {
		paid = paid.Add(a)
	}
	return paid
}

// ComputeBalance is total minus paid. Overpayment yields a negative balance.
func ComputeBalance(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
