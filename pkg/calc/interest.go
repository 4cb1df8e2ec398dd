package calc

import (
	"fmt"
	"iter"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/shopspring/decimal"
)

const amountPlaces = 2

var (
	hundred      = decimal.NewFromInt(100)
	daysPerMonth = decimal.NewFromInt(30)
	monthsInYear = decimal.NewFromInt(12)
)

// AccruedAmount returns principal plus interest as of ref, rounded to two places.
//
// The rate is applied per month: each whole year earns rate*12 percent, each
// whole month earns rate percent and each remaining day earns rate/30 percent
// of the principal. Nothing compounds.
func AccruedAmount(tx models.LoanTransaction, ref time.Time) (decimal.Decimal, error) {
	if tx.IsSettled {
		return decimal.Zero, fmt.Errorf("accrue loan %s: %w", tx.ID, ErrAlreadySettled)
	}
	elapsed, err := ElapsedCalendarComponents(tx.OriginDate, ref)
	if err != nil {
		return decimal.Zero, err
	}

	p := tx.Principal
	rate := tx.AnnualInterestRatePercent

	dayInterest := p.Mul(rate.Div(daysPerMonth).Div(hundred)).Mul(decimal.NewFromInt(int64(elapsed.Days)))
	monthInterest := p.Mul(rate.Div(hundred)).Mul(decimal.NewFromInt(int64(elapsed.Months)))
	yearInterest := p.Mul(rate.Mul(monthsInYear).Div(hundred)).Mul(decimal.NewFromInt(int64(elapsed.Years)))

	return p.Add(dayInterest).Add(monthInterest).Add(yearInterest).Round(amountPlaces), nil
}

// Recalculate returns tx with CurrentAccruedAmount and ElapsedDays refreshed as of ref.
func Recalculate(tx models.LoanTransaction, ref time.Time) (models.LoanTransaction, error) {
	amount, err := AccruedAmount(tx, ref)
	if err != nil {
		return tx, err
	}
	tx.CurrentAccruedAmount = amount
	tx.ElapsedDays = ElapsedDays(tx.OriginDate, ref)
	return tx, nil
}

// RecalculateAll yields every transaction with accrued amounts refreshed as of ref.
// Settled transactions, and those that start after ref, are yielded unchanged.
// The sequence can be ranged over any number of times; the input is not modified.
func RecalculateAll(txs []models.LoanTransaction, ref time.Time) iter.Seq[models.LoanTransaction] {
	return func(yield func(models.LoanTransaction) bool) {
		for _, tx := range txs {
			if updated, err := Recalculate(tx, ref); err == nil {
				tx = updated
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Settle closes tx at the agreed amount. Settlement is all-or-nothing.
func Settle(tx models.LoanTransaction, amount decimal.Decimal, date time.Time, remarks string) (models.LoanTransaction, error) {
	if tx.IsSettled {
		return tx, fmt.Errorf("settle loan %s: %w", tx.ID, ErrAlreadySettled)
	}
	if amount.IsNegative() {
		return tx, fmt.Errorf("settle loan %s with %s: %w", tx.ID, amount, ErrInvalidAmount)
	}

	settledOn := DateOf(date)
	tx.IsSettled = true
	tx.CurrentAccruedAmount = amount.Round(amountPlaces)
	tx.SettledDate = &settledOn
	tx.SettlementRemarks = remarks
	return tx, nil
}
