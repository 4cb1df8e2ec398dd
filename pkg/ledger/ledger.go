package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/ledgerbook/pkg/calc"
	"github.com/mcclellann/ledgerbook/pkg/metrics"
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/store"
	"github.com/shopspring/decimal"
)

// Ledger handles the business logic for loans and land activities.
// It holds no entity state of its own; every operation reads from and writes
// to the Storage. Concurrent edits are last-writer-wins.
type Ledger struct {
	storage store.Storage
	now     func() time.Time
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{
		storage: s,
		now:     time.Now,
	}
}

// SetClock replaces the clock used for "today".
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Now returns "today" according to the ledger's clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// transport logs a failed store call and wraps it.
func (l *Ledger) transport(op string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	log.Printf("Error during %s: %v", op, err)
	return &TransportError{Op: op, Err: err}
}

// LoanInput carries the user-editable fields of a loan.
type LoanInput struct {
	Kind             models.LoanKind `json:"kind"`
	CounterpartyName string          `json:"counterparty_name"`
	Principal        decimal.Decimal `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	OriginDate       time.Time       `json:"origin_date"`
	Remarks          string          `json:"remarks"`
}

func (in LoanInput) validate() error {
	if strings.TrimSpace(in.CounterpartyName) == "" {
		return &ValidationError{Field: "counterparty_name", Message: "is required"}
	}
	if !in.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("must be %q or %q", models.LoanKindGiven, models.LoanKindTaken)}
	}
	if in.Principal.IsNegative() {
		return &ValidationError{Field: "principal", Message: "must not be negative"}
	}
	if in.InterestRate.IsNegative() {
		return &ValidationError{Field: "interest_rate", Message: "must not be negative"}
	}
	if in.OriginDate.IsZero() {
		return &ValidationError{Field: "origin_date", Message: "is required"}
	}
	return nil
}

// CreateLoan records a new loan. It starts at its principal with no elapsed days.
func (l *Ledger) CreateLoan(ctx context.Context, in LoanInput) (*models.LoanTransaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	loan := &models.LoanTransaction{
		Kind:                      in.Kind,
		CounterpartyName:          in.CounterpartyName,
		Principal:                 in.Principal,
		AnnualInterestRatePercent: in.InterestRate,
		OriginDate:                calc.DateOf(in.OriginDate),
		CurrentAccruedAmount:      in.Principal,
		ElapsedDays:               0,
		Remarks:                   in.Remarks,
	}
	if err := l.storage.CreateLoan(ctx, loan); err != nil {
		return nil, l.transport("create loan", err)
	}
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanTransaction, error) {
	loan, err := l.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, l.transport("get loan", err)
	}
	return loan, nil
}

// ListLoans retrieves loans matching opts.
func (l *Ledger) ListLoans(ctx context.Context, opts store.ListOptions) ([]*models.LoanTransaction, error) {
	loans, err := l.storage.ListLoans(ctx, opts)
	if err != nil {
		return nil, l.transport("list loans", err)
	}
	return loans, nil
}

// UpdateLoan edits an open loan and re-derives its accrued amount as of today.
// Settled loans are frozen.
func (l *Ledger) UpdateLoan(ctx context.Context, id uuid.UUID, in LoanInput) (*models.LoanTransaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	loan, err := l.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, l.transport("get loan", err)
	}
	if loan.IsSettled {
		return nil, fmt.Errorf("update loan %s: %w", id, calc.ErrAlreadySettled)
	}

	loan.Kind = in.Kind
	loan.CounterpartyName = in.CounterpartyName
	loan.Principal = in.Principal
	loan.AnnualInterestRatePercent = in.InterestRate
	loan.OriginDate = calc.DateOf(in.OriginDate)
	loan.Remarks = in.Remarks
	if updated, err := calc.Recalculate(*loan, l.now()); err == nil {
		*loan = updated
	} else {
		// origin moved into the future; nothing has accrued yet
		loan.CurrentAccruedAmount = loan.Principal
		loan.ElapsedDays = 0
	}

	if err := l.storage.UpdateLoan(ctx, loan); err != nil {
		return nil, l.transport("update loan", err)
	}
	return loan, nil
}

// DeleteLoan deletes a loan.
func (l *Ledger) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	if err := l.storage.DeleteLoan(ctx, id); err != nil {
		return l.transport("delete loan", err)
	}
	return nil
}

// SettleLoan closes a loan at the agreed amount.
func (l *Ledger) SettleLoan(ctx context.Context, id uuid.UUID, amount decimal.Decimal, date time.Time, remarks string) (*models.LoanTransaction, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("settle loan %s with %s: %w", id, amount, calc.ErrInvalidAmount)
	}
	if date.IsZero() {
		date = l.now()
	}

	loan, err := l.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, l.transport("get loan", err)
	}
	settled, err := calc.Settle(*loan, amount, date, remarks)
	if err != nil {
		return nil, err
	}
	if err := l.storage.UpdateLoan(ctx, &settled); err != nil {
		return nil, l.transport("settle loan", err)
	}

	metrics.Settlements.WithLabelValues("loan").Inc()
	log.Printf("Settled loan %s with %s for %s", settled.ID, settled.CurrentAccruedAmount.StringFixed(2), settled.CounterpartyName)
	return &settled, nil
}

// RecalcReport summarises one recalculation run.
type RecalcReport struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"` // Settled, or not yet started
	Failed  int `json:"failed"`
}

// RecalculateLoans re-derives the accrued amount of every open loan as of ref
// and writes each one back in turn. A failed write is logged and counted and
// the run carries on; earlier writes are not rolled back.
func (l *Ledger) RecalculateLoans(ctx context.Context, ref time.Time) (RecalcReport, error) {
	loans, err := l.storage.ListLoans(ctx, store.ListOptions{})
	if err != nil {
		return RecalcReport{}, l.transport("list loans", err)
	}

	txs := make([]models.LoanTransaction, len(loans))
	for i, loan := range loans {
		txs[i] = *loan
	}

	var report RecalcReport
	refDate := calc.DateOf(ref)
	for tx := range calc.RecalculateAll(txs, ref) {
		if tx.IsSettled || calc.DateOf(tx.OriginDate).After(refDate) {
			report.Skipped++
			continue
		}
		if err := l.storage.UpdateLoan(ctx, &tx); err != nil {
			metrics.RecalcWriteFailures.Inc()
			log.Printf("Error updating loan %s during recalculation: %v", tx.ID, err)
			report.Failed++
			continue
		}
		metrics.LoansRecalculated.Inc()
		report.Updated++
	}

	metrics.LastRecalcLoans.Set(float64(report.Updated))
	log.Printf("Recalculated %d loans as of %s (%d skipped, %d failed)", report.Updated, refDate.Format(time.DateOnly), report.Skipped, report.Failed)
	return report, nil
}

// People returns a summary per counterparty, in order of first loan.
func (l *Ledger) People(ctx context.Context) ([]calc.LoanSummary, error) {
	loans, err := l.storage.ListLoans(ctx, store.ListOptions{})
	if err != nil {
		return nil, l.transport("list loans", err)
	}
	return calc.AggregateLoans(derefAll(loans)), nil
}

// Person returns the loan summary for one counterparty.
func (l *Ledger) Person(ctx context.Context, name string) (calc.LoanSummary, error) {
	loans, err := l.storage.ListLoans(ctx, store.ListOptions{Name: name})
	if err != nil {
		return calc.LoanSummary{}, l.transport("list loans", err)
	}
	summaries := calc.AggregateLoans(derefAll(loans))
	if len(summaries) == 0 {
		return calc.LoanSummary{}, fmt.Errorf("person %q: %w", name, store.ErrNotFound)
	}
	return summaries[0], nil
}

func derefAll[T any](ptrs []*T) []T {
	out := make([]T, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}
