package calc

import (
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/shopspring/decimal"
)

// LoanSummary totals the loans recorded against one counterparty.
type LoanSummary struct {
	Name         string                   `json:"name"`
	TotalGiven   decimal.Decimal          `json:"total_given"`
	TotalTaken   decimal.Decimal          `json:"total_taken"`
	CurrentGiven decimal.Decimal          `json:"current_given"`
	CurrentTaken decimal.Decimal          `json:"current_taken"`
	Transactions []models.LoanTransaction `json:"transactions"`
}

// Net is what the counterparty owes on principal: given minus taken.
func (s LoanSummary) Net() decimal.Decimal {
	return s.TotalGiven.Sub(s.TotalTaken)
}

// CurrentNet is Net computed over the accrued amounts.
func (s LoanSummary) CurrentNet() decimal.Decimal {
	return s.CurrentGiven.Sub(s.CurrentTaken)
}

// ActivityGroup totals the land activities recorded for one owner.
type ActivityGroup struct {
	Name        string                `json:"name"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Activities  []models.LandActivity `json:"activities"`
}

// groupByName buckets items by key. Names are compared exactly, so "Ravi" and
// "ravi" are different groups. Groups come back in order of first occurrence
// and members keep their input order.
func groupByName[T any](items []T, key func(T) string) (names []string, members map[string][]T) {
	members = make(map[string][]T)
	for _, item := range items {
		name := key(item)
		if _, seen := members[name]; !seen {
			names = append(names, name)
		}
		members[name] = append(members[name], item)
	}
	return names, members
}

// AggregateLoans groups loans by counterparty name.
func AggregateLoans(txs []models.LoanTransaction) []LoanSummary {
	names, members := groupByName(txs, func(tx models.LoanTransaction) string { return tx.CounterpartyName })

	summaries := make([]LoanSummary, 0, len(names))
	for _, name := range names {
		s := LoanSummary{
			Name:         name,
			TotalGiven:   decimal.Zero,
			TotalTaken:   decimal.Zero,
			CurrentGiven: decimal.Zero,
			CurrentTaken: decimal.Zero,
			Transactions: members[name],
		}
		for _, tx := range members[name] {
			switch tx.Kind {
			case models.LoanKindGiven:
				s.TotalGiven = s.TotalGiven.Add(tx.Principal)
				s.CurrentGiven = s.CurrentGiven.Add(tx.CurrentAccruedAmount)
			case models.LoanKindTaken:
				s.TotalTaken = s.TotalTaken.Add(tx.Principal)
				s.CurrentTaken = s.CurrentTaken.Add(tx.CurrentAccruedAmount)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// AggregateActivities groups land activities by owner name.
func AggregateActivities(acts []models.LandActivity) []ActivityGroup {
	names, members := groupByName(acts, func(a models.LandActivity) string { return a.OwnerName })

	groups := make([]ActivityGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, ActivityGroup{
			Name:        name,
			TotalAmount: GroupTotal(members[name]),
			Activities:  members[name],
		})
	}
	return groups
}
