package ledger

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/store"
)

// minSearchLen is the shortest query that hits the store.
const minSearchLen = 3

// SearchResults holds the loans and land activities whose name matched a query.
type SearchResults struct {
	Loans      []*models.LoanTransaction `json:"loans"`
	Activities []*models.LandActivity    `json:"activities"`
}

// Search finds loans by counterparty and land activities by owner. Queries
// shorter than three characters return empty results without a store call.
func (l *Ledger) Search(ctx context.Context, query string) (SearchResults, error) {
	results := SearchResults{
		Loans:      []*models.LoanTransaction{},
		Activities: []*models.LandActivity{},
	}
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLen {
		return results, nil
	}

	loans, err := l.storage.ListLoans(ctx, store.ListOptions{Search: query, OrderByCreatedDesc: true})
	if err != nil {
		return results, l.transport("search loans", err)
	}
	acts, err := l.storage.ListActivities(ctx, store.ListOptions{Search: query, OrderByCreatedDesc: true})
	if err != nil {
		return results, l.transport("search land activities", err)
	}

	if loans != nil {
		results.Loans = loans
	}
	if acts != nil {
		results.Activities = acts
	}
	return results, nil
}
