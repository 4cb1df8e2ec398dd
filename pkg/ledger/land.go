package ledger

import (
	"context"
	"errors"
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
	"golang.org/x/sync/errgroup"
)

// ActivityInput carries the user-editable fields of a land activity.
type ActivityInput struct {
	OwnerName    string          `json:"owner_name"`
	LandName     string          `json:"land_name"`
	Description  string          `json:"activity_description"`
	ActivityDate time.Time       `json:"activity_date"`
	AreaInAcres  decimal.Decimal `json:"area_in_acres"`
	RatePerAcre  decimal.Decimal `json:"rate_per_acre"`
}

func (in ActivityInput) validate() error {
	if strings.TrimSpace(in.OwnerName) == "" {
		return &ValidationError{Field: "owner_name", Message: "is required"}
	}
	if strings.TrimSpace(in.LandName) == "" {
		return &ValidationError{Field: "land_name", Message: "is required"}
	}
	if in.ActivityDate.IsZero() {
		return &ValidationError{Field: "activity_date", Message: "is required"}
	}
	if in.AreaInAcres.IsNegative() {
		return &ValidationError{Field: "area_in_acres", Message: "must not be negative"}
	}
	if in.RatePerAcre.IsNegative() {
		return &ValidationError{Field: "rate_per_acre", Message: "must not be negative"}
	}
	return nil
}

func (in ActivityInput) apply(a *models.LandActivity) {
	a.OwnerName = in.OwnerName
	a.LandName = in.LandName
	a.ActivityDescription = in.Description
	a.ActivityDate = calc.DateOf(in.ActivityDate)
	a.AreaInAcres = in.AreaInAcres
	a.RatePerAcre = in.RatePerAcre
	a.TotalAmount = calc.ActivityTotal(in.AreaInAcres, in.RatePerAcre)
}

// AddActivity records a land activity and refreshes its owner's group total,
// creating the group the first time the owner is seen. If the group write
// fails the activity stays recorded.
func (l *Ledger) AddActivity(ctx context.Context, in ActivityInput) (*models.LandActivity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a := &models.LandActivity{}
	in.apply(a)
	if err := l.storage.CreateActivity(ctx, a); err != nil {
		return nil, l.transport("create land activity", err)
	}
	if _, err := l.syncGroup(ctx, a.OwnerName, true); err != nil {
		return a, err
	}
	return a, nil
}

// ListActivities retrieves land activities matching opts.
func (l *Ledger) ListActivities(ctx context.Context, opts store.ListOptions) ([]*models.LandActivity, error) {
	acts, err := l.storage.ListActivities(ctx, opts)
	if err != nil {
		return nil, l.transport("list land activities", err)
	}
	return acts, nil
}

// EditActivity rewrites a land activity, recomputes its total and refreshes
// the group totals it touches.
func (l *Ledger) EditActivity(ctx context.Context, id uuid.UUID, in ActivityInput) (*models.LandActivity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a, err := l.storage.GetActivity(ctx, id)
	if err != nil {
		return nil, l.transport("get land activity", err)
	}
	previousOwner := a.OwnerName
	in.apply(a)
	if err := l.storage.UpdateActivity(ctx, a); err != nil {
		return nil, l.transport("update land activity", err)
	}

	if _, err := l.syncGroup(ctx, a.OwnerName, true); err != nil {
		return a, err
	}
	if previousOwner != a.OwnerName {
		if _, err := l.syncGroup(ctx, previousOwner, false); err != nil {
			return a, err
		}
	}
	return a, nil
}

// DeleteActivity removes a land activity and refreshes its owner's group total.
func (l *Ledger) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	a, err := l.storage.GetActivity(ctx, id)
	if err != nil {
		return l.transport("get land activity", err)
	}
	if err := l.storage.DeleteActivity(ctx, id); err != nil {
		return l.transport("delete land activity", err)
	}
	_, err = l.syncGroup(ctx, a.OwnerName, false)
	return err
}

// syncGroup recomputes a group's total from its members as they are right now
// and writes it back. A missing group is created only when create is set.
func (l *Ledger) syncGroup(ctx context.Context, name string, create bool) (*models.GroupSettlement, error) {
	members, err := l.storage.ListActivities(ctx, store.ListOptions{Name: name})
	if err != nil {
		return nil, l.transport("list land activities", err)
	}

	group, err := l.storage.GetGroupByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !create {
			return nil, nil
		}
		g := calc.RecomputeGroup(newGroup(name), derefAll(members))
		if err := l.storage.CreateGroup(ctx, &g); err != nil {
			return nil, l.transport("create group settlement", err)
		}
		return &g, nil
	case err != nil:
		return nil, l.transport("get group settlement", err)
	}

	g := calc.RecomputeGroup(*group, derefAll(members))
	if err := l.storage.UpdateGroup(ctx, &g); err != nil {
		return nil, l.transport("update group settlement", err)
	}
	return &g, nil
}

func newGroup(name string) models.GroupSettlement {
	return models.GroupSettlement{
		GroupName:     name,
		TotalAmount:   decimal.Zero,
		SettledAmount: decimal.Zero,
		Settlements:   []models.SettlementEntry{},
	}
}

// SettleGroup records a partial or full payment against an owner's activities.
func (l *Ledger) SettleGroup(ctx context.Context, name string, amount decimal.Decimal, date time.Time, remarks string) (*models.GroupSettlement, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "group_name", Message: "is required"}
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("settle group %q with %s: %w", name, amount, calc.ErrInvalidAmount)
	}
	if date.IsZero() {
		date = l.now()
	}

	members, err := l.storage.ListActivities(ctx, store.ListOptions{Name: name})
	if err != nil {
		return nil, l.transport("list land activities", err)
	}

	existing, err := l.storage.GetGroupByName(ctx, name)
	isNew := errors.Is(err, store.ErrNotFound)
	switch {
	case isNew && len(members) == 0:
		return nil, fmt.Errorf("group %q: %w", name, store.ErrNotFound)
	case isNew:
		g := newGroup(name)
		existing = &g
	case err != nil:
		return nil, l.transport("get group settlement", err)
	}

	settled, err := calc.SettleGroup(*existing, derefAll(members), amount, date, remarks)
	if err != nil {
		return nil, err
	}
	if isNew {
		err = l.storage.CreateGroup(ctx, &settled)
	} else {
		err = l.storage.UpdateGroup(ctx, &settled)
	}
	if err != nil {
		return nil, l.transport("settle group", err)
	}

	metrics.Settlements.WithLabelValues("group").Inc()
	log.Printf("Settled %s against group %q (%s of %s, %s remaining)", amount.StringFixed(2), name, settled.SettledAmount.StringFixed(2), settled.TotalAmount.StringFixed(2), settled.Remaining().StringFixed(2))
	return &settled, nil
}

// LandGroupView is one owner's activities merged with their settlement state.
type LandGroupView struct {
	Name        string                  `json:"name"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
	Activities  []models.LandActivity   `json:"activities"`
	Settlement  *models.GroupSettlement `json:"settlement,omitempty"`
}

// LandOverview fetches activities and group settlements concurrently and
// merges them by owner name. If either fetch fails nothing is merged.
func (l *Ledger) LandOverview(ctx context.Context) ([]LandGroupView, error) {
	var (
		acts   []*models.LandActivity
		groups []*models.GroupSettlement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acts, err = l.storage.ListActivities(gctx, store.ListOptions{})
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = l.storage.ListGroups(gctx, store.ListOptions{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, l.transport("refresh land overview", err)
	}

	byName := make(map[string]*models.GroupSettlement, len(groups))
	for _, grp := range groups {
		byName[grp.GroupName] = grp
	}

	var views []LandGroupView
	seen := make(map[string]bool)
	for _, ag := range calc.AggregateActivities(derefAll(acts)) {
		view := LandGroupView{Name: ag.Name, TotalAmount: ag.TotalAmount, Activities: ag.Activities}
		if grp, ok := byName[ag.Name]; ok {
			live := calc.RecomputeGroup(*grp, ag.Activities)
			view.Settlement = &live
		}
		views = append(views, view)
		seen[ag.Name] = true
	}
	// settled groups whose activities have all been removed
	for _, grp := range groups {
		if seen[grp.GroupName] {
			continue
		}
		live := calc.RecomputeGroup(*grp, nil)
		views = append(views, LandGroupView{
			Name:        grp.GroupName,
			TotalAmount: decimal.Zero,
			Activities:  []models.LandActivity{},
			Settlement:  &live,
		})
	}
	return views, nil
}
