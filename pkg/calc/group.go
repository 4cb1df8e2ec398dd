package calc

import (
	"fmt"
	"slices"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/shopspring/decimal"
)

// ActivityTotal is the expense of working area acres at ratePerAcre. The
// product is kept exact; rounding happens only for display.
func ActivityTotal(area, ratePerAcre decimal.Decimal) decimal.Decimal {
	return area.Mul(ratePerAcre)
}

// GroupTotal sums the TotalAmount of the given activities.
func GroupTotal(members []models.LandActivity) decimal.Decimal {
	total := decimal.Zero
	for _, a := range members {
		total = total.Add(a.TotalAmount)
	}
	return total
}

// RecomputeGroup refreshes the group total and settled flag from the current
// member list. The stored total is never trusted.
func RecomputeGroup(group models.GroupSettlement, members []models.LandActivity) models.GroupSettlement {
	group.TotalAmount = GroupTotal(members)
	group.IsSettled = group.SettledAmount.GreaterThanOrEqual(group.TotalAmount)
	return group
}

// SettleGroup records a (possibly partial) payment against the group.
// Payments accumulate; the history is append-only.
func SettleGroup(group models.GroupSettlement, members []models.LandActivity, amount decimal.Decimal, date time.Time, remarks string) (models.GroupSettlement, error) {
	if !amount.IsPositive() {
		return group, fmt.Errorf("settle group %q with %s: %w", group.GroupName, amount, ErrInvalidAmount)
	}

	group.SettledAmount = group.SettledAmount.Add(amount)
	group.Settlements = append(slices.Clone(group.Settlements), models.SettlementEntry{
		Date:    DateOf(date),
		Amount:  amount,
		Remarks: remarks,
	})
	return RecomputeGroup(group, members), nil
}
