package calc

import (
	"testing"
	"time"

	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(owner string, total int64) models.LandActivity {
	return models.LandActivity{OwnerName: owner, TotalAmount: decimal.NewFromInt(total)}
}

func TestActivityTotal(t *testing.T) {
	got := ActivityTotal(decimal.RequireFromString("2.5"), decimal.NewFromInt(1800))
	assert.True(t, got.Equal(decimal.NewFromInt(4500)))

	got = ActivityTotal(decimal.RequireFromString("0.333"), decimal.RequireFromString("1000.01"))
	assert.True(t, got.Equal(decimal.RequireFromString("333.00333")), "got %s", got)
}

func TestSettleGroup_Accumulates(t *testing.T) {
	members := []models.LandActivity{activity("Suresh", 60), activity("Suresh", 40)}
	group := models.GroupSettlement{GroupName: "Suresh", TotalAmount: decimal.NewFromInt(100)}

	group, err := SettleGroup(group, members, decimal.NewFromInt(40), date(2024, 3, 1), "first")
	require.NoError(t, err)
	assert.True(t, group.SettledAmount.Equal(decimal.NewFromInt(40)))
	assert.False(t, group.IsSettled)
	assert.True(t, group.Remaining().Equal(decimal.NewFromInt(60)))

	group, err = SettleGroup(group, members, decimal.NewFromInt(70), date(2024, 4, 1), "second")
	require.NoError(t, err)
	assert.True(t, group.SettledAmount.Equal(decimal.NewFromInt(110)))
	assert.True(t, group.IsSettled)
	assert.True(t, group.Remaining().IsZero())

	require.Len(t, group.Settlements, 2)
	assert.Equal(t, "first", group.Settlements[0].Remarks)
	assert.True(t, group.Settlements[0].Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "second", group.Settlements[1].Remarks)
	assert.Equal(t, date(2024, 4, 1), group.Settlements[1].Date)
}

func TestSettleGroup_UsesLiveMemberTotal(t *testing.T) {
	// the stored total is stale; a member was added since it was written
	group := models.GroupSettlement{GroupName: "Suresh", TotalAmount: decimal.NewFromInt(100)}
	members := []models.LandActivity{activity("Suresh", 100), activity("Suresh", 50)}

	group, err := SettleGroup(group, members, decimal.NewFromInt(120), date(2024, 3, 1), "")
	require.NoError(t, err)
	assert.True(t, group.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.False(t, group.IsSettled)
}

func TestSettleGroup_RejectsNonPositiveAmount(t *testing.T) {
	group := models.GroupSettlement{GroupName: "Suresh"}
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := SettleGroup(group, nil, amount, time.Now(), "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestSettleGroup_DoesNotShareHistory(t *testing.T) {
	base := models.GroupSettlement{
		GroupName:   "Suresh",
		Settlements: make([]models.SettlementEntry, 1, 4),
	}

	a, err := SettleGroup(base, nil, decimal.NewFromInt(1), date(2024, 1, 1), "a")
	require.NoError(t, err)
	b, err := SettleGroup(base, nil, decimal.NewFromInt(2), date(2024, 1, 2), "b")
	require.NoError(t, err)

	assert.Equal(t, "a", a.Settlements[1].Remarks)
	assert.Equal(t, "b", b.Settlements[1].Remarks)
	assert.Len(t, base.Settlements, 1)
}

func TestRecomputeGroup(t *testing.T) {
	group := models.GroupSettlement{GroupName: "Suresh", SettledAmount: decimal.NewFromInt(100), IsSettled: true}

	group = RecomputeGroup(group, []models.LandActivity{activity("Suresh", 100), activity("Suresh", 25)})
	assert.True(t, group.TotalAmount.Equal(decimal.NewFromInt(125)))
	assert.False(t, group.IsSettled)

	group = RecomputeGroup(group, []models.LandActivity{activity("Suresh", 100)})
	assert.True(t, group.IsSettled)
}
