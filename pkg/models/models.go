package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanKind is the direction of a loan relative to the book owner.
type LoanKind string

const (
	LoanKindGiven LoanKind = "given"
	LoanKindTaken LoanKind = "taken"
)

// Valid reports whether k is one of the known loan directions.
func (k LoanKind) Valid() bool {
	return k == LoanKindGiven || k == LoanKindTaken
}

type LoanTransaction struct {
	ID                        uuid.UUID       `json:"id"`
	Kind                      LoanKind        `json:"kind"`
	CounterpartyName          string          `json:"counterparty_name"` // Grouping key, exact match
	Principal                 decimal.Decimal `json:"principal"`
	AnnualInterestRatePercent decimal.Decimal `json:"annual_interest_rate_percent"` // Applied as a monthly rate by the calculator
	OriginDate                time.Time       `json:"origin_date"`
	CurrentAccruedAmount      decimal.Decimal `json:"current_accrued_amount"`
	ElapsedDays               int             `json:"elapsed_days"`
	Remarks                   string          `json:"remarks,omitempty"` // Captured when the loan is recorded
	IsSettled                 bool            `json:"is_settled"`
	SettledDate               *time.Time      `json:"settled_date,omitempty"`
	SettlementRemarks         string          `json:"settlement_remarks,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

type LandActivity struct {
	ID                  uuid.UUID       `json:"id"`
	OwnerName           string          `json:"owner_name"` // Grouping key, matches GroupSettlement.GroupName
	LandName            string          `json:"land_name"`
	ActivityDescription string          `json:"activity_description"`
	ActivityDate        time.Time       `json:"activity_date"`
	AreaInAcres         decimal.Decimal `json:"area_in_acres"`
	RatePerAcre         decimal.Decimal `json:"rate_per_acre"`
	TotalAmount         decimal.Decimal `json:"total_amount"` // AreaInAcres * RatePerAcre, recomputed on edit
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// SettlementEntry is one payment against a group. Entries are never edited.
type SettlementEntry struct {
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
	Remarks string          `json:"remarks,omitempty"`
}

type GroupSettlement struct {
	ID            uuid.UUID         `json:"id"`
	GroupName     string            `json:"group_name"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	SettledAmount decimal.Decimal   `json:"settled_amount"` // Only ever increases
	IsSettled     bool              `json:"is_settled"`
	Settlements   []SettlementEntry `json:"settlements"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Remaining returns the amount still owed on the group, never below zero.
func (g GroupSettlement) Remaining() decimal.Decimal {
	r := g.TotalAmount.Sub(g.SettledAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
