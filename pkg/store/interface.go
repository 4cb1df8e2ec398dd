package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcclellann/ledgerbook/pkg/models"
)

// ErrNotFound is wrapped by every lookup, update or delete of a missing document.
var ErrNotFound = errors.New("not found")

// ListOptions narrows and orders a list call.
type ListOptions struct {
	Search             string // Substring match on the name field
	Name               string // Exact match on the name field
	OrderByCreatedDesc bool
}

// Storage defines the document operations for loans, land activities,
// group settlements and settings. IDs and timestamps are assigned here.
type Storage interface {
	CreateLoan(ctx context.Context, loan *models.LoanTransaction) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanTransaction, error)
	UpdateLoan(ctx context.Context, loan *models.LoanTransaction) error
	DeleteLoan(ctx context.Context, id uuid.UUID) error
	ListLoans(ctx context.Context, opts ListOptions) ([]*models.LoanTransaction, error)

	CreateActivity(ctx context.Context, activity *models.LandActivity) error
	GetActivity(ctx context.Context, id uuid.UUID) (*models.LandActivity, error)
	UpdateActivity(ctx context.Context, activity *models.LandActivity) error
	DeleteActivity(ctx context.Context, id uuid.UUID) error
	ListActivities(ctx context.Context, opts ListOptions) ([]*models.LandActivity, error)

	CreateGroup(ctx context.Context, group *models.GroupSettlement) error
	GetGroupByName(ctx context.Context, name string) (*models.GroupSettlement, error)
	UpdateGroup(ctx context.Context, group *models.GroupSettlement) error
	ListGroups(ctx context.Context, opts ListOptions) ([]*models.GroupSettlement, error)

	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	Close() error
}
