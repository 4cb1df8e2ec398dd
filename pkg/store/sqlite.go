package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/ledgerbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
// Use ":memory:" for a throwaway in-memory database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if dataSourceName == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Printf("Database %s opened and schema initialized.", dataSourceName)
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Decimal fields are TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		counterparty_name TEXT NOT NULL,
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		origin_date DATETIME NOT NULL,
		current_accrued_amount TEXT NOT NULL,
		elapsed_days INTEGER NOT NULL DEFAULT 0,
		remarks TEXT NOT NULL DEFAULT '',
		is_settled INTEGER NOT NULL DEFAULT 0,
		settled_date DATETIME,
		settlement_remarks TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_loans_name ON loans(counterparty_name);
	CREATE TABLE IF NOT EXISTS land_activities (
		id TEXT PRIMARY KEY,
		owner_name TEXT NOT NULL,
		land_name TEXT NOT NULL,
		activity_description TEXT NOT NULL,
		activity_date DATETIME NOT NULL,
		area_in_acres TEXT NOT NULL,
		rate_per_acre TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_land_activities_owner ON land_activities(owner_name);
	CREATE TABLE IF NOT EXISTS group_settlements (
		id TEXT PRIMARY KEY,
		group_name TEXT NOT NULL UNIQUE,
		total_amount TEXT NOT NULL,
		settled_amount TEXT NOT NULL,
		is_settled INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS group_settlement_entries (
		group_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		date DATETIME NOT NULL,
		amount TEXT NOT NULL,
		remarks TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (group_id, seq),
		FOREIGN KEY(group_id) REFERENCES group_settlements(id)
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// listClause builds the WHERE/ORDER BY tail for a list query over nameCol.
// Ties on created_at fall back to insertion order.
func listClause(nameCol string, opts ListOptions) (string, []any) {
	var (
		where []string
		args  []any
	)
	if opts.Name != "" {
		where = append(where, nameCol+" = ?")
		args = append(args, opts.Name)
	}
	if opts.Search != "" {
		where = append(where, nameCol+" LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}

	var b strings.Builder
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if opts.OrderByCreatedDesc {
		b.WriteString(" ORDER BY created_at DESC, rowid DESC")
	} else {
		b.WriteString(" ORDER BY created_at ASC, rowid ASC")
	}
	return b.String(), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func checkAffected(result sql.Result, what string, id any) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return nil
}

// stamp assigns an ID on first write and refreshes the timestamps.
func stamp(id *uuid.UUID, created, updated *time.Time) {
	now := time.Now().UTC()
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ─── Loans ──────────────────────────────────────────────────────────────────

const loanColumns = `id, kind, counterparty_name, principal, interest_rate, origin_date, current_accrued_amount, elapsed_days, remarks, is_settled, settled_date, settlement_remarks, created_at, updated_at`

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	stamp(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.Kind, loan.CounterpartyName, loan.Principal, loan.AnnualInterestRatePercent, loan.OriginDate,
		loan.CurrentAccruedAmount, loan.ElapsedDays, loan.Remarks, loan.IsSettled, loan.SettledDate, loan.SettlementRemarks,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func scanLoan(row rowScanner) (*models.LoanTransaction, error) {
	var loan models.LoanTransaction
	var loanIDStr string
	var settledDate sql.NullTime
	if err := row.Scan(&loanIDStr, &loan.Kind, &loan.CounterpartyName, &loan.Principal, &loan.AnnualInterestRatePercent, &loan.OriginDate,
		&loan.CurrentAccruedAmount, &loan.ElapsedDays, &loan.Remarks, &loan.IsSettled, &settledDate, &loan.SettlementRemarks,
		&loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(loanIDStr)
	if settledDate.Valid {
		loan.SettledDate = &settledDate.Time
	}
	return &loan, nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanTransaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan replaces every mutable field of an existing loan.
func (s *SQLiteStore) UpdateLoan(ctx context.Context, loan *models.LoanTransaction) error {
	loan.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE loans SET kind = ?, counterparty_name = ?, principal = ?, interest_rate = ?, origin_date = ?, current_accrued_amount = ?, elapsed_days = ?, remarks = ?, is_settled = ?, settled_date = ?, settlement_remarks = ?, updated_at = ? WHERE id = ?`,
		loan.Kind, loan.CounterpartyName, loan.Principal, loan.AnnualInterestRatePercent, loan.OriginDate, loan.CurrentAccruedAmount,
		loan.ElapsedDays, loan.Remarks, loan.IsSettled, loan.SettledDate, loan.SettlementRemarks, loan.UpdatedAt, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return checkAffected(result, "loan", loan.ID)
}

// DeleteLoan removes a loan.
func (s *SQLiteStore) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	return checkAffected(result, "loan", id)
}

// ListLoans retrieves loans matching opts.
func (s *SQLiteStore) ListLoans(ctx context.Context, opts ListOptions) ([]*models.LoanTransaction, error) {
	clause, args := listClause("counterparty_name", opts)
	rows, err := s.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.LoanTransaction
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

// ─── Land activities ────────────────────────────────────────────────────────

const activityColumns = `id, owner_name, land_name, activity_description, activity_date, area_in_acres, rate_per_acre, total_amount, created_at, updated_at`

// CreateActivity inserts a new land activity.
func (s *SQLiteStore) CreateActivity(ctx context.Context, a *models.LandActivity) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO land_activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.OwnerName, a.LandName, a.ActivityDescription, a.ActivityDate, a.AreaInAcres, a.RatePerAcre, a.TotalAmount,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create land activity: %w", err)
	}
	return nil
}

func scanActivity(row rowScanner) (*models.LandActivity, error) {
	var a models.LandActivity
	var idStr string
	if err := row.Scan(&idStr, &a.OwnerName, &a.LandName, &a.ActivityDescription, &a.ActivityDate, &a.AreaInAcres, &a.RatePerAcre,
		&a.TotalAmount, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = uuid.MustParse(idStr)
	return &a, nil
}

// GetActivity retrieves a land activity by its ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, id uuid.UUID) (*models.LandActivity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM land_activities WHERE id = ?`, id.String())
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("land activity %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get land activity: %w", err)
	}
	return a, nil
}

// UpdateActivity replaces every mutable field of an existing land activity.
func (s *SQLiteStore) UpdateActivity(ctx context.Context, a *models.LandActivity) error {
	a.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE land_activities SET owner_name = ?, land_name = ?, activity_description = ?, activity_date = ?, area_in_acres = ?, rate_per_acre = ?, total_amount = ?, updated_at = ? WHERE id = ?`,
		a.OwnerName, a.LandName, a.ActivityDescription, a.ActivityDate, a.AreaInAcres, a.RatePerAcre, a.TotalAmount, a.UpdatedAt, a.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update land activity: %w", err)
	}
	return checkAffected(result, "land activity", a.ID)
}

// DeleteActivity removes a land activity.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM land_activities WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete land activity: %w", err)
	}
	return checkAffected(result, "land activity", id)
}

// ListActivities retrieves land activities matching opts.
func (s *SQLiteStore) ListActivities(ctx context.Context, opts ListOptions) ([]*models.LandActivity, error) {
	clause, args := listClause("owner_name", opts)
	rows, err := s.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM land_activities`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list land activities: %w", err)
	}
	defer rows.Close()

	var acts []*models.LandActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan land activity row: %w", err)
		}
		acts = append(acts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return acts, nil
}

// ─── Group settlements ──────────────────────────────────────────────────────

const groupColumns = `id, group_name, total_amount, settled_amount, is_settled, created_at, updated_at`

// CreateGroup inserts a group and any settlement entries it already carries.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *models.GroupSettlement) error {
	stamp(&g.ID, &g.CreatedAt, &g.UpdatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_settlements (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.GroupName, g.TotalAmount, g.SettledAmount, g.IsSettled, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group settlement: %w", err)
	}
	if err := insertEntries(ctx, tx, g.ID, 0, g.Settlements); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEntries(ctx context.Context, tx *sql.Tx, groupID uuid.UUID, from int, entries []models.SettlementEntry) error {
	for i := from; i < len(entries); i++ {
		e := entries[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_settlement_entries (group_id, seq, date, amount, remarks) VALUES (?, ?, ?, ?, ?)`,
			groupID.String(), i, e.Date, e.Amount, e.Remarks,
		)
		if err != nil {
			return fmt.Errorf("failed to append settlement entry %d: %w", i, err)
		}
	}
	return nil
}

func scanGroup(row rowScanner) (*models.GroupSettlement, error) {
	var g models.GroupSettlement
	var idStr string
	if err := row.Scan(&idStr, &g.GroupName, &g.TotalAmount, &g.SettledAmount, &g.IsSettled, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.ID = uuid.MustParse(idStr)
	return &g, nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context, g *models.GroupSettlement) error {
	rows, err := s.db.QueryContext(ctx, `SELECT date, amount, remarks FROM group_settlement_entries WHERE group_id = ? ORDER BY seq ASC`, g.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get settlement entries for group %s: %w", g.ID, err)
	}
	defer rows.Close()

	g.Settlements = []models.SettlementEntry{}
	for rows.Next() {
		var e models.SettlementEntry
		if err := rows.Scan(&e.Date, &e.Amount, &e.Remarks); err != nil {
			return fmt.Errorf("failed to scan settlement entry row: %w", err)
		}
		g.Settlements = append(g.Settlements, e)
	}
	return rows.Err()
}

// GetGroupByName retrieves a group settlement and its history by group name.
func (s *SQLiteStore) GetGroupByName(ctx context.Context, name string) (*models.GroupSettlement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM group_settlements WHERE group_name = ?`, name)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group settlement %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group settlement: %w", err)
	}
	if err := s.loadEntries(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGroup writes the group totals and appends any settlement entries not
// yet stored. Stored entries are never rewritten.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, g *models.GroupSettlement) error {
	g.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE group_settlements SET group_name = ?, total_amount = ?, settled_amount = ?, is_settled = ?, updated_at = ? WHERE id = ?`,
		g.GroupName, g.TotalAmount, g.SettledAmount, g.IsSettled, g.UpdatedAt, g.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update group settlement: %w", err)
	}
	if err := checkAffected(result, "group settlement", g.ID); err != nil {
		return err
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_settlement_entries WHERE group_id = ?`, g.ID.String()).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count settlement entries: %w", err)
	}
	if len(g.Settlements) < stored {
		return fmt.Errorf("group settlement %s has %d stored entries, got %d: history is append-only", g.ID, stored, len(g.Settlements))
	}
	if err := insertEntries(ctx, tx, g.ID, stored, g.Settlements); err != nil {
		return err
	}
	return tx.Commit()
}

// ListGroups retrieves group settlements matching opts, with their histories.
func (s *SQLiteStore) ListGroups(ctx context.Context, opts ListOptions) ([]*models.GroupSettlement, error) {
	clause, args := listClause("group_name", opts)
	rows, err := s.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM group_settlements`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group settlements: %w", err)
	}

	var groups []*models.GroupSettlement
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group settlement row: %w", err)
		}
		groups = append(groups, g)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	// entries are loaded after the group cursor is closed; an in-memory
	// database only has one connection
	for _, g := range groups {
		if err := s.loadEntries(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// ─── Settings ───────────────────────────────────────────────────────────────

// GetSetting returns the stored value for key.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// PutSetting stores value under key, replacing any previous value.
func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to put setting: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
