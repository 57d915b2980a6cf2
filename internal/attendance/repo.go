package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// slotColumn whitelists slot names before they reach SQL.
func slotColumn(slot Slot) (string, error) {
	switch slot {
	case SlotMorningIn, SlotMorningOut, SlotAfternoonIn, SlotAfternoonOut:
		return string(slot), nil
	}
	return "", fmt.Errorf("unknown slot %q", slot)
}

// FindUser resolves an identity name to its user row. Returns nil when the
// name has no registration record.
func (r *Repository) FindUser(ctx context.Context, name string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT users.id, users.name, COALESCE(sections.name, ''), users.section_id
		FROM users
		LEFT JOIN sections ON users.section_id = sections.id
		WHERE users.name = $1
	`, name)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Section, &u.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindRecord returns the attendance record for (user, date), nil when none.
func (r *Repository) FindRecord(ctx context.Context, userID int64, date time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, morning_in, morning_out, afternoon_in, afternoon_out
		FROM attendance
		WHERE user_id = $1 AND date = $2
	`, userID, date)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.MorningIn, &rec.MorningOut, &rec.AfternoonIn, &rec.AfternoonOut); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// CreateRecord inserts a new record with exactly one slot set.
func (r *Repository) CreateRecord(ctx context.Context, userID int64, date time.Time, slot Slot, t time.Time) error {
	col, err := slotColumn(slot)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO attendance (id, user_id, date, %s)
		VALUES ($1, $2, $3, $4)
	`, col), uuid.NewString(), userID, date, t)
	return err
}

// SetSlot writes a timestamp into a null slot. The IS NULL guard makes the
// write atomic with the emptiness check, so two concurrent writers cannot
// both succeed.
func (r *Repository) SetSlot(ctx context.Context, recordID string, slot Slot, t time.Time) (bool, error) {
	col, err := slotColumn(slot)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE attendance SET %s = $2 WHERE id = $1 AND %s IS NULL
	`, col, col), recordID, t)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSections returns all sections ordered by name.
func (r *Repository) ListSections(ctx context.Context) ([]Section, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM sections ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sections []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// GetAdmin returns the admin account for a username, nil when absent.
func (r *Repository) GetAdmin(ctx context.Context, username string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM admins WHERE username = $1
	`, username)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// EnsureAdmin creates an admin account when the username is not taken yet.
// Existing accounts are left untouched so a rotated env password does not
// silently overwrite one set by hand.
func (r *Repository) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, passwordHash)
	return err
}

// ErrDuplicateName is returned when a registration name is already taken.
var ErrDuplicateName = errors.New("name already registered")

// CreateUser registers a new identity. Names are unique; re-registering an
// existing name is rejected rather than silently overwritten.
func (r *Repository) CreateUser(ctx context.Context, name string, sectionID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, section_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, name, sectionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateName
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateUser changes a user's name and section.
func (r *Repository) UpdateUser(ctx context.Context, id int64, name string, sectionID *int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $2, section_id = $3 WHERE id = $1
	`, id, name, sectionID)
	return err
}

// ErrUserHasAttendance blocks deleting a user whose history must be kept.
var ErrUserHasAttendance = errors.New("user has attendance records")

// DeleteUser removes a user unless attendance rows reference them.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE user_id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrUserHasAttendance
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// ListUsers returns users filtered by a name substring and/or section.
func (r *Repository) ListUsers(ctx context.Context, search string, sectionID *int64) ([]User, error) {
	query := `
		SELECT u.id, u.name, COALESCE(s.name, ''), u.section_id
		FROM users u
		LEFT JOIN sections s ON u.section_id = s.id
	`
	args := []any{}
	clauses := []string{}
	if search != "" {
		clauses = append(clauses, fmt.Sprintf("u.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+search+"%")
	}
	if sectionID != nil {
		clauses = append(clauses, fmt.Sprintf("u.section_id = $%d", len(args)+1))
		args = append(args, *sectionID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY u.name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Section, &u.SectionID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RowFilter narrows dashboard listings.
type RowFilter struct {
	UserID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
}

func (f RowFilter) clauses(args *[]any) []string {
	var clauses []string
	if f.UserID != nil {
		clauses = append(clauses, fmt.Sprintf("a.user_id = $%d", len(*args)+1))
		*args = append(*args, *f.UserID)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, fmt.Sprintf("a.date >= $%d", len(*args)+1))
		*args = append(*args, *f.DateFrom)
	}
	if f.DateTo != nil {
		clauses = append(clauses, fmt.Sprintf("a.date <= $%d", len(*args)+1))
		*args = append(*args, *f.DateTo)
	}
	return clauses
}

// ListRows returns dashboard rows newest first with basic pagination.
func (r *Repository) ListRows(ctx context.Context, filter RowFilter, limit, offset int) ([]Row, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT a.id, a.user_id, a.date, a.morning_in, a.morning_out,
		       a.afternoon_in, a.afternoon_out, u.name, COALESCE(s.name, '')
		FROM attendance a
		JOIN users u ON a.user_id = u.id
		LEFT JOIN sections s ON u.section_id = s.id
	`
	args := []any{}
	clauses := filter.clauses(&args)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY a.date DESC, u.name ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.UserID, &row.Date, &row.MorningIn, &row.MorningOut,
			&row.AfternoonIn, &row.AfternoonOut, &row.Name, &row.Section); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountRows returns the total matching a filter, for pagination.
func (r *Repository) CountRows(ctx context.Context, filter RowFilter) (int, error) {
	query := `SELECT COUNT(*) FROM attendance a`
	args := []any{}
	clauses := filter.clauses(&args)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
