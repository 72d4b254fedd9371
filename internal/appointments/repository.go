package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
	// BookedStarts returns the start times of active appointments for a
	// doctor on a date. Cancelled and no-show slots are free again.
	BookedStarts(ctx context.Context, doctorID, date string) ([]string, error)
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments
			(id, patient_user_id, patient_name, patient_email, doctor_id, doctor_name,
			 department, date, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.PatientUserID,
		appt.PatientName,
		appt.PatientEmail,
		appt.DoctorID,
		appt.DoctorName,
		appt.Department,
		appt.Date,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, patient_user_id, patient_name, patient_email, doctor_id, doctor_name,
	       department, date, start_time, end_time, status, notes, created_at, updated_at
	FROM appointments
`

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	var a Appointment
	if err := scanAppointment(row.Scan, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return &a, nil
}

func scanAppointment(scan func(dest ...any) error, a *Appointment) error {
	return scan(
		&a.ID,
		&a.PatientUserID,
		&a.PatientName,
		&a.PatientEmail,
		&a.DoctorID,
		&a.DoctorName,
		&a.Department,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// Update rewrites the mutable fields (slot, status, notes).
func (r *PostgresRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET date = $2, start_time = $3, end_time = $4, status = $5, notes = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.Date,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.Notes,
	).Scan(&appt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	return nil
}

// List returns appointments matching the filter, newest date first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	query := selectColumns + ` WHERE 1=1`
	args := []any{}
	next := func() int { return len(args) + 1 }

	if filter.PatientUserID != "" {
		query += fmt.Sprintf(` AND patient_user_id = $%d`, next())
		args = append(args, filter.PatientUserID)
	}
	if filter.DoctorID != "" {
		query += fmt.Sprintf(` AND doctor_id = $%d`, next())
		args = append(args, filter.DoctorID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, next())
		args = append(args, filter.Status)
	}
	if filter.Date != "" {
		query += fmt.Sprintf(` AND date = $%d`, next())
		args = append(args, filter.Date)
	}
	query += fmt.Sprintf(` ORDER BY date DESC, start_time LIMIT $%d OFFSET $%d`, next(), next()+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := scanAppointment(rows.Scan, &a); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// BookedStarts lists occupied start times for a doctor's day.
func (r *PostgresRepository) BookedStarts(ctx context.Context, doctorID, date string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status IN ('scheduled', 'confirmed')
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: select booked: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var start string
		if err := rows.Scan(&start); err != nil {
			return nil, fmt.Errorf("appointments: scan booked: %w", err)
		}
		out = append(out, start)
	}
	return out, rows.Err()
}

// InMemoryRepository keeps appointments in memory for tests and local runs.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*Appointment
}

// NewInMemoryRepository creates an empty in-memory appointment store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.DoctorID == appt.DoctorID &&
			existing.Date == appt.Date &&
			existing.StartTime == appt.StartTime &&
			(existing.Status == StatusScheduled || existing.Status == StatusConfirmed) {
			return ErrSlotTaken
		}
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	copied := *appt
	r.byID[appt.ID] = &copied
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[appt.ID]
	if !ok {
		return ErrAppointmentNotFound
	}
	stored.Date = appt.Date
	stored.StartTime = appt.StartTime
	stored.EndTime = appt.EndTime
	stored.Status = appt.Status
	stored.Notes = appt.Notes
	stored.UpdatedAt = time.Now()
	appt.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Appointment
	for _, a := range r.byID {
		if filter.PatientUserID != "" && a.PatientUserID != filter.PatientUserID {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		copied := *a
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date > all[j].Date
		}
		return all[i].StartTime < all[j].StartTime
	})

	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *InMemoryRepository) BookedStarts(ctx context.Context, doctorID, date string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, a := range r.byID {
		if a.DoctorID == doctorID && a.Date == date &&
			(a.Status == StatusScheduled || a.Status == StatusConfirmed) {
			out = append(out, a.StartTime)
		}
	}
	sort.Strings(out)
	return out, nil
}

var _ Repository = (*PostgresRepository)(nil)
var _ Repository = (*InMemoryRepository)(nil)
