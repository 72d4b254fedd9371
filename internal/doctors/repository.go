package doctors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores doctor profiles and their weekly availability.
type Repository interface {
	Upsert(ctx context.Context, userID string, req *UpsertDoctorRequest) (*Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context, filter ListFilter) ([]*Doctor, error)
	SetAvailability(ctx context.Context, doctorID string, days []DayAvailability) error
	GetAvailability(ctx context.Context, doctorID string) ([]DayAvailability, error)
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores doctors in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates the profile on first save and replaces it afterwards.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, req *UpsertDoctorRequest) (*Doctor, error) {
	query := `
		INSERT INTO doctors (id, user_id, name, email, phone, department, bio, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			department = EXCLUDED.department,
			bio = EXCLUDED.bio,
			consultation_fee = EXCLUDED.consultation_fee,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	doctor := &Doctor{
		UserID:          userID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Department:      req.Department,
		Bio:             req.Bio,
		ConsultationFee: req.Fee(),
	}
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		req.Name,
		req.Email,
		req.Phone,
		req.Department,
		req.Bio,
		doctor.ConsultationFee,
	).Scan(&doctor.ID, &doctor.CreatedAt, &doctor.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("doctors: upsert failed: %w", err)
	}
	return doctor, nil
}

const selectColumns = `
	SELECT id, user_id, name, email, phone, department, bio, consultation_fee, created_at, updated_at
	FROM doctors
`

// GetByUserID fetches the profile owned by an account.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Doctor, error) {
	return scanDoctor(r.db.QueryRow(ctx, selectColumns+` WHERE user_id = $1`, userID))
}

// GetByID fetches a profile by its own id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	return scanDoctor(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.Department,
		&d.Bio,
		&d.ConsultationFee,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return &d, nil
}

// List returns doctors ordered by name, optionally filtered by department.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Doctor, error) {
	query := selectColumns
	args := []any{}
	if filter.Department != "" {
		query += ` WHERE department = $1`
		args = append(args, filter.Department)
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.Name,
			&d.Email,
			&d.Phone,
			&d.Department,
			&d.Bio,
			&d.ConsultationFee,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// SetAvailability replaces the whole weekly schedule in one pass.
func (r *PostgresRepository) SetAvailability(ctx context.Context, doctorID string, days []DayAvailability) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("doctors: clear availability: %w", err)
	}
	for _, day := range days {
		_, err := r.db.Exec(ctx, `
			INSERT INTO doctor_availability (doctor_id, weekday, start_time, end_time, slot_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, doctorID, day.Weekday, day.StartTime, day.EndTime, day.SlotMinutes)
		if err != nil {
			return fmt.Errorf("doctors: insert availability: %w", err)
		}
	}
	return nil
}

// GetAvailability returns the weekly schedule ordered by weekday.
func (r *PostgresRepository) GetAvailability(ctx context.Context, doctorID string) ([]DayAvailability, error) {
	rows, err := r.db.Query(ctx, `
		SELECT weekday, start_time, end_time, slot_minutes
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY weekday
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctors: select availability: %w", err)
	}
	defer rows.Close()

	var out []DayAvailability
	for rows.Next() {
		var day DayAvailability
		if err := rows.Scan(&day.Weekday, &day.StartTime, &day.EndTime, &day.SlotMinutes); err != nil {
			return nil, fmt.Errorf("doctors: scan availability: %w", err)
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

// InMemoryRepository keeps doctors in memory for tests and local runs.
type InMemoryRepository struct {
	mu           sync.RWMutex
	byID         map[string]*Doctor
	byUserID     map[string]*Doctor
	availability map[string][]DayAvailability
}

// NewInMemoryRepository creates an empty in-memory doctor store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:         make(map[string]*Doctor),
		byUserID:     make(map[string]*Doctor),
		availability: make(map[string][]DayAvailability),
	}
}

func (r *InMemoryRepository) Upsert(ctx context.Context, userID string, req *UpsertDoctorRequest) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	doctor, exists := r.byUserID[userID]
	if !exists {
		doctor = &Doctor{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
		r.byID[doctor.ID] = doctor
		r.byUserID[userID] = doctor
	}
	doctor.Name = req.Name
	doctor.Email = req.Email
	doctor.Phone = req.Phone
	doctor.Department = req.Department
	doctor.Bio = req.Bio
	doctor.ConsultationFee = req.Fee()
	doctor.UpdatedAt = now

	copied := *doctor
	return &copied, nil
}

func (r *InMemoryRepository) GetByUserID(ctx context.Context, userID string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doctor, ok := r.byUserID[userID]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *doctor
	return &copied, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doctor, ok := r.byID[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *doctor
	return &copied, nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Doctor
	for _, d := range r.byID {
		if filter.Department != "" && !strings.EqualFold(d.Department, filter.Department) {
			continue
		}
		copied := *d
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *InMemoryRepository) SetAvailability(ctx context.Context, doctorID string, days []DayAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[doctorID]; !ok {
		return ErrDoctorNotFound
	}
	copied := make([]DayAvailability, len(days))
	copy(copied, days)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Weekday < copied[j].Weekday })
	r.availability[doctorID] = copied
	return nil
}

func (r *InMemoryRepository) GetAvailability(ctx context.Context, doctorID string) ([]DayAvailability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	days := r.availability[doctorID]
	copied := make([]DayAvailability, len(days))
	copy(copied, days)
	return copied, nil
}

var _ Repository = (*PostgresRepository)(nil)
var _ Repository = (*InMemoryRepository)(nil)
