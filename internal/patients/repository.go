package patients

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

// Repository stores patient profiles.
type Repository interface {
	Upsert(ctx context.Context, userID string, req *UpsertPatientRequest) (*Patient, error)
	GetByUserID(ctx context.Context, userID string) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, filter ListFilter) ([]*Patient, error)
	Delete(ctx context.Context, id string) error
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates the profile on first save and replaces it afterwards.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, req *UpsertPatientRequest) (*Patient, error) {
	query := `
		INSERT INTO patients (id, user_id, name, email, phone, date_of_birth, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			date_of_birth = EXCLUDED.date_of_birth,
			address = EXCLUDED.address,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	patient := &Patient{
		UserID:      userID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		req.Name,
		req.Email,
		req.Phone,
		req.DateOfBirth,
		req.Address,
		req.Notes,
	).Scan(&patient.ID, &patient.CreatedAt, &patient.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("patients: upsert failed: %w", err)
	}
	return patient, nil
}

// GetByUserID fetches the profile owned by an account.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	query := selectColumns + ` WHERE user_id = $1`
	return scanPatient(r.db.QueryRow(ctx, query, userID))
}

// GetByID fetches a profile by its own id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := selectColumns + ` WHERE id = $1`
	return scanPatient(r.db.QueryRow(ctx, query, id))
}

const selectColumns = `
	SELECT id, user_id, name, email, phone, date_of_birth, address, notes, created_at, updated_at
	FROM patients
`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&p.Address,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return &p, nil
}

// List returns profiles ordered by name, optionally filtered by a
// case-insensitive name/email search.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	query := selectColumns
	args := []any{}
	if filter.Search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.Email,
			&p.Phone,
			&p.DateOfBirth,
			&p.Address,
			&p.Notes,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// InMemoryRepository keeps profiles in memory for tests and local runs.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*Patient
	byUserID map[string]*Patient
}

// NewInMemoryRepository creates an empty in-memory patient store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:     make(map[string]*Patient),
		byUserID: make(map[string]*Patient),
	}
}

func (r *InMemoryRepository) Upsert(ctx context.Context, userID string, req *UpsertPatientRequest) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	patient, exists := r.byUserID[userID]
	if !exists {
		patient = &Patient{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
		r.byID[patient.ID] = patient
		r.byUserID[userID] = patient
	}
	patient.Name = req.Name
	patient.Email = req.Email
	patient.Phone = req.Phone
	patient.DateOfBirth = req.DateOfBirth
	patient.Address = req.Address
	patient.Notes = req.Notes
	patient.UpdatedAt = now

	copied := *patient
	return &copied, nil
}

func (r *InMemoryRepository) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.byUserID[userID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *patient
	return &copied, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *patient
	return &copied, nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Patient
	search := strings.ToLower(filter.Search)
	for _, p := range r.byID {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		copied := *p
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

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.byID[id]
	if !ok {
		return ErrPatientNotFound
	}
	delete(r.byID, id)
	delete(r.byUserID, patient.UserID)
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
var _ Repository = (*InMemoryRepository)(nil)
