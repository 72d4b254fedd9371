package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminStats aggregates clinic-wide appointment metrics.
type AdminStats struct {
	TotalAppointments int64            `json:"total_appointments"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByDepartment      map[string]int64 `json:"by_department"`
	TodayCount        int64            `json:"today_count"`
	TotalPatients     int64            `json:"total_patients"`
	TotalDoctors      int64            `json:"total_doctors"`
	Date              string           `json:"date"`
}

// DoctorStats aggregates one doctor's appointment metrics.
type DoctorStats struct {
	DoctorID       string `json:"doctor_id"`
	TodayCount     int64  `json:"today_count"`
	UpcomingCount  int64  `json:"upcoming_count"`
	CompletedCount int64  `json:"completed_count"`
	CancelledCount int64  `json:"cancelled_count"`
	NoShowCount    int64  `json:"no_show_count"`
	Date           string `json:"date"`
}

// statsDB defines the database interface needed by StatsRepository.
type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries dashboard metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("dashboard: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetAdminStats retrieves clinic-wide metrics. The date (YYYY-MM-DD) anchors
// the "today" count.
func (r *StatsRepository) GetAdminStats(ctx context.Context, date string) (*AdminStats, error) {
	stats := &AdminStats{
		ByStatus:     make(map[string]int64),
		ByDepartment: make(map[string]int64),
		Date:         date,
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&stats.TotalAppointments); err != nil {
		return nil, fmt.Errorf("dashboard: count appointments: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: count by status: %w", err)
	}
	if err := scanCounts(rows, stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `SELECT department, COUNT(*) FROM appointments GROUP BY department`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: count by department: %w", err)
	}
	if err := scanCounts(rows, stats.ByDepartment); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE date = $1`, date).Scan(&stats.TodayCount); err != nil {
		return nil, fmt.Errorf("dashboard: count today: %w", err)
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&stats.TotalPatients); err != nil {
		return nil, fmt.Errorf("dashboard: count patients: %w", err)
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&stats.TotalDoctors); err != nil {
		return nil, fmt.Errorf("dashboard: count doctors: %w", err)
	}

	return stats, nil
}

func scanCounts(rows pgx.Rows, into map[string]int64) error {
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("dashboard: scan counts: %w", err)
		}
		into[key] = count
	}
	return rows.Err()
}

// GetDoctorStats retrieves one doctor's metrics anchored at the given date.
func (r *StatsRepository) GetDoctorStats(ctx context.Context, doctorID, date string) (*DoctorStats, error) {
	stats := &DoctorStats{DoctorID: doctorID, Date: date}

	queries := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TodayCount,
			`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND date = $2 AND status IN ('scheduled', 'confirmed')`,
			[]any{doctorID, date}},
		{&stats.UpcomingCount,
			`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND date > $2 AND status IN ('scheduled', 'confirmed')`,
			[]any{doctorID, date}},
		{&stats.CompletedCount,
			`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'completed'`,
			[]any{doctorID}},
		{&stats.CancelledCount,
			`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'cancelled'`,
			[]any{doctorID}},
		{&stats.NoShowCount,
			`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'no_show'`,
			[]any{doctorID}},
	}
	for _, q := range queries {
		if err := r.db.QueryRow(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("dashboard: doctor stats: %w", err)
		}
	}
	return stats, nil
}

// Today returns the current date in the stats anchor format.
func Today() string {
	return time.Now().Format("2006-01-02")
}
