package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careagent/pkg"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a patient or appointment does not exist.
var ErrNotFound = errors.New("not found")

// Repository wraps database operations for patients, appointments and
// the alert history. A single postgres database backs all three.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// UpsertPatient creates or updates a patient profile. If the patient
// has no ID yet a fresh one is assigned.
func (r *Repository) UpsertPatient(ctx context.Context, p *pkg.Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO patients (id, name, age, medical_history, medications, risk_factors)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (id) DO UPDATE
         SET name = EXCLUDED.name,
             age = EXCLUDED.age,
             medical_history = EXCLUDED.medical_history,
             medications = EXCLUDED.medications,
             risk_factors = EXCLUDED.risk_factors
         RETURNING created_at`,
		p.ID, p.Name, p.Age,
		pq.Array(p.MedicalHistory), pq.Array(p.Medications), pq.Array(p.RiskFactors),
	).Scan(&p.CreatedAt)
}

// GetPatient retrieves a patient profile by ID.
func (r *Repository) GetPatient(ctx context.Context, id string) (*pkg.Patient, error) {
	var p pkg.Patient
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, age, medical_history, medications, risk_factors, created_at
         FROM patients
         WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Age,
		pq.Array(&p.MedicalHistory), pq.Array(&p.Medications), pq.Array(&p.RiskFactors),
		&p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// CreateAppointment stores a new appointment.
func (r *Repository) CreateAppointment(ctx context.Context, a *pkg.Appointment) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, type, status, notes)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Type, a.Status, a.Notes,
	)
	return err
}

// GetAppointment retrieves an appointment by ID.
func (r *Repository) GetAppointment(ctx context.Context, id string) (*pkg.Appointment, error) {
	var a pkg.Appointment
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, patient_id, doctor_id, scheduled_at, type, status, notes
         FROM appointments
         WHERE id = $1`, id,
	).Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Type, &a.Status, &a.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

// RescheduleAppointment moves an existing appointment to a new time and
// returns the updated record.
func (r *Repository) RescheduleAppointment(ctx context.Context, id string, at time.Time) (*pkg.Appointment, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE appointments SET scheduled_at = $1 WHERE id = $2 AND status = 'scheduled'`,
		at, id,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return r.GetAppointment(ctx, id)
}

// CancelAppointment marks an appointment cancelled and returns the
// updated record.
func (r *Repository) CancelAppointment(ctx context.Context, id string) (*pkg.Appointment, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled' WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	return r.GetAppointment(ctx, id)
}

// InsertAlerts appends evaluator output to the alert history.
func (r *Repository) InsertAlerts(ctx context.Context, alerts []pkg.Alert) error {
	for _, a := range alerts {
		_, err := r.DB.ExecContext(ctx,
			`INSERT INTO alerts (patient_id, alert_type, level, message, recommended_action, created_at)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			a.PatientID, a.AlertType, a.Level, a.Message, a.RecommendedAction, a.Timestamp,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListAlerts returns the most recent alerts for a patient, newest
// first. An empty patientID lists alerts across all patients.
func (r *Repository) ListAlerts(ctx context.Context, patientID string, limit int) ([]pkg.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT patient_id, alert_type, level, message, recommended_action, created_at
              FROM alerts`
	args := []interface{}{}
	if patientID != "" {
		query += ` WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, patientID, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var alerts []pkg.Alert
	for rows.Next() {
		var a pkg.Alert
		if err := rows.Scan(&a.PatientID, &a.AlertType, &a.Level, &a.Message, &a.RecommendedAction, &a.Timestamp); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
