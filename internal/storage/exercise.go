// ABOUTME: Exercise session persistence for SQLite storage.
// ABOUTME: Idempotent insert on (patient_id, activity_type, timestamp).
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

const exerciseColumns = `id, patient_id, activity_type, timestamp, end_time, duration_minutes,
	total_distance, distance_unit, total_energy, energy_unit,
	heart_rate_min, heart_rate_avg, heart_rate_max,
	date, source_name, automation_type, session_id, created_at`

const insertExerciseSQL = `
	INSERT OR IGNORE INTO exercise
		(patient_id, activity_type, timestamp, end_time, duration_minutes,
		 total_distance, distance_unit, total_energy, energy_unit,
		 heart_rate_min, heart_rate_avg, heart_rate_max,
		 date, source_name, automation_type, session_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertExercise writes an exercise session unless one with the same natural
// key already exists. Returns true when a new row was inserted.
func (d *DB) InsertExercise(e *models.ExerciseSession) (bool, error) {
	res, err := d.db.Exec(insertExerciseSQL, exerciseArgs(e)...)
	if err != nil {
		return false, fmt.Errorf("insert exercise: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert exercise: %w", err)
	}
	return n > 0, nil
}

// InsertExerciseTx is InsertExercise inside an existing batch transaction.
func InsertExerciseTx(tx *sql.Tx, e *models.ExerciseSession) (bool, error) {
	res, err := tx.Exec(insertExerciseSQL, exerciseArgs(e)...)
	if err != nil {
		return false, fmt.Errorf("insert exercise: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert exercise: %w", err)
	}
	return n > 0, nil
}

func exerciseArgs(e *models.ExerciseSession) []interface{} {
	var end interface{}
	if e.EndTime != nil {
		end = e.EndTime.Format(time.RFC3339)
	}
	return []interface{}{
		e.PatientID, e.ActivityType, e.Timestamp.Format(time.RFC3339), end,
		e.DurationMinutes,
		e.Distance, e.DistanceUnit, e.Energy, e.EnergyUnit,
		e.HeartRateMin, e.HeartRateAvg, e.HeartRateMax,
		e.Date, e.SourceName, e.AutomationType, e.SessionID,
		e.CreatedAt.Format(time.RFC3339),
	}
}

// ListExercise retrieves exercise sessions newest-first, optionally filtered
// by an inclusive date range. limit <= 0 means unlimited.
func (d *DB) ListExercise(patientID string, r DateRange, limit int) ([]*models.ExerciseSession, error) {
	return d.queryExercise(patientID, r, limit, "DESC")
}

// ExerciseSeries retrieves exercise sessions oldest-first for analysis.
func (d *DB) ExerciseSeries(patientID string, r DateRange) ([]*models.ExerciseSession, error) {
	return d.queryExercise(patientID, r, 0, "ASC")
}

func (d *DB) queryExercise(patientID string, r DateRange, limit int, order string) ([]*models.ExerciseSession, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercise WHERE patient_id = ?`
	args := []interface{}{patientID}

	if !r.IsZero() {
		query += " AND timestamp >= ? AND timestamp < ?"
		args = append(args,
			r.Start.Format(time.RFC3339),
			r.End.AddDate(0, 0, 1).Format(time.RFC3339))
	}

	query += " ORDER BY timestamp " + order
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercise: %w", err)
	}
	defer rows.Close()

	return scanExerciseRows(rows)
}

func scanExerciseRows(rows *sql.Rows) ([]*models.ExerciseSession, error) {
	var sessions []*models.ExerciseSession

	for rows.Next() {
		var e models.ExerciseSession
		var ts, createdAt string
		var end, distUnit, energyUnit, source, automation, session sql.NullString

		err := rows.Scan(&e.ID, &e.PatientID, &e.ActivityType, &ts, &end,
			&e.DurationMinutes,
			&e.Distance, &distUnit, &e.Energy, &energyUnit,
			&e.HeartRateMin, &e.HeartRateAvg, &e.HeartRateMax,
			&e.Date, &source, &automation, &session, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}

		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if end.Valid {
			if t, err := time.Parse(time.RFC3339, end.String); err == nil {
				e.EndTime = &t
			}
		}
		e.DistanceUnit = distUnit.String
		e.EnergyUnit = energyUnit.String
		e.SourceName = source.String
		e.AutomationType = automation.String
		e.SessionID = session.String

		sessions = append(sessions, &e)
	}

	return sessions, rows.Err()
}
