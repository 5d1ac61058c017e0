// ABOUTME: Sleep session persistence for SQLite storage.
// ABOUTME: Idempotent insert on (patient_id, bedtime) plus date-range queries.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

const sleepColumns = `id, patient_id, date, bedtime, wake_time, duration_minutes, sleep_stage,
	deep_minutes, light_minutes, rem_minutes, efficiency,
	heart_rate_min, heart_rate_avg, heart_rate_max,
	source_name, automation_type, session_id, created_at`

const insertSleepSQL = `
	INSERT OR IGNORE INTO sleep
		(patient_id, date, bedtime, wake_time, duration_minutes, sleep_stage,
		 deep_minutes, light_minutes, rem_minutes, efficiency,
		 heart_rate_min, heart_rate_avg, heart_rate_max,
		 source_name, automation_type, session_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertSleep writes a sleep session unless one with the same natural key
// already exists. Returns true when a new row was inserted.
func (d *DB) InsertSleep(s *models.SleepSession) (bool, error) {
	res, err := d.db.Exec(insertSleepSQL, sleepArgs(s)...)
	if err != nil {
		return false, fmt.Errorf("insert sleep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert sleep: %w", err)
	}
	return n > 0, nil
}

// InsertSleepTx is InsertSleep inside an existing batch transaction.
func InsertSleepTx(tx *sql.Tx, s *models.SleepSession) (bool, error) {
	res, err := tx.Exec(insertSleepSQL, sleepArgs(s)...)
	if err != nil {
		return false, fmt.Errorf("insert sleep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert sleep: %w", err)
	}
	return n > 0, nil
}

func sleepArgs(s *models.SleepSession) []interface{} {
	return []interface{}{
		s.PatientID, s.Date,
		s.Bedtime.Format(time.RFC3339), s.WakeTime.Format(time.RFC3339),
		s.DurationMinutes, s.Stage,
		s.DeepMinutes, s.LightMinutes, s.REMMinutes, s.Efficiency,
		s.HeartRateMin, s.HeartRateAvg, s.HeartRateMax,
		s.SourceName, s.AutomationType, s.SessionID,
		s.CreatedAt.Format(time.RFC3339),
	}
}

// ListSleep retrieves sleep sessions newest-first, optionally filtered by an
// inclusive date range. limit <= 0 means unlimited.
func (d *DB) ListSleep(patientID string, r DateRange, limit int) ([]*models.SleepSession, error) {
	return d.querySleep(patientID, r, limit, "DESC")
}

// SleepSeries retrieves sleep sessions oldest-first for analysis.
func (d *DB) SleepSeries(patientID string, r DateRange) ([]*models.SleepSession, error) {
	return d.querySleep(patientID, r, 0, "ASC")
}

func (d *DB) querySleep(patientID string, r DateRange, limit int, order string) ([]*models.SleepSession, error) {
	query := `SELECT ` + sleepColumns + ` FROM sleep WHERE patient_id = ?`
	args := []interface{}{patientID}

	if !r.IsZero() {
		// Sleep filters on the session's calendar date, end inclusive.
		query += " AND date >= ? AND date <= ?"
		args = append(args, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}

	query += " ORDER BY bedtime " + order
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sleep: %w", err)
	}
	defer rows.Close()

	return scanSleepRows(rows)
}

func scanSleepRows(rows *sql.Rows) ([]*models.SleepSession, error) {
	var sessions []*models.SleepSession

	for rows.Next() {
		var s models.SleepSession
		var bedtime, wakeTime, createdAt string
		var stage, source, automation, session sql.NullString

		err := rows.Scan(&s.ID, &s.PatientID, &s.Date, &bedtime, &wakeTime,
			&s.DurationMinutes, &stage,
			&s.DeepMinutes, &s.LightMinutes, &s.REMMinutes, &s.Efficiency,
			&s.HeartRateMin, &s.HeartRateAvg, &s.HeartRateMax,
			&source, &automation, &session, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan sleep: %w", err)
		}

		s.Bedtime, _ = time.Parse(time.RFC3339, bedtime)
		s.WakeTime, _ = time.Parse(time.RFC3339, wakeTime)
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.Stage = stage.String
		s.SourceName = source.String
		s.AutomationType = automation.String
		s.SessionID = session.String

		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}
