// ABOUTME: Glucose sample persistence for SQLite storage.
// ABOUTME: Idempotent insert on (patient_id, timestamp) plus range queries.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nmrastogi/patient-mcp/internal/models"
)

const glucoseColumns = `id, patient_id, glucose_mg_dl, unit, timestamp, date, hour, minute,
	source_name, automation_type, session_id, created_at`

const insertGlucoseSQL = `
	INSERT OR IGNORE INTO glucose
		(patient_id, glucose_mg_dl, unit, timestamp, date, hour, minute,
		 source_name, automation_type, session_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertGlucose writes a glucose sample unless one with the same natural key
// already exists. Returns true when a new row was inserted.
func (d *DB) InsertGlucose(g *models.GlucoseSample) (bool, error) {
	res, err := d.db.Exec(insertGlucoseSQL, glucoseArgs(g)...)
	if err != nil {
		return false, fmt.Errorf("insert glucose: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert glucose: %w", err)
	}
	return n > 0, nil
}

// InsertGlucoseTx is InsertGlucose inside an existing batch transaction.
func InsertGlucoseTx(tx *sql.Tx, g *models.GlucoseSample) (bool, error) {
	res, err := tx.Exec(insertGlucoseSQL, glucoseArgs(g)...)
	if err != nil {
		return false, fmt.Errorf("insert glucose: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert glucose: %w", err)
	}
	return n > 0, nil
}

func glucoseArgs(g *models.GlucoseSample) []interface{} {
	unit := g.Unit
	if unit == "" {
		unit = models.DefaultGlucoseUnit
	}
	return []interface{}{
		g.PatientID, g.Value, unit,
		g.Timestamp.Format(time.RFC3339), g.Date, g.Hour, g.Minute,
		g.SourceName, g.AutomationType, g.SessionID,
		g.CreatedAt.Format(time.RFC3339),
	}
}

// ListGlucose retrieves glucose samples newest-first, optionally filtered by
// an inclusive date range. limit <= 0 means unlimited.
func (d *DB) ListGlucose(patientID string, r DateRange, limit int) ([]*models.GlucoseSample, error) {
	return d.queryGlucose(patientID, r, limit, "DESC")
}

// GlucoseSeries retrieves glucose samples oldest-first for analysis.
func (d *DB) GlucoseSeries(patientID string, r DateRange) ([]*models.GlucoseSample, error) {
	return d.queryGlucose(patientID, r, 0, "ASC")
}

func (d *DB) queryGlucose(patientID string, r DateRange, limit int, order string) ([]*models.GlucoseSample, error) {
	query := `SELECT ` + glucoseColumns + ` FROM glucose WHERE patient_id = ?`
	args := []interface{}{patientID}

	if !r.IsZero() {
		// End is an inclusive calendar date: filter timestamp < end+1d.
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
		return nil, fmt.Errorf("list glucose: %w", err)
	}
	defer rows.Close()

	return scanGlucoseRows(rows)
}

// RecentGlucose retrieves readings at or after the given instant, newest-first.
func (d *DB) RecentGlucose(patientID string, since time.Time, limit int) ([]*models.GlucoseSample, error) {
	query := `SELECT ` + glucoseColumns + ` FROM glucose
		WHERE patient_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC`
	args := []interface{}{patientID, since.Format(time.RFC3339)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent glucose: %w", err)
	}
	defer rows.Close()

	return scanGlucoseRows(rows)
}

// GlucoseStats summarizes the readings at or after the given instant.
type GlucoseStats struct {
	Count        int        `json:"total_readings"`
	Average      float64    `json:"average_glucose"`
	Min          float64    `json:"min_glucose"`
	Max          float64    `json:"max_glucose"`
	FirstReading *time.Time `json:"first_reading_time,omitempty"`
	LastReading  *time.Time `json:"last_reading_time,omitempty"`
}

// GlucoseStats computes count/avg/min/max over readings since the given
// instant. A window with no readings returns Count 0, not an error.
func (d *DB) GlucoseStats(patientID string, since time.Time) (*GlucoseStats, error) {
	row := d.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(AVG(glucose_mg_dl), 0),
		       COALESCE(MIN(glucose_mg_dl), 0),
		       COALESCE(MAX(glucose_mg_dl), 0),
		       MIN(timestamp), MAX(timestamp)
		FROM glucose WHERE patient_id = ? AND timestamp >= ?`,
		patientID, since.Format(time.RFC3339))

	var s GlucoseStats
	var first, last sql.NullString
	if err := row.Scan(&s.Count, &s.Average, &s.Min, &s.Max, &first, &last); err != nil {
		return nil, fmt.Errorf("glucose stats: %w", err)
	}
	if first.Valid {
		if t, err := time.Parse(time.RFC3339, first.String); err == nil {
			s.FirstReading = &t
		}
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			s.LastReading = &t
		}
	}
	return &s, nil
}

func scanGlucoseRows(rows *sql.Rows) ([]*models.GlucoseSample, error) {
	var samples []*models.GlucoseSample

	for rows.Next() {
		var g models.GlucoseSample
		var ts, createdAt string
		var source, automation, session sql.NullString

		err := rows.Scan(&g.ID, &g.PatientID, &g.Value, &g.Unit, &ts, &g.Date,
			&g.Hour, &g.Minute, &source, &automation, &session, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan glucose: %w", err)
		}

		g.Timestamp, _ = time.Parse(time.RFC3339, ts)
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		g.SourceName = source.String
		g.AutomationType = automation.String
		g.SessionID = session.String

		samples = append(samples, &g)
	}

	return samples, rows.Err()
}
