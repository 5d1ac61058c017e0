// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines glucose, sleep, and exercise tables with natural-key uniqueness.
package storage

// initSchema creates or updates the database schema. The UNIQUE indexes are
// the deduplication mechanism: concurrent writers racing on the same natural
// key resolve at the constraint, never in application code.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS glucose (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL,
		glucose_mg_dl REAL NOT NULL,
		unit TEXT NOT NULL DEFAULT 'mg/dL',
		timestamp DATETIME NOT NULL,
		date TEXT NOT NULL,
		hour INTEGER,
		minute INTEGER,
		source_name TEXT,
		automation_type TEXT,
		session_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (patient_id, timestamp)
	);

	CREATE TABLE IF NOT EXISTS sleep (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL,
		date TEXT NOT NULL,
		bedtime DATETIME NOT NULL,
		wake_time DATETIME NOT NULL,
		duration_minutes REAL NOT NULL,
		sleep_stage TEXT,
		deep_minutes REAL,
		light_minutes REAL,
		rem_minutes REAL,
		efficiency REAL,
		heart_rate_min REAL,
		heart_rate_avg REAL,
		heart_rate_max REAL,
		source_name TEXT,
		automation_type TEXT,
		session_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (patient_id, bedtime)
	);

	CREATE TABLE IF NOT EXISTS exercise (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		end_time DATETIME,
		duration_minutes REAL NOT NULL DEFAULT 0,
		total_distance REAL,
		distance_unit TEXT,
		total_energy REAL,
		energy_unit TEXT,
		heart_rate_min REAL,
		heart_rate_avg REAL,
		heart_rate_max REAL,
		date TEXT NOT NULL,
		source_name TEXT,
		automation_type TEXT,
		session_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (patient_id, activity_type, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_glucose_patient_ts ON glucose(patient_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_glucose_patient_date ON glucose(patient_id, date, hour);
	CREATE INDEX IF NOT EXISTS idx_sleep_patient_date ON sleep(patient_id, date);
	CREATE INDEX IF NOT EXISTS idx_sleep_bedtime ON sleep(bedtime DESC);
	CREATE INDEX IF NOT EXISTS idx_exercise_patient_ts ON exercise(patient_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_exercise_patient_date ON exercise(patient_id, date);
	CREATE INDEX IF NOT EXISTS idx_exercise_type ON exercise(activity_type);
	`

	_, err := d.db.Exec(schema)
	return err
}
