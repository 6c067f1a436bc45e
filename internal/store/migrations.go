package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - persisted runtime controls as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			ticks INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			avg_fps REAL NOT NULL DEFAULT 0,
			mean_frame_ms REAL NOT NULL DEFAULT 0,
			max_frame_ms REAL NOT NULL DEFAULT 0,
			last_mode TEXT NOT NULL DEFAULT '',
			exit_reason TEXT NOT NULL DEFAULT ''
		)`,

		// Perf samples table - periodic per-session performance snapshots
		`CREATE TABLE IF NOT EXISTS perf_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			fps REAL NOT NULL,
			frame_ms REAL NOT NULL,
			transform_ms REAL NOT NULL,
			mode TEXT NOT NULL,
			skip_interval INTEGER NOT NULL,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_perf_samples_session_id ON perf_samples(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
