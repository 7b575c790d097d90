package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per fired alert, delivered or not.
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			fired_at INTEGER NOT NULL,
			caption TEXT NOT NULL,
			regions TEXT NOT NULL DEFAULT '[]',
			largest_area INTEGER NOT NULL DEFAULT 0,
			image_bytes INTEGER NOT NULL DEFAULT 0,
			delivered INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_alerts_fired_at ON alerts(fired_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
