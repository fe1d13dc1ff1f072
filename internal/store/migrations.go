package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Injury profiles - one row per injury type
		`CREATE TABLE IF NOT EXISTS injury_profiles (
			injury TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Profile targets - expected range and goal per joint
		`CREATE TABLE IF NOT EXISTS profile_targets (
			id TEXT PRIMARY KEY,
			injury TEXT NOT NULL REFERENCES injury_profiles(injury) ON DELETE CASCADE,
			joint TEXT NOT NULL,
			normal_min REAL NOT NULL DEFAULT 0,
			normal_max REAL NOT NULL DEFAULT 0,
			target REAL NOT NULL CHECK(target >= 0),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(injury, joint)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profile_targets_injury ON profile_targets(injury)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
