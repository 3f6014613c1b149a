package shared

import (
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("LoadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one embedded migration")
		}

		for i, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration %d is missing up or down SQL", m.Version)
			}
			if i > 0 && migrations[i-1].Version >= m.Version {
				t.Error("expected migrations sorted by version")
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"credentials", "client_registration"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}

		t.Run("Idempotent", func(t *testing.T) {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("re-running migrations should be a no-op: %v", err)
			}

			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
				t.Fatalf("failed to count applied migrations: %v", err)
			}
			migrations, _ := loadMigrations()
			if count != len(migrations) {
				t.Errorf("expected %d applied migrations, got %d", len(migrations), count)
			}
		})

		t.Run("Rollback", func(t *testing.T) {
			if err := RollbackMigration(db); err != nil {
				t.Fatalf("failed to roll back: %v", err)
			}

			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='credentials'").Scan(&name)
			if err == nil {
				t.Error("expected the credentials table to be dropped")
			}
		})
	})

	t.Run("Rollback Empty Database", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("first rollback should succeed: %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with nothing left to roll back")
		}
	})
}
