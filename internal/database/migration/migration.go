package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_components",
		SQL: `CREATE TABLE IF NOT EXISTS components (
  id         UUID        PRIMARY KEY,
  name       TEXT        NOT NULL,
  parameters TEXT,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_components_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_components_name ON components (name);`,
	},
	{
		Name: "create_index_components_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_components_created_at ON components (created_at);`,
	},
}

// EnsureMigrated creates the components schema when it does not exist yet.
// The check is a cheap sentinel query so repeated startups skip the DDL.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()

	var exists bool
	const sentinel = "SELECT to_regclass('public.components') IS NOT NULL"
	if err := db.QueryRowContext(ctx, sentinel).Scan(&exists); err != nil {
		logJSON(map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"level":         "error",
			"error_message": err.Error(),
			"db_host":       dbHost,
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(map[string]any{
			"component": "database",
			"event":     "db_migration_skip",
			"msg":       "schema already exists, skipping migration",
			"db_host":   dbHost,
		})
		return nil
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logJSON(map[string]any{
				"component":      "database",
				"event":          "db_migration_failed",
				"level":          "error",
				"migration_step": step.Name,
				"error_message":  err.Error(),
				"db_host":        dbHost,
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
	}

	logJSON(map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
