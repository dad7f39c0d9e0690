package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/linemk/perfume-shop/internal/app"
	"github.com/linemk/perfume-shop/internal/config"
)

const migrationsTable = "schema_migrations"

// buildMigrateDSN добавляет к DSN имя таблицы версий мигратора
func buildMigrateDSN(dbCfg config.DatabaseConfig, table string) string {
	return app.DSN(dbCfg) + "&x-migrations-table=" + table
}

type options struct {
	migrationsPath string
	direction      string
	steps          int
}

func parseFlags() options {
	var opts options
	// -config читает config.MustLoad через flag.Lookup
	flag.String("config", "", "path to config file")
	flag.StringVar(&opts.migrationsPath, "migrations-path", "", "path to migration files")
	flag.StringVar(&opts.direction, "direction", "up", "up or down")
	flag.IntVar(&opts.steps, "steps", 0, "number of migrations to apply, 0 means all")
	flag.Parse()
	return opts
}

// apply выполняет миграции в нужную сторону. ErrNoChange не считается ошибкой.
func apply(m *migrate.Migrate, opts options) error {
	var err error
	switch {
	case opts.steps != 0 && opts.direction == "down":
		err = m.Steps(-opts.steps)
	case opts.steps != 0:
		err = m.Steps(opts.steps)
	case opts.direction == "down":
		err = m.Down()
	case opts.direction == "up":
		err = m.Up()
	default:
		return fmt.Errorf("unknown direction %q", opts.direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No migrations to apply")
		return nil
	}
	return err
}

func main() {
	opts := parseFlags()
	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if opts.migrationsPath != "" {
		migrationsPath = opts.migrationsPath
	}

	m, err := migrate.New("file://"+migrationsPath, buildMigrateDSN(cfg.Database, migrationsTable))
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if err := apply(m, opts); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("Database has no applied migrations")
	case err != nil:
		log.Fatalf("failed to read migration version: %v", err)
	default:
		log.Printf("Migrations applied, version %d (dirty: %t)", version, dirty)
	}

	if err := printTables(app.DSN(cfg.Database)); err != nil {
		log.Fatalf("failed to list tables: %v", err)
	}
}

func printTables(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Println("Current tables in the database:")
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return err
		}
		fmt.Println(" -", tableName)
	}
	return rows.Err()
}
