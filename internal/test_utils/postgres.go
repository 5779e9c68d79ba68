package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/config"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "minijob"
	dbUser     = "test_minijob"
	dbPassword = "test_minijob"
	dbSchema   = "minijob"
)

func preparePostgresContainer() (*postgres.PostgresContainer, error) {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB starts a Postgres container, applies all migrations and snapshots the
// migrated state so tests can Restore it. The returned function opens a fresh pool.
func TestWithDB() (*postgres.PostgresContainer, func() *pgxpool.Pool) {
	ctx := context.Background()

	container, err := preparePostgresContainer()
	if err != nil {
		log.Printf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:     host,
		Port:     port.Int(),
		User:     dbUser,
		Pass:     dbPassword,
		Name:     dbName,
		Schema:   dbSchema,
		MaxConns: 4,
	}

	err = database.Migrate(cfg)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	err = container.Snapshot(ctx, postgres.WithSnapshotName("postgres-test-snapshot"))
	if err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	return container, func() *pgxpool.Pool {
		db, err := database.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
		}
		return db
	}
}

// InsertUser stores a bare user row and returns its id, for repository tests that need
// a foreign key target.
func InsertUser(ctx context.Context, db *pgxpool.Pool, username string, startDay, endDay int) (int, error) {
	var id int
	err := db.QueryRow(ctx,
		`INSERT INTO users (uid, username, display_name, billing_start_day, billing_end_day, hourly_rate)
		 VALUES (gen_random_uuid()::text, $1, $1, $2, $3, 12) RETURNING id`,
		username, startDay, endDay,
	).Scan(&id)
	return id, err
}

// findProjectRoot looks for go.mod or .git walking up from the working directory.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
