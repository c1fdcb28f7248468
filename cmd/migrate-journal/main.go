// migrate-journal copies the crafting journal from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-journal \
//	    -sqlite data/crucible.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user crucible \
//	    -pg-password crucible \
//	    -pg-database crucible
package main

import (
	"flag"
	"log"

	"github.com/lawnchairsociety/crucible/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/crucible.db", "Path to SQLite journal")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "crucible", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "crucible", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without making changes")
	flag.Parse()

	log.Println("Crucible journal migration")
	log.Println("==========================")

	log.Printf("Opening SQLite journal: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite journal: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL journal: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(database.Config{
		Driver:   string(database.DialectPostgres),
		Postgres: pg,
	})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL journal: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	stats, err := database.CopyJournal(src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed after %d entries: %v", stats.Copied, err)
	}

	log.Println("==========================")
	log.Printf("Migration complete! Copied %d entries, skipped %d already present", stats.Copied, stats.Skipped)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
