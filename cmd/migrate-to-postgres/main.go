// migrate-to-postgres copies stored dungeon maps from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/dungeongen.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user dungeongen \
//	    -pg-password dungeongen \
//	    -pg-database dungeongen
package main

import (
	"flag"
	"log"

	"github.com/lawnchairsociety/dungeongen/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/dungeongen.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "dungeongen", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "dungeongen", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "dungeongen", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Map Migration")
	log.Println("==================================")

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	pg := database.DefaultPostgresConfig()
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.Database)
	dst, err := database.OpenWithConfig(database.Config{Driver: string(database.DialectPostgres), Postgres: pg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	stats, err := database.CopyMaps(src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed after %d maps: %v", stats.Copied, err)
	}

	log.Println("==================================")
	log.Printf("Migration complete! Copied %d maps, skipped %d already present", stats.Copied, stats.Skipped)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
