package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/database"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
	)
	flag.Parse()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, database.Config(config.LoadDatabase()))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch {
	case *statusFlag:
		states, err := db.MigrationStatus(ctx)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		for _, s := range states {
			mark := "pending"
			if s.Applied {
				mark = "applied"
			}
			fmt.Printf("  %03d_%-30s %s\n", s.Version, s.Name, mark)
		}
	case *upFlag:
		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("All migrations completed successfully!")
	default:
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/migrate -status   # Show migration status")
		fmt.Println("  go run ./cmd/migrate -up       # Run pending migrations")
		os.Exit(1)
	}
}
