package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/database"
	"planora-ticketing/internal/models"
	"planora-ticketing/internal/repositories"
)

func main() {
	organizer := flag.String("organizer", "", "Organizer id that owns the seeded events")
	flag.Parse()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, database.Config(config.LoadDatabase()))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	eventRepo := repositories.NewEventRepository(db.DB)

	date := time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	events := []*models.Event{
		{
			ID:    "akcomsoc-2025",
			Title: "AKCOMSOC 2025",
			Description: "National conference on 5G networks and communication IoT. " +
				"Keynotes, paper presentations and hands-on sessions for students and researchers.",
			Date:        &date,
			Location:    "Main Auditorium",
			PriceINR:    decimal.NewFromInt(1000),
			OrganizerID: *organizer,
			IsPublished: true,
			IsFeatured:  true,
		},
	}

	for _, e := range events {
		existing, err := eventRepo.GetByID(ctx, e.ID)
		switch {
		case err == nil:
			fmt.Printf("Event already exists: %s (%s)\n", existing.Title, existing.ID)
			continue
		case !errors.Is(err, models.ErrEventNotFound):
			log.Fatalf("Failed to look up event %s: %v", e.ID, err)
		}

		if err := eventRepo.Create(ctx, e); err != nil {
			log.Fatalf("Failed to create event %s: %v", e.ID, err)
		}
		fmt.Printf("Created event: %s (%s) at ₹%s\n", e.Title, e.ID, e.PriceINR.StringFixed(2))
	}
}
