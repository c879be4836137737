package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	factory := services.NewStorageFactory(cfg, logger)

	if err := factory.ValidateR2Configuration(); err != nil {
		log.Fatalf("R2 configuration validation failed: %v", err)
	}

	fmt.Println("R2 configuration is valid")
	fmt.Printf("Storage Information:\n")
	fmt.Printf("  Bucket Name: %s\n", cfg.R2.BucketName)
	fmt.Printf("  Public URL: %s\n", cfg.R2.PublicURL)
	fmt.Printf("  Fallback Path: %s\n", cfg.Storage.LocalPath)

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		fmt.Println("\nSetting up R2 bucket...")

		if err := factory.SetupR2Bucket(context.Background()); err != nil {
			log.Fatalf("Failed to set up R2 bucket: %v", err)
		}

		fmt.Println("R2 bucket setup completed successfully!")
	} else {
		fmt.Println("\nTo set up the R2 bucket, run: go run ./cmd/setup-r2 setup")
	}
}
