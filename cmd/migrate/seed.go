package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/saeid-a/CoachBooking/internal/database"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/repository"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedWindow is one entry of the seed file:
//
//	windows:
//	  - coach_id: 10
//	    day_of_week: 1
//	    start_time: "14:00"
//	    end_time: "15:00"
//	    max_sessions_per_slot: 3
type seedWindow struct {
	CoachID            int64  `yaml:"coach_id"`
	DayOfWeek          int    `yaml:"day_of_week"`
	StartTime          string `yaml:"start_time"`
	EndTime            string `yaml:"end_time"`
	MaxSessionsPerSlot int    `yaml:"max_sessions_per_slot"`
	IsActive           *bool  `yaml:"is_active"`
}

type windowUpserter interface {
	Upsert(ctx context.Context, window models.AvailabilityWindow) (int64, error)
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load coach availability windows from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		windows, err := loadSeedFile(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		pool, err := database.NewPool(ctx, dbURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		count, err := seedAvailability(ctx, repository.NewAvailabilityRepository(pool), windows)
		if err != nil {
			return err
		}
		log.Printf("Seeded %d availability windows", count)
		return nil
	},
}

func loadSeedFile(path string) ([]models.AvailabilityWindow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSeed(raw)
}

// parseSeed decodes and validates every window before anything is written.
// Windows are active unless is_active is set to false explicitly.
func parseSeed(raw []byte) ([]models.AvailabilityWindow, error) {
	var doc struct {
		Windows []seedWindow `yaml:"windows"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	windows := make([]models.AvailabilityWindow, 0, len(doc.Windows))
	for i, entry := range doc.Windows {
		window := models.AvailabilityWindow{
			CoachID:            models.AccountID(entry.CoachID),
			DayOfWeek:          entry.DayOfWeek,
			StartTime:          entry.StartTime,
			EndTime:            entry.EndTime,
			IsActive:           entry.IsActive == nil || *entry.IsActive,
			MaxSessionsPerSlot: entry.MaxSessionsPerSlot,
		}
		if err := window.Validate(); err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func seedAvailability(ctx context.Context, store windowUpserter, windows []models.AvailabilityWindow) (int, error) {
	for i, window := range windows {
		if _, err := store.Upsert(ctx, window); err != nil {
			return i, fmt.Errorf("upsert window %d: %w", i, err)
		}
	}
	return len(windows), nil
}
