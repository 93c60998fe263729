package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"studiobook/internal/database"
	"studiobook/internal/timeslot"

	"github.com/rs/zerolog"
)

// Однократный бэкфилл: переписывает устаревшие значения времени
// (полные таймстампы) в канонический вид "HH:MM". Строки, которые не
// удалось распознать, остаются как есть и попадают в отчет.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dbPath = flag.String("db", "./data/bookings.db", "path to sqlite db")
		dryRun = flag.Bool("dry-run", false, "report rows without rewriting them")
	)
	flag.Parse()

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bookings, err := db.GetAllBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	rewritten := 0
	skipped := 0
	unreadable := 0
	for _, booking := range bookings {
		start := timeslot.Parse(booking.StartTime)
		end := timeslot.Parse(booking.EndTime)

		if start.Kind() == timeslot.KindUnknown || end.Kind() == timeslot.KindUnknown {
			logger.Warn().
				Str("booking_id", booking.ID).
				Str("start_time", booking.StartTime).
				Str("end_time", booking.EndTime).
				Msg("unreadable time values, leaving row untouched")
			unreadable++
			continue
		}
		if start.Kind() == timeslot.KindCanonical && end.Kind() == timeslot.KindCanonical {
			skipped++
			continue
		}

		if *dryRun {
			logger.Info().
				Str("booking_id", booking.ID).
				Str("start_time", booking.StartTime).
				Str("end_time", booking.EndTime).
				Str("new_start", start.Canonical()).
				Str("new_end", end.Canonical()).
				Msg("would rewrite")
			rewritten++
			continue
		}

		if err := db.UpdateBookingTimes(ctx, booking.ID, start.Canonical(), end.Canonical()); err != nil {
			return fmt.Errorf("rewrite %s: %w", booking.ID, err)
		}
		rewritten++
	}

	fmt.Printf("done: rewritten=%d skipped=%d unreadable=%d\n", rewritten, skipped, unreadable)
	return nil
}
