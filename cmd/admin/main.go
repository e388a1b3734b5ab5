package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"beatflow/backend/internal/classifier"
	"beatflow/backend/internal/models"
	"beatflow/backend/internal/moderation"
	"beatflow/backend/internal/quota"
	"beatflow/backend/internal/redisstore"
	"beatflow/backend/internal/scheduler"
	"beatflow/backend/internal/storage"
	"beatflow/backend/internal/suspension"
	"beatflow/backend/internal/verdictcache"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: quota-status | quota-reset | sweep | report-state <report_id> | cache-invalidate <content_type> <content_id>")
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	store := redisstore.New(redisstore.Config{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	store.Connect(ctx)
	defer store.Disconnect()
	waitForStore(store)

	guard := quota.New(store)

	switch command {
	case "quota-status":
		st := guard.Status(ctx)
		if st == nil {
			log.Fatal("Quota status unavailable")
		}
		fmt.Printf("Minute: %d/%d (available %d)\n", st.Minute.Current, st.Minute.Limit, st.Minute.Available)
		fmt.Printf("Daily:  %d/%d (available %d)\n", st.Daily.Current, st.Daily.Limit, st.Daily.Available)
		if st.ResetAt != "" {
			fmt.Printf("Daily reset at %s\n", st.ResetAt)
		}
	case "quota-reset":
		if err := store.Del(ctx, "openrouter:rpm", "openrouter:daily", "openrouter:daily:reset").Err(); err != nil {
			log.Fatalf("Error resetting quota counters: %v", err)
		}
		fmt.Println("Quota counters have been reset.")
	case "sweep":
		sweepOnce(ctx, store, guard)
	case "report-state":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin report-state <report_id>")
			os.Exit(1)
		}
		s := storage.NewStorageService(openDB())
		report, err := s.GetReportByID(os.Args[2])
		if err != nil {
			log.Fatalf("Error loading report: %v", err)
		}
		if report == nil {
			log.Fatalf("Report %s not found", os.Args[2])
		}
		fmt.Printf("Report %s: %s (created %s)\n", report.ID, report.State, report.CreatedAt.Format(time.RFC3339))
	case "cache-invalidate":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin cache-invalidate <comment|rating|playlist> <content_id>")
			os.Exit(1)
		}
		contentType := models.ContentType(os.Args[2])
		switch contentType {
		case models.ContentComment, models.ContentRating, models.ContentPlaylist:
		default:
			log.Fatalf("Unknown content type %q", os.Args[2])
		}
		verdictcache.New(store).Invalidate(ctx, contentType, os.Args[3])
		fmt.Printf("Cached verdict pointer dropped for %s %s; next report re-evaluates it.\n", contentType, os.Args[3])
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func openDB() *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return db
}

// sweepOnce runs one scheduler pass synchronously, with the full
// pipeline wired the same way the service wires it.
func sweepOnce(ctx context.Context, store *redisstore.Client, guard *quota.Guard) {
	s := storage.NewStorageService(openDB())

	gateway, err := classifier.New(classifier.Options{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		Model:   os.Getenv("OPENROUTER_MODEL"),
	})
	if err != nil {
		log.Fatalf("Failed to create classifier gateway: %v", err)
	}

	suspender, err := suspension.New(suspension.Options{
		BaseURL: os.Getenv("INTERNAL_API_URL"),
		Secret:  os.Getenv("INTERNAL_SERVICE_SECRET"),
	})
	if err != nil {
		log.Fatalf("Failed to create suspension client: %v", err)
	}

	pipeline := moderation.NewService(
		s,
		moderation.NewReportLock(store),
		verdictcache.New(store),
		guard,
		gateway,
		suspender,
	)

	sweep := scheduler.New(pipeline, s, guard, scheduler.LoadConfig())
	dispatched, skipped := sweep.SweepOnce(ctx)
	fmt.Printf("Sweep complete: %d dispatched, %d skipped.\n", dispatched, skipped)
}

func waitForStore(store *redisstore.Client) {
	for i := 0; i < 20; i++ {
		if store.Get() != nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("Redis is not reachable")
}
