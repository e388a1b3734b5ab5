package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"beatflow/backend/internal/api/handler"
	"beatflow/backend/internal/classifier"
	"beatflow/backend/internal/models"
	"beatflow/backend/internal/moderation"
	"beatflow/backend/internal/quota"
	"beatflow/backend/internal/redisstore"
	"beatflow/backend/internal/scheduler"
	"beatflow/backend/internal/storage"
	"beatflow/backend/internal/suspension"
	"beatflow/backend/internal/telegram"
	"beatflow/backend/internal/verdictcache"
)

func setupDatabase() *gorm.DB {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.Rating{},
		&models.Playlist{},
		&models.ModerationReport{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete.")
	return db
}

func main() {
	log.Println("Starting BeatFlow Moderation Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Dependencies
	db := setupDatabase()
	s := storage.NewStorageService(db)

	store := redisstore.New(redisstore.Config{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	store.Connect(ctx)
	defer store.Disconnect()

	// 2. Moderation components
	guard := quota.New(store)

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

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		chatID, err := strconv.ParseInt(os.Getenv("MODERATION_ALERT_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatalf("MODERATION_ALERT_CHAT_ID is not a valid chat id: %v", err)
		}
		notifier, err := telegram.NewNotifier(token, chatID)
		if err != nil {
			log.Fatalf("Failed to start Telegram alert bot: %v", err)
		}
		pipeline.Notifier = notifier
	}

	// 3. Retry scheduler
	sweep := scheduler.New(pipeline, s, guard, scheduler.LoadConfig())
	go sweep.Run(ctx)

	// 4. Gin routing
	r := gin.Default()
	h := handler.NewHandler(s, pipeline, guard)

	r.POST("/reports", h.CreateReport)
	r.GET("/reports/:id", h.GetReport)
	r.GET("/moderation/quota", h.QuotaStatus)

	server := &http.Server{
		Addr:           ":8080",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
