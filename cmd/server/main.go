package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"careagent/internal/core"
	"careagent/internal/db"
	httpserver "careagent/internal/http"
	"careagent/internal/llm"

	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	notifyChannel := os.Getenv("POSTGRES_NOTIFY_CHANNEL")
	if notifyChannel == "" {
		notifyChannel = "critical_alerts"
	}
	// Open database connection
	dbConn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := db.NewRepository(dbConn)
	notifier := db.NewNotifier(dbConn, dbURL, notifyChannel)
	// Initialize OpenAI LLM client (uses env: OPENAI_API_KEY, OPENAI_MODEL)
	llmClient := llm.NewOpenAIClient()
	coordinator := core.NewCoordinator(llmClient, repo)
	// Create HTTP server
	srv := httpserver.NewServer(repo, coordinator, notifier)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	log.Printf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
