// main.go
// PlantQuest API - quest lifecycle engine for community plant care
// Firestore-backed plant registry, quest scheduler, and duplicate guard

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"plantquest/chat"
	"plantquest/config"
	"plantquest/db"
	"plantquest/guard"
	"plantquest/handlers"
	"plantquest/identify"
	"plantquest/middleware"
	"plantquest/quest"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting PlantQuest API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx := context.Background()
	store, err := db.NewFirestore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer store.Close()

	// Quest engine
	scheduler := quest.NewScheduler(store)
	completion := quest.NewCompletion(store)
	finder := quest.NewNearbyFinder(store)
	reconciler := quest.NewReconciler(store)

	// Duplicate guard and plant identification
	dupGuard := guard.New(store, cfg.Guard.ProximityDegrees, cfg.Guard.HammingThreshold)
	identifier := identify.NewClient(cfg.Identify.APIKey)

	// Plant chat is optional; it stays off without a Gemini key.
	var assistant *chat.Assistant
	if cfg.Gemini.APIKey != "" {
		assistant, err = chat.NewAssistant(ctx, cfg.Gemini.APIKey, store)
		if err != nil {
			log.Fatalf("❌ Failed to initialize plant chat: %v", err)
		}
		defer assistant.Close()
		log.Printf("💬 Plant chat enabled")
	}

	// Initialize handlers
	plantHandler := handlers.NewPlantHandler(store, identifier, dupGuard, scheduler, reconciler)
	userHandler := handlers.NewUserHandler(store, completion, finder)
	chatHandler := handlers.NewChatHandler(assistant)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", handleHealth)

	// Plant endpoints
	mux.HandleFunc("/api/register-plant", plantHandler.RegisterPlant)
	mux.HandleFunc("/api/check-health", plantHandler.CheckHealth)
	mux.HandleFunc("/api/plant-chat", chatHandler.PlantChat)

	// User endpoints
	mux.HandleFunc("/user/register", userHandler.RegisterUser)
	mux.HandleFunc("/user/location", userHandler.UpdateLocation)
	mux.HandleFunc("/user/adopt", userHandler.Adopt)
	mux.HandleFunc("/user/quests", userHandler.Quests)
	mux.HandleFunc("/user/complete_quest", userHandler.CompleteQuest)
	mux.HandleFunc("/quests/nearby", userHandler.NearbyQuests)

	// Operational triggers (cron / manual)
	mux.HandleFunc("/generate_quests", plantHandler.GenerateQuests)
	mux.HandleFunc("/internal/reconcile", plantHandler.Reconcile)

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
