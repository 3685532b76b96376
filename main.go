// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"earlyjobs/api/database"
	"earlyjobs/api/handlers"
	"earlyjobs/api/middleware"
	"earlyjobs/api/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize PostgreSQL Database (for admin users) ---
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// --- Initialize Session Store (MongoDB, in-memory fallback for dev) ---
	var sessionStore store.SessionStore
	if os.Getenv("MONGODB_URL") != "" {
		mongoClient, err := database.NewMongoDB()
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB database: %v", err)
		}
		defer mongoClient.Close()

		mongoStore := store.NewMongoSessionStore(mongoClient.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Printf("Failed to ensure session indexes: %v", err)
		}
		cancel()
		sessionStore = mongoStore
	} else {
		log.Println("MONGODB_URL not set. Using in-memory session store (development only, data is not persisted).")
		sessionStore = store.NewMemorySessionStore()
	}

	// --- Initialize Stores and Handlers ---
	userStore := store.NewUserStore(dbClient.DB)
	authHandlers := handlers.NewAuthHandlers(userStore)
	trackingHandlers := handlers.NewTrackingHandlers(sessionStore)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Admin authentication endpoints
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		marketing := api.Group("/marketing")
		{
			// Tracking ingress stays open: a failed or blocked tracking call
			// must never get in the way of the visitor's download.
			marketing.POST("/track", trackingHandlers.Track)
			marketing.GET("/session/:sessionId", trackingHandlers.GetSession)
			marketing.GET("/download-url", trackingHandlers.GetDownloadURL)

			// Analytics read side requires a valid admin JWT.
			protected := marketing.Group("/")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/analytics", trackingHandlers.GetAnalytics)
				protected.GET("/all", trackingHandlers.ListSessions)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Marketing API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Marketing API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
