package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"checkout-payment-api/config"
	"checkout-payment-api/database"
	"checkout-payment-api/handlers"
	"checkout-payment-api/middleware"
	"checkout-payment-api/queue"
	"checkout-payment-api/services/auth"
	"checkout-payment-api/services/backend"
	"checkout-payment-api/services/checkout"
	"checkout-payment-api/worker"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		// Only slow requests and errors are worth a log line.
		elapsed := time.Since(start)
		if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
			log.Printf(
				"%s %s %s %d %v",
				r.Method,
				r.RequestURI,
				r.RemoteAddr,
				wrapper.status,
				elapsed,
			)
		}
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	numCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(numCPU)
	log.Printf("Server starting with %d CPUs available", numCPU)

	cfg := config.Load()
	log.Printf("Configuration loaded successfully")

	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
			retries+1, err, retryDelay)
		time.Sleep(retryDelay)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Successfully connected to database")

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "checkout_jobs")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer jobQueue.Close()
	log.Println("Successfully connected to Redis")

	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.ChannelToken)
	tokenService := auth.NewSessionTokenService(cfg.Session.TokenSecret, "checkout-payment-api")
	cookieStore := sessions.NewCookieStore([]byte(cfg.Session.CookieSecret))
	registry := checkout.NewRegistry()

	workerConcurrency := cfg.Redis.WorkerConcurrency
	if workerConcurrency < 2 {
		workerConcurrency = 2
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}

	checkoutWorker := worker.NewWorker(jobQueue, db, registry)
	checkoutWorker.Start(workerConcurrency)
	defer checkoutWorker.Stop()
	log.Printf("Started checkout worker with %d threads", workerConcurrency)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	checkoutHandler, err := handlers.NewCheckoutHandler(
		registry, db, backendClient, jobQueue, tokenService, cookieStore,
		cfg.Provider, sessionTTL)
	if err != nil {
		log.Fatalf("Failed to initialize checkout handler: %v", err)
	}

	cardsHandler, err := handlers.NewCardsHandler(registry)
	if err != nil {
		log.Fatalf("Failed to initialize cards handler: %v", err)
	}

	webhookHandler := handlers.NewWebhookHandler(registry, jobQueue)

	rateLimiter, err := middleware.NewRateLimiter(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer rateLimiter.Close()

	sessionAuth := middleware.SessionTokenMiddleware(tokenService)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	router.Use(middleware.SecurityHeadersMiddleware)
	router.Use(rateLimiter.RateLimitMiddleware())

	api := router.PathPrefix("/api").Subrouter()

	// Session lifecycle. Start is the only unauthenticated checkout route;
	// it issues the token the rest require.
	api.HandleFunc("/checkout/start", checkoutHandler.StartCheckout).Methods("POST", "OPTIONS")

	sessionRouter := api.PathPrefix("/checkout").Subrouter()
	sessionRouter.Use(sessionAuth)
	sessionRouter.HandleFunc("/pay", checkoutHandler.Pay).Methods("POST", "OPTIONS")
	sessionRouter.HandleFunc("/select", checkoutHandler.Select).Methods("POST", "OPTIONS")
	sessionRouter.HandleFunc("/status", checkoutHandler.Status).Methods("GET", "OPTIONS")
	sessionRouter.HandleFunc("/teardown", checkoutHandler.Teardown).Methods("POST", "OPTIONS")

	// Saved-card surface, bound to the caller's session.
	cardsRouter := api.NewRoute().Subrouter()
	cardsRouter.Use(sessionAuth)
	cardsRouter.HandleFunc("/payment-methods", cardsHandler.GetPaymentMethods).Methods("GET", "OPTIONS")
	cardsRouter.HandleFunc("/cards", cardsHandler.GetCards).Methods("GET", "OPTIONS")
	cardsRouter.HandleFunc("/cards", cardsHandler.SaveCard).Methods("POST", "OPTIONS")
	cardsRouter.HandleFunc("/cards/{id}", cardsHandler.RemoveCard).Methods("DELETE", "OPTIONS")

	// Provider redirect after a 3DS challenge; authenticated by session id
	// in the form body, not by bearer token, since the provider posts it.
	api.HandleFunc("/provider/webhook/challenge-return", webhookHandler.HandleChallengeReturn).Methods("POST")

	startTime := time.Now()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		health := struct {
			Status    string `json:"status"`
			Time      string `json:"time"`
			Database  string `json:"database"`
			Redis     string `json:"redis"`
			Sessions  int    `json:"sessions"`
			Uptime    string `json:"uptime"`
			GoVersion string `json:"go_version"`
		}{
			Status:    "ok",
			Time:      time.Now().Format(time.RFC3339),
			Database:  "connected",
			Redis:     "connected",
			Sessions:  registry.Len(),
			Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion: runtime.Version(),
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()

		if err := db.GetDB().PingContext(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}

		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()

		if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopping checkout worker...")
	checkoutWorker.Stop()

	time.Sleep(2 * time.Second)

	log.Println("Closing database connections...")
	db.Close()

	log.Println("Closing Redis connections...")
	jobQueue.Close()

	log.Println("Server exited properly")
}
