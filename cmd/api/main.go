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

	"github.com/selorg/ops-api/internal/config"
	"github.com/selorg/ops-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/selorg/ops-api/internal/infrastructure/jwt"
	"github.com/selorg/ops-api/internal/security"
	"github.com/selorg/ops-api/internal/sms"
	transporthttp "github.com/selorg/ops-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// SMS delivery chain; with nothing configured, OTPs are logged locally
	// instead of sent.
	dispatcher := sms.NewFromConfig(cfg.SMS)

	lockouts := security.NewLockoutStore(cfg.LockoutMaxAttempts, cfg.LockoutWindow, nil)
	lockouts.Start()
	defer lockouts.Stop()

	blocklist := security.NewBlocklistStore(nil)
	blocklist.Start()
	defer blocklist.Stop()

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		Dispatcher:  dispatcher,
		JWTProvider: jwtProvider,
		Lockouts:    lockouts,
		Blocklist:   blocklist,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
