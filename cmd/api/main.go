package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulBabatuyi/social-marketplace/internal/auth"
	"github.com/PaulBabatuyi/social-marketplace/internal/config"
	"github.com/PaulBabatuyi/social-marketplace/internal/data"
	"github.com/PaulBabatuyi/social-marketplace/internal/db"
	"github.com/PaulBabatuyi/social-marketplace/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dbClient, err := db.New(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dbClient.Close(closeCtx); err != nil {
			log.Printf("close DB: %v", err)
		}
	}()

	// Ensure indexes exist
	if err := dbClient.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	// Create stores
	st := stores{
		users:         data.NewUsersStore(dbClient.Collection(db.Users)),
		items:         data.NewItemsStore(dbClient.Collection(db.Items)),
		ratings:       data.NewRatingsStore(dbClient.Collection(db.Ratings)),
		conversations: data.NewConversationsStore(dbClient.Collection(db.Conversations)),
		messages:      data.NewMessagesStore(dbClient.Collection(db.Messages)),
		categories:    data.NewCategoriesStore(dbClient.Collection(db.ForumCategories)),
		threads:       data.NewThreadsStore(dbClient.Collection(db.ForumThreads)),
		posts:         data.NewPostsStore(dbClient.Collection(db.ForumPosts)),
	}

	// JWT_KEYS enables key rotation; otherwise the single JWT_SECRET signs
	// everything.
	var jwtMgr *auth.JWTManager
	if len(cfg.JWTKeys) > 0 {
		jwtMgr, err = auth.NewJWTManagerFromKeys(cfg.JWTKeys, cfg.JWTActiveKid, cfg.JWTAlgorithm, cfg.TokenTTL())
	} else {
		jwtMgr, err = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL())
	}
	if err != nil {
		return fmt.Errorf("init JWT manager: %w", err)
	}

	// Rate limiter for register and login (small burst to allow a couple of
	// quick retries)
	limiterStore := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)
	defer limiterStore.Stop()

	srv := newServer(st, dbClient, jwtMgr, limiterStore, serverOptions{
		corsOrigins:    cfg.CORSOrigins,
		requestTimeout: cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server exit: %w", err)
		}
	}()

	healthDone := make(chan struct{})
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.HealthAddr, err)
		}
		hs := newHealthService(dbClient, 10*time.Second)
		go func() {
			defer close(healthDone)
			if err := hs.Serve(ctx, lis); err != nil {
				errCh <- err
			}
		}()
	} else {
		close(healthDone)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("server error: %v", err)
		stop()
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	<-healthDone
	return nil
}
