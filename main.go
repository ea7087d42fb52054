// api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"learnscope/api/database"
	"learnscope/api/handlers"
	"learnscope/api/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.WithError(err).Info("no .env file loaded")
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	events, users, content, cleanup, err := buildStores(log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}
	defer cleanup()

	r := handlers.NewRouter(events, users, content, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.WithField("port", port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exiting")
}

// buildStores wires the storage backends selected by STORAGE_DRIVER:
// "file" (default) keeps every collection in flat JSON documents under
// DATA_DIR; "database" uses PostgreSQL for users/content and ClickHouse
// for the event log.
func buildStores(log *logrus.Logger) (store.EventStore, store.UserStore, store.ContentStore, func(), error) {
	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "file"
	}

	switch driver {
	case "database":
		dbClient, err := database.NewPostgresDB(log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		chClient, err := database.NewClickHouseDB(log)
		if err != nil {
			dbClient.Close()
			return nil, nil, nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		events, err := store.NewClickHouseEventStore(ctx, chClient, log)
		if err != nil {
			chClient.Close()
			dbClient.Close()
			return nil, nil, nil, nil, err
		}

		cleanup := func() {
			chClient.Close()
			dbClient.Close()
		}
		return events, store.NewSQLUserStore(dbClient.DB), store.NewSQLContentStore(dbClient.DB), cleanup, nil

	default:
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}

		events, err := store.OpenFileEventStore(filepath.Join(dataDir, "clickstream.jsonl"), log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		users, err := store.NewFileUserStore(filepath.Join(dataDir, "users.json"), log)
		if err != nil {
			events.Close()
			return nil, nil, nil, nil, err
		}
		content, err := store.NewFileContentStore(filepath.Join(dataDir, "content.json"), log)
		if err != nil {
			events.Close()
			return nil, nil, nil, nil, err
		}

		cleanup := func() {
			if err := events.Close(); err != nil {
				log.WithError(err).Error("failed to close event log")
			}
		}
		return events, users, content, cleanup, nil
	}
}
