/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire service, backup scheduler, and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port              HTTP server port (default: 8080)
  -db                SQLite database path (default: attendance.db)
                     Use ":memory:" for an in-memory database
  -backup-dir        Snapshot directory; empty disables backups
  -backup-schedule   Cron spec for snapshots (default: daily at 02:30)
  -backup-retention  Newest snapshot files to keep (default: 14)
  -log-level         zerolog level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the backup scheduler, waiting for a running snapshot
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and nightly backups
  ./server -db=./data/attendance.db -backup-dir=./backups

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - service: Orchestration layer
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stechuhr/attendance-engine/api"
	"github.com/stechuhr/attendance-engine/service"
	"github.com/stechuhr/attendance-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "attendance.db", "SQLite database path")
	backupDir := flag.String("backup-dir", "", "snapshot directory; empty disables backups")
	backupSchedule := flag.String("backup-schedule", "30 2 * * *", "cron spec for snapshots")
	backupRetention := flag.Int("backup-retention", 14, "newest snapshot files to keep")
	logLevel := flag.String("log-level", "info", "zerolog level")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	svc := service.New(store, log)

	var backup *service.BackupScheduler
	if *backupDir != "" {
		backup = service.NewBackupScheduler(svc, *backupDir, *backupRetention)
		if err := backup.Start(*backupSchedule); err != nil {
			log.Fatal().Err(err).Msg("failed to start backup scheduler")
		}
	}

	router := api.NewRouter(api.NewHandler(svc, log))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	if backup != nil {
		backup.Stop()
	}

	log.Info().Msg("server stopped")
}
