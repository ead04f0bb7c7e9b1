package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"flashchat/repositories"
	"flashchat/runtime"
	"flashchat/services"
	"flashchat/sink"
	"flashchat/store"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the session lifecycle, and
// centralizes error reporting, so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := store.Open(config.BadgerFilepath)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories, services, sync engine
	directory := repositories.NewDirectoryRepository(db)
	threadsRepo := repositories.NewThreadRepository(db, log)
	messagesRepo := repositories.NewMessageRepository(db, log)
	validator := services.NewRecipientValidator(directory)
	engine := runtime.NewEngine(log, db, threadsRepo, messagesRepo, validator)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Session: register the local identity, then follow its thread list
	if err := directory.EnsureRegistered(config.UserEmail); err != nil {
		return err
	}
	session := runtime.Session{User: config.UserEmail}
	sub := engine.SubscribeThreads(ctx, session, sink.NewLogSink(log))
	log.Info("Following thread list", "user", config.UserEmail)

	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	sub.Close()
	<-sub.Done()
	log.Info("Program stopped cleanly")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
