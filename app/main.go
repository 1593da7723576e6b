package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/imartinez/kindlefeed/app/api"
	"github.com/imartinez/kindlefeed/app/book"
	"github.com/imartinez/kindlefeed/app/cfg"
	"github.com/imartinez/kindlefeed/app/database"
	"github.com/imartinez/kindlefeed/app/delivery"
	"github.com/imartinez/kindlefeed/app/harvest"
	"github.com/imartinez/kindlefeed/app/pipeline"
	"github.com/imartinez/kindlefeed/app/recipients"
	"github.com/imartinez/kindlefeed/app/seed"
	"github.com/imartinez/kindlefeed/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags.
	// Missing required secrets abort startup here.
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting KindleFeed...")

	// Database connection
	db, err := database.NewConnection(appConfig.DataDir)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Repositories and stores
	sourceRepo := database.NewSourceRepo(db)
	ledgerRepo := database.NewLedgerRepo(db)
	banTermRepo := database.NewBanTermRepo(db)
	recipientStore := recipients.NewStore(
		filepath.Join(appConfig.DataDir, "recipients.enc"), appConfig.RecipientsKey)

	if err := seed.Apply(appConfig.SeedFile, sourceRepo, banTermRepo); err != nil {
		log.Fatal("Failed to apply seed file: ", err)
	}

	// Core pipeline components
	httpClient := &http.Client{}
	fetchTimeout := time.Duration(appConfig.FetchTimeout) * time.Second
	imageTimeout := time.Duration(appConfig.ImageFetchTimeout) * time.Second

	harvester := harvest.NewHarvester(httpClient, appConfig.UserAgent, fetchTimeout)
	renderer := book.NewRenderer(httpClient, appConfig.UserAgent, fetchTimeout, imageTimeout)
	assembler := book.NewAssembler(filepath.Join(appConfig.DataDir, "tmp"), "en")

	mailSender := delivery.NewSMTPSender(delivery.SMTPConfig{
		Host:     appConfig.SMTPHost,
		Port:     appConfig.SMTPPort,
		User:     appConfig.SMTPUser,
		Password: appConfig.SMTPPassword,
		From:     appConfig.SMTPFrom,
	})
	directSender := delivery.NewTelegramSender(
		appConfig.TelegramAPIBase, appConfig.TelegramToken, appConfig.TelegramChatID, nil)
	dispatcher := delivery.NewDispatcher(mailSender, directSender, "Daily News")

	runner := pipeline.New(pipeline.Deps{
		Harvester:          harvester,
		Renderer:           renderer,
		Assembler:          assembler,
		Dispatcher:         dispatcher,
		Recipients:         recipientStore,
		Sources:            sourceRepo,
		Ledger:             ledgerRepo,
		BanTerms:           banTermRepo,
		MaxBatch:           appConfig.MaxBatch,
		RenderWorkers:      appConfig.RenderWorkers,
		AllowEmptyDocument: appConfig.AllowEmptyDocument,
	})

	// Scheduled runs
	scheduler := tasks.NewScheduler(runner, time.Duration(appConfig.SchedulerInterval)*time.Minute)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	apiHandler := api.NewHandler(sourceRepo, ledgerRepo, banTermRepo, recipientStore, runner)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a triggered run stays open until delivery finishes
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("KindleFeed started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("KindleFeed shutdown complete")
}
