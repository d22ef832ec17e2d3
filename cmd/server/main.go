package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/motd-comb/app/announce"
	"github.com/lysyi3m/motd-comb/app/api"
	"github.com/lysyi3m/motd-comb/app/cfg"
	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/feed"
	"github.com/lysyi3m/motd-comb/app/publish"
	"github.com/lysyi3m/motd-comb/app/smite"
	"github.com/lysyi3m/motd-comb/app/snapshot"
	"github.com/lysyi3m/motd-comb/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if c == nil {
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting MOTD Comb server", "version", c.Version)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := database.Open(connectCtx, database.Options{
		Driver:        c.StoreDriver,
		Path:          c.DBPath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		MongoURI:      c.MongoURI,
		MongoDB:       c.MongoDB,
		PageSize:      c.StorePageSize,
	})
	cancelConnect()
	if err != nil {
		slog.Error("Failed to open store", "driver", c.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Store opened", "driver", c.StoreDriver)

	publisher, err := publish.NewFilePublisher(c.PublishDir)
	if err != nil {
		slog.Error("Failed to create publisher", "dir", c.PublishDir, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: c.HTTPTimeout}

	client := smite.NewClient(smite.Config{
		DeveloperID: c.SmiteDeveloperID,
		AuthKey:     c.SmiteAuthKey,
		Language:    c.SmiteLanguage,
		BaseURL:     c.SmiteBaseURL,
		HTTPClient:  httpClient,
		UserAgent:   c.UserAgent,
	})

	var announcer announce.Announcer = announce.Log{}
	if c.TelegramToken != "" {
		announcer = announce.NewTelegram(announce.TelegramConfig{
			Token:      c.TelegramToken,
			ChatID:     c.TelegramChatID,
			HTTPClient: httpClient,
			UserAgent:  c.UserAgent,
		})
		slog.Info("Announcements go to Telegram", "chat_id", c.TelegramChatID)
	} else {
		slog.Info("Announcements go to the log (TELEGRAM_TOKEN not set)")
	}

	slog.Info("Starting background scheduler", "workers", c.WorkerCount, "interval", c.GetSchedulerInterval().String())
	scheduler := tasks.NewScheduler(tasks.Deps{
		Source:       client,
		Store:        store,
		Builder:      snapshot.NewBuilder(store, client),
		Publisher:    publisher,
		Announcer:    announcer,
		BaseURL:      c.BaseUrl,
		SnapshotName: c.SnapshotName,
	}, c.GetSchedulerInterval(), c.WorkerCount)
	scheduler.Start()

	handler := api.NewHandler(store, publisher, scheduler, feed.NewGenerator(c.BaseUrl, c.Version), api.Options{
		SnapshotName: c.SnapshotName,
		FeedMaxItems: c.FeedMaxItems,
		BaseURL:      c.BaseUrl,
		Version:      c.Version,
	})

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("MOTD Comb server shutdown complete")
}
