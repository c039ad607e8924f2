// Package main is the entry point for clipkeepd, the clipboard history
// daemon.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/clipkeep/clipkeepd/internal/app"
	"github.com/clipkeep/clipkeepd/internal/classifier"
	"github.com/clipkeep/clipkeepd/internal/config"
	"github.com/clipkeep/clipkeepd/internal/crypto"
	"github.com/clipkeep/clipkeepd/internal/domain"
	"github.com/clipkeep/clipkeepd/internal/hostclip"
	"github.com/clipkeep/clipkeepd/internal/janitor"
	"github.com/clipkeep/clipkeepd/internal/lock"
	"github.com/clipkeep/clipkeepd/internal/monitor"
	"github.com/clipkeep/clipkeepd/internal/secure"
	"github.com/clipkeep/clipkeepd/internal/store"
)

// eventChannelCapacity approximates "unbounded single-producer" per the
// concurrency model: generous enough that a slow consumer doesn't cause
// drops under normal load, while still being a bounded Go channel.
const eventChannelCapacity = 256

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	cfg := config.LoadFromEnv()

	log.Printf("clipkeepd starting...")
	log.Printf("  Data dir: %s", cfg.DataDir)
	log.Printf("  Poll interval: %s", cfg.PollInterval)
	log.Printf("  Retention: %d day(s)", cfg.RetentionDays)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	instanceLock, err := lock.Acquire(cfg.LockPath())
	if err != nil {
		log.Fatalf("Failed to acquire instance lock: %v", err)
	}
	defer instanceLock.Release()

	key, err := crypto.LoadOrCreateKey(cfg.KeyPath())
	if err != nil {
		log.Fatalf("Failed to load encryption key: %v", err)
	}
	defer key.Destroy()
	envelope := crypto.NewEnvelope(key)

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	host, err := hostclip.New()
	if err != nil {
		log.Fatalf("Failed to initialize clipboard backend: %v", err)
	}

	mem, err := secure.NewMemoryTracker(cfg.MaxBlobBytes)
	if err != nil {
		log.Fatalf("Invalid memory limit: %v", err)
	}

	mon := monitor.New(host, cfg.PollInterval)
	clf := classifier.New()
	svc := app.NewService(db, envelope, clf, mem)
	jan := janitor.New(db, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.ChangeEvent, eventChannelCapacity)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); mon.Start(ctx, events) }()
	go func() { defer wg.Done(); svc.Run(ctx, events, host) }()
	go func() { defer wg.Done(); jan.Run(ctx) }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	log.Printf("Received signal %v, shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("Shutdown complete")
	case <-shutdownCtx.Done():
		log.Printf("Shutdown timed out after %s, exiting anyway", cfg.ShutdownTimeout)
	}
}
