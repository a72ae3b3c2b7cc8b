package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/dntxos/chesspotweb3/internal/app"
	"github.com/dntxos/chesspotweb3/internal/game"
	httpx "github.com/dntxos/chesspotweb3/internal/http"
	"github.com/dntxos/chesspotweb3/internal/room"
	"github.com/dntxos/chesspotweb3/internal/sign"
	"github.com/dntxos/chesspotweb3/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Payout attestation signer; without a key games end unsigned
	var signer ws.Attester
	if cfg.SignerKey != "" {
		s, err := sign.New(cfg.SignerKey)
		if err != nil {
			logger.Error("signer.init", "err", err)
			log.Fatal(err)
		}
		logger.Info("signer.ready", "address", s.Address().Hex())
		signer = s
	} else {
		logger.Warn("signer.disabled", "reason", "SIGNER_KEY not set")
	}

	// Room store; a corrupt snapshot is fatal before we accept connections
	store := room.New(logger, game.NewEngine(), cfg.SnapshotPath, cfg.KeepEmptyRooms)
	if err := store.Load(); err != nil {
		logger.Error("snapshot.load", "err", err)
		log.Fatal(err)
	}

	// WebSocket session gateway
	gw := ws.NewGateway(logger, store, signer)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, gw, store)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
