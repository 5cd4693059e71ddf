package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"market_go/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// Pprof server (localhost only, for performance profiling)
	go func() {
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background collection metadata/thumbnail sync
	go bootstrap.SyncCollections(ctx)

	// Live event feed for external observers
	if bootstrap.Hub != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/events", bootstrap.Hub.Handler())
		server := &http.Server{Addr: bootstrap.Config.Feed.ListenAddr, Handler: mux}
		go func() {
			slog.Info("Event feed listening", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Event feed failed", slog.Any("error", err))
			}
		}()
		defer func() {
			server.Close()
			bootstrap.Hub.Close()
		}()
	}

	slog.InfoContext(ctx, "Marketplace engine operational. Press Ctrl+C to exit.")

	<-ctx.Done()

	snap := bootstrap.Metrics.Snapshot()
	slog.Info("Shutting down gracefully...",
		slog.Uint64("orders_created", snap.OrdersCreated),
		slog.Uint64("orders_executed", snap.OrdersExecuted),
		slog.Uint64("bids_placed", snap.BidsPlaced),
		slog.Int64("volume_settled", snap.VolumeSettled),
		slog.Int64("fee_revenue", snap.FeeRevenue),
	)
}
