package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"market_go/internal/domain"
	"market_go/internal/event"
	"market_go/internal/infra"
	"market_go/internal/infra/feed"
	"market_go/internal/infra/storage"
	"market_go/internal/ledger"
	"market_go/internal/market"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Journal
	Thumbs  *infra.ThumbCache
	Metrics *infra.Metrics
	Hub     *feed.Hub
	Market  *market.Marketplace

	// Demo collaborators standing in for on-chain registries/ledgers.
	Registries map[string]*ledger.Registry
	Ledgers    map[string]*ledger.Ledger
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, journal, engine).
func (b *Bootstrap) Initialize() error {
	slog.Info("Bootstrapping marketplace engine...")

	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	journal, err := storage.NewJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	b.Journal = journal
	slog.Info("Journal initialized", slog.String("path", cfg.Journal.Path))

	thumbsDir, err := getThumbsPath()
	if err != nil {
		return err
	}
	thumbs, err := infra.NewThumbCache(thumbsDir)
	if err != nil {
		return err
	}
	b.Thumbs = thumbs

	b.Metrics = infra.NewMetrics()

	// Event fan-out: journal first, then live observers, then the log.
	// The engine is built first so display sinks can render amounts
	// through its currency registry; nothing emits until after wiring.
	bus := event.NewBus()
	bus.Attach(journal)
	if err := b.buildMarketplace(bus); err != nil {
		return err
	}
	currencies := b.Market.Currencies()

	if cfg.Feed.Enabled {
		b.Hub = feed.NewHub(b.Metrics, currencies)
		bus.Attach(b.Hub)
	}
	bus.Attach(event.SinkFunc(func(ev event.Event) {
		if p, ok := ev.(event.Priced); ok {
			currency, units := p.Amount()
			slog.Info("DOMAIN_EVENT",
				slog.String("kind", ev.GetKind().String()),
				slog.Int64("ts", ev.GetTs()),
				slog.String("amount", currencies.FormatAmount(currency, units)),
				slog.String("currency", currency))
			return
		}
		slog.Info("DOMAIN_EVENT", slog.String("kind", ev.GetKind().String()), slog.Int64("ts", ev.GetTs()))
	}))
	slog.Info("Marketplace engine ready",
		slog.String("owner", cfg.Market.Owner),
		slog.Int64("cut_per_million", cfg.Market.CutPerMillion),
		slog.String("primary_currency", cfg.Market.PrimaryCurrency))

	return nil
}

// buildMarketplace wires the engine against in-memory collaborators. A real
// deployment swaps these for adapters over live registries and ledgers.
func (b *Bootstrap) buildMarketplace(bus *event.Bus) error {
	cfg := b.Config
	escrow := market.NewEscrowLedger(cfg.Market.EscrowAccount)

	fees, err := market.NewFeeManager(cfg.Market.Owner, cfg.Market.CutPerMillion)
	if err != nil {
		return err
	}

	currencies := market.NewCurrencyRegistry(cfg.Market.Owner, cfg.Market.PrimaryCurrency)
	b.Ledgers = make(map[string]*ledger.Ledger, len(cfg.Market.Currencies))
	for _, cur := range cfg.Market.Currencies {
		l := ledger.NewLedger(cur.Symbol, escrow.Account())
		if err := currencies.Add(cfg.Market.Owner, cur.Symbol, l, cur.Decimals); err != nil {
			return err
		}
		b.Ledgers[cur.Symbol] = l
	}

	b.Registries = make(map[string]*ledger.Registry, len(cfg.Market.Collections))
	resolver := make(ledger.StaticRegistries, len(cfg.Market.Collections))
	for _, col := range cfg.Market.Collections {
		reg := ledger.NewRegistry(col.Registry)
		b.Registries[col.Registry] = reg
		resolver[col.Registry] = reg
	}

	b.Market = market.NewMarketplace(
		cfg.Market.Owner,
		resolver,
		currencies,
		fees,
		escrow,
		domain.SystemClock{},
		bus,
		b.Metrics,
	)
	return nil
}

// SyncCollections synchronizes collection metadata and thumbnails in the
// background.
func (b *Bootstrap) SyncCollections(ctx context.Context) {
	slog.Info("Starting collection synchronization...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, col := range b.Config.Market.Collections {
		wg.Add(1)
		go func(col infra.CollectionConfig) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			reg, ok := b.Registries[col.Registry]
			info := &domain.CollectionInfo{
				Registry:   col.Registry,
				Name:       col.Name,
				IsVerified: ok && reg.SupportsAssetInterface(),
			}

			// Preserve sync state across restarts
			if existing, _ := b.Journal.GetCollection(col.Registry); existing != nil {
				info.ThumbPath = existing.ThumbPath
				info.LastSyncedAt = existing.LastSyncedAt
			}
			// The journal may reference a thumbnail the cache no longer
			// holds; clear it so the fetch below runs again.
			if info.ThumbPath != "" {
				if _, err := os.Stat(b.Thumbs.Path(col.Registry)); err != nil {
					info.ThumbPath = ""
				}
			}

			if err := b.Journal.UpsertCollection(info); err != nil {
				slog.Error("Failed to upsert collection",
					slog.String("registry", col.Registry), slog.Any("error", err))
			}

			if col.ThumbURL == "" || info.ThumbPath != "" {
				return
			}
			path, err := b.Thumbs.Fetch(col.Registry, col.ThumbURL)
			if err != nil {
				slog.Warn("Failed to download thumbnail",
					slog.String("registry", col.Registry), slog.Any("error", err))
				return
			}
			info.ThumbPath = path
			info.LastSyncedAt = time.Now()
			if err := b.Journal.UpsertCollection(info); err != nil {
				slog.Error("Failed to update collection",
					slog.String("registry", col.Registry), slog.Any("error", err))
			}
		}(col)
	}

	wg.Wait()
	slog.Info("Collection synchronization completed")
}

// getThumbsPath resolves the thumbnail cache directory based on OS.
func getThumbsPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MarketGo", "assets", "thumbs"), nil
}
