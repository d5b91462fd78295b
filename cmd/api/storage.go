package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MrJamesThe3rd/benefits/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/benefits/internal/catalog/store"
	"github.com/MrJamesThe3rd/benefits/internal/config"
	"github.com/MrJamesThe3rd/benefits/internal/database"
	"github.com/MrJamesThe3rd/benefits/internal/matching"
	matchingMemory "github.com/MrJamesThe3rd/benefits/internal/matching/memory"
	matchingStore "github.com/MrJamesThe3rd/benefits/internal/matching/store"
	"github.com/MrJamesThe3rd/benefits/internal/transaction"
	txMemory "github.com/MrJamesThe3rd/benefits/internal/transaction/memory"
	txStore "github.com/MrJamesThe3rd/benefits/internal/transaction/store"
)

type storage struct {
	catalog      catalog.Repository
	transactions transaction.Repository
	matching     matching.Repository
	close        func() error
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		return openMemory(cfg.Storage.SeedFile)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(db, cfg.DB.Name); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &storage{
		catalog:      catalogStore.New(db),
		transactions: txStore.New(db),
		matching:     matchingStore.New(db),
		close:        db.Close,
	}, nil
}

func openMemory(seedFile string) (*storage, error) {
	store := txMemory.New()

	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return nil, fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()

		if err := store.Seed(f); err != nil {
			return nil, err
		}
	}

	slog.Warn("using in-memory storage, data is lost on restart")

	return &storage{
		catalog:      store,
		transactions: store,
		matching:     matchingMemory.New(),
		close:        func() error { return nil },
	}, nil
}
