package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/auth"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/config"
	"github.com/homebake/api/internal/logging"
	"github.com/homebake/api/internal/storage"
)

func main() {
	cfg := config.Load()

	// CLI flags, falling back to the server's environment
	driver := flag.String("driver", cfg.StoreDriver, "Store driver: memory, file, postgres, sqlite, mysql")
	dsn := flag.String("dsn", cfg.DatabaseURL, "Database URL for postgres or mysql")
	path := flag.String("path", cfg.StorePath, "Directory (file) or database file (sqlite)")
	file := flag.String("file", cfg.CatalogSeedFile, "YAML catalog to seed from; the built-in menu when empty")
	reset := flag.Bool("reset", false, "Replace the stored catalog even when one exists")
	hashPassword := flag.String("hash-password", "", "Print the bcrypt hash for OWNER_PASSWORD_HASH and exit")
	flag.Parse()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if *hashPassword != "" {
		h, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.WithError(err).Fatal("hash password")
		}
		fmt.Println(h)
		return
	}

	now := time.Now()
	seed := catalog.DefaultSeed(now)
	if *file != "" {
		var err error
		seed, err = catalog.LoadSeedFile(*file, now)
		if err != nil {
			log.WithError(err).Fatal("load seed file")
		}
	}

	ctx := context.Background()
	kv, err := storage.Open(ctx, storage.Options{Driver: *driver, DatabaseURL: *dsn, Path: *path})
	if err != nil {
		log.WithError(err).Fatal("open catalog store")
	}
	defer kv.Close()

	store := catalog.NewStore(kv, catalog.WithSeed(seed), catalog.WithLogger(log))

	if *reset {
		if err := store.Save(ctx, seed); err != nil {
			log.WithError(err).Error("reset catalog")
			kv.Close()
			os.Exit(1)
		}
		log.WithField("items", len(seed)).Info("catalog reset")
		return
	}

	// Load persists the seed only when nothing is stored yet
	items, err := store.Load(ctx)
	if err != nil {
		log.WithError(err).Error("load catalog")
		kv.Close()
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"driver": *driver,
		"items":  len(items),
	}).Info("catalog ready")
}
