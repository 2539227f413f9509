package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvoronin/pos-ledger/internal/logger"
)

// Flat-file store names inside the data directory.
const (
	productFileName   = "ProductDB.txt"
	salesFileName     = "SalesDB.txt"
	saleItemsFileName = "SaleItemsDB.txt"
	userFileName      = "UserDB.txt"
)

// Paths locates the four backing files of the store layer.
type Paths struct {
	Products  string
	Sales     string
	SaleItems string
	Users     string
}

// DefaultPaths returns the standard file layout under dataDir.
func DefaultPaths(dataDir string) Paths {
	return Paths{
		Products:  filepath.Join(dataDir, productFileName),
		Sales:     filepath.Join(dataDir, salesFileName),
		SaleItems: filepath.Join(dataDir, saleItemsFileName),
		Users:     filepath.Join(dataDir, userFileName),
	}
}

// EnsureDataFiles creates the data directory and empty backing files for
// any store file that does not exist yet.
func EnsureDataFiles(ctx context.Context, dataDir string) (Paths, error) {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("EnsureDataFiles: create data dir %q: %w", dataDir, err)
	}

	paths := DefaultPaths(dataDir)
	for _, p := range []string{paths.Products, paths.Sales, paths.SaleItems, paths.Users} {
		if _, err := os.Stat(p); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return Paths{}, fmt.Errorf("EnsureDataFiles: stat %q: %w", p, err)
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return Paths{}, fmt.Errorf("EnsureDataFiles: create %q: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return Paths{}, fmt.Errorf("EnsureDataFiles: close %q: %w", p, err)
		}
		log.Info().Str("path", p).Msg("Created data file")
	}
	return paths, nil
}
