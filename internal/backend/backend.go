// Package backend assembles the ledger store from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/yann-pourcenoux/expense-manager/internal/config"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
	"github.com/yann-pourcenoux/expense-manager/internal/storage"
	"github.com/yann-pourcenoux/expense-manager/internal/storage/memory"
)

// Type identifies a store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result carries the assembled store and its cleanup.
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Open builds the ledger store named by the config. The memory backend loses
// all data on restart and exists for development and tests.
func Open(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		repo, db, err := storage.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		slog.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: db.Close}, nil

	case MemoryBackend:
		slog.Info("Initialized memory backend")
		return &Result{Store: memory.NewStore(), Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}
