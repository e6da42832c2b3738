// internal/adapters/db/store.go
package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ammerola/gestor-be/internal/core/ports"
)

// Store implements ports.Store on top of Database
type Store struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *Store implements the Store interface.
var _ ports.Store = (*Store)(nil)

// NewStore creates a new store
func NewStore(db *Database, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Repositories returns repositories bound to the pool
func (s *Store) Repositories() ports.Repositories {
	return newRepositories(s.db.Pool(), s.logger)
}

// InTx runs fn with repositories bound to one transaction
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx, s.logger))
	})
}

func newRepositories(q Querier, logger *slog.Logger) ports.Repositories {
	return ports.Repositories{
		Products:  NewProductRepository(q, logger),
		Movements: NewMovementRepository(q, logger),
		Sales:     NewSaleRepository(q, logger),
	}
}
