package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/shared"
)

type txContextKey struct{}

// GormTransactionManager implements shared.TransactionManager by embedding
// the transactional *gorm.DB in the context passed to fn. Repositories built
// on dbFromContext automatically join the transaction.
type GormTransactionManager struct {
	db *gorm.DB
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

// NewGormTransactionManager creates a new transaction manager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a single database transaction. Any error
// returned by fn rolls the whole unit of work back.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction instead of opening a new one.
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// dbFromContext returns the transactional handle when ctx carries one,
// otherwise the base connection bound to ctx.
func dbFromContext(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return base.WithContext(ctx)
}
