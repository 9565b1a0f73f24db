package postgres

import (
	"context"

	"enrollment/internal/domain/repository"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db *gorm.DB
}

// gormRepositoryFactory hands out repositories bound to one transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB // In GORM, a transaction object *gorm.Tx is also a *gorm.DB
}

// NewMemberRepository creates a member repository bound to the transaction.
func (f *gormRepositoryFactory) NewMemberRepository() repository.MemberRepository {
	return NewMemberRepository(f.tx)
}

// NewECardRepository creates a card repository bound to the transaction.
func (f *gormRepositoryFactory) NewECardRepository() repository.ECardRepository {
	return NewECardRepository(f.tx)
}

// NewPlanPurchaseRepository creates a plan purchase repository bound to the transaction.
func (f *gormRepositoryFactory) NewPlanPurchaseRepository() repository.PlanPurchaseRepository {
	return NewPlanPurchaseRepository(f.tx)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute runs fn in one transaction. gorm rolls back when fn returns an
// error or panics, and the original error is returned untouched so callers
// can still match repository sentinels.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositoryFactory{tx: tx})
	})
}
