package postgres

import (
	"context"

	"enrollment/internal/errors"
	"enrollment/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// Models lists every table owned by the enrollment service, in creation order.
func Models() []any {
	return []any{
		&model.PlanPurchaseModel{},
		&model.MemberModel{},
		&model.ECardModel{},
	}
}

// Migrate creates or updates the enrollment tables and their unique indexes.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "failed to migrate enrollment schema")
	}

	return nil
}
