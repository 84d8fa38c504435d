package pkg

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTx runs fn inside a database transaction bound to ctx.
// fn's error is returned as is and rolls the transaction back; a panic
// rolls back and is re-raised. Commit failures go through MapDBError.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return MapDBError(err)
	}
	return nil
}
