package order

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Repository reads and writes orders and their dependent rows.
type Repository struct {
	*crud.GormRepository[domain.Order, *domain.Order]
	db *gorm.DB
}

// NewRepository creates an order repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		GormRepository: crud.NewGormRepository[domain.Order](db),
		db:             db,
	}
}

// CountRefunds returns the number of refunds per order for ids. Orders
// without refunds are absent from the map.
func (r *Repository) CountRefunds(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		OrderID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.OrderRefund{}).
		Select("order_id, COUNT(*) AS total").
		Where("order_id IN ?", ids).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}

	for _, row := range rows {
		counts[row.OrderID] = row.Total
	}
	return counts, nil
}

// DeleteWithDependents removes o together with its products, payments and
// refunds in one database transaction.
func (r *Repository) DeleteWithDependents(ctx context.Context, o *domain.Order) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		for _, dep := range []any{&domain.OrderProduct{}, &domain.OrderPayment{}, &domain.OrderRefund{}} {
			if err := tx.Where("order_id = ?", o.ID).Delete(dep).Error; err != nil {
				return pkg.MapDBError(err)
			}
		}
		result := tx.Delete(&domain.Order{}, o.ID)
		if result.Error != nil {
			return pkg.MapDBError(result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
