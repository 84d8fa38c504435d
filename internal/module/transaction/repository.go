package transaction

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

var allowedHistorySortFields = []string{"id", "trigger_date", "value", "created_at"}

// Repository reads and writes transactions and their history.
type Repository struct {
	*crud.GormRepository[domain.Transaction, *domain.Transaction]
	db *gorm.DB
}

// NewRepository creates a transaction repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		GormRepository: crud.NewGormRepository[domain.Transaction](db),
		db:             db,
	}
}

// Get retrieves a transaction by its primary key.
func (r *Repository) Get(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &t, nil
}

// Account retrieves a transaction account by its primary key.
func (r *Repository) Account(ctx context.Context, id uint) (*domain.TransactionAccount, error) {
	var a domain.TransactionAccount
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &a, nil
}

// RecordHistory inserts one history row.
func (r *Repository) RecordHistory(ctx context.Context, h *domain.TransactionHistory) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return pkg.MapDBError(err)
	}
	return nil
}

// HasHistory reports whether any occurrence of the transaction was recorded.
func (r *Repository) HasHistory(ctx context.Context, transactionID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.TransactionHistory{}).
		Where("transaction_id = ?", transactionID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, pkg.MapDBError(err)
	}
	return n > 0, nil
}

// History returns the recorded occurrences of a transaction, newest first
// unless the request sorts.
func (r *Repository) History(ctx context.Context, transactionID uint, req domain.PageRequest) (*domain.PageResult[domain.TransactionHistory], error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&domain.TransactionHistory{}).
		Where("transaction_id = ?", transactionID)

	if err := base.Count(&total).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	q := base.Scopes(pkg.Paginate(req), pkg.Sort(req, allowedHistorySortFields))
	if req.Direction == "" {
		q = q.Order("id DESC")
	}

	var rows []domain.TransactionHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	return pkg.NewPage(rows, total, req), nil
}
