package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Model constrains P to a pointer to T that is an Entity.
type Model[T any] interface {
	*T
	Entity
}

// GormRepository is a Repository for any gorm model.
type GormRepository[T any, P Model[T]] struct {
	db *gorm.DB
}

// NewGormRepository creates a repository for the model T.
func NewGormRepository[T any, P Model[T]](db *gorm.DB) *GormRepository[T, P] {
	return &GormRepository[T, P]{db: db}
}

// Find loads the entry with id.
func (r *GormRepository[T, P]) Find(ctx context.Context, id uint) (Entity, error) {
	var v T
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return P(&v), nil
}

// Create stores a new entry built from in.
func (r *GormRepository[T, P]) Create(ctx context.Context, in Input) (Entity, error) {
	var v T
	if err := decodeInput(in, &v); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return P(&v), nil
}

// Update applies in to entry and saves it.
func (r *GormRepository[T, P]) Update(ctx context.Context, entry Entity, in Input) (Entity, error) {
	p, err := r.cast(entry)
	if err != nil {
		return nil, err
	}
	if err := decodeInput(in, p); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return p, nil
}

// Delete removes entry.
func (r *GormRepository[T, P]) Delete(ctx context.Context, entry Entity) error {
	p, err := r.cast(entry)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(p)
	if result.Error != nil {
		return pkg.MapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormRepository[T, P]) cast(entry Entity) (P, error) {
	p, ok := entry.(P)
	if !ok || p == nil {
		var want T
		return nil, domain.NewAppError(domain.CodeInternal, "entity type mismatch",
			fmt.Errorf("got %T, want *%T", entry, want))
	}
	return p, nil
}

// decodeInput copies in onto dst through its JSON field names. Keys
// managed by the database are ignored.
func decodeInput(in Input, dst any) error {
	clean := in.Clone()
	delete(clean, "id")
	delete(clean, "created_at")
	delete(clean, "updated_at")

	raw, err := json.Marshal(clean)
	if err != nil {
		return domain.NewAppError(domain.CodeValidation, "invalid input", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.NewAppError(domain.CodeValidation, "invalid input", err)
	}
	return nil
}

// BulkDelete deletes the entries with ids one by one. An id whose entry
// cannot be found or is rejected by match counts as failed; no failure
// stops the remaining ids.
func BulkDelete(ctx context.Context, ids []uint, repo Repository, match func(Entity) bool, logger *slog.Logger) *BulkResult {
	if logger == nil {
		logger = slog.Default()
	}
	result := &BulkResult{Status: "success"}
	for _, id := range ids {
		entry, err := repo.Find(ctx, id)
		if err != nil {
			if !domain.IsNotFound(err) {
				logger.WarnContext(ctx, "bulk delete lookup failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
			}
			result.Failed++
			continue
		}
		if match != nil && !match(entry) {
			result.Failed++
			continue
		}
		if err := repo.Delete(ctx, entry); err != nil {
			logger.WarnContext(ctx, "bulk delete failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
			result.Failed++
			continue
		}
		result.Success++
	}
	result.Message = fmt.Sprintf("%d entries have been deleted, %d failed.", result.Success, result.Failed)
	return result
}

// RequireRole returns a forbidden error unless the caller holds one of roles.
func RequireRole(ctx context.Context, auth Authorizer, roles ...string) error {
	if auth.Is(ctx, roles...) {
		return nil
	}
	return domain.NewAppError(domain.CodeForbidden, domain.ErrForbidden.Message, nil)
}
