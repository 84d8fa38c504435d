// Package order manages point-of-sale orders in the admin CRUD engine.
package order

import (
	"context"
	"log/slog"

	"github.com/simp-lee/posadmin/internal/domain"
)

// Service holds order operations that span several tables.
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates an order service.
func NewService(repo *Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// DeleteOrder removes o with its products, payments and refunds.
func (s *Service) DeleteOrder(ctx context.Context, o *domain.Order) error {
	if err := s.repo.DeleteWithDependents(ctx, o); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "order deleted",
		slog.Uint64("id", uint64(o.ID)),
		slog.String("code", o.Code),
	)
	return nil
}
