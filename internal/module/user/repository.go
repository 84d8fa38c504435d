package user

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Allowed fields for sorting and filtering in List queries.
var (
	allowedSortFields   = []string{"id", "username", "first_name", "email", "created_at", "updated_at"}
	allowedFilterFields = []string{"username", "first_name", "last_name", "email", "phone"}
)

// Directory reads the people and places other resources refer to: users
// (authors), customers, registers, roles and transaction accounts.
type Directory struct {
	db      *gorm.DB
	options *cache.Cache
}

// NewDirectory creates a Directory backed by the given GORM database.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// CacheOptions keeps option lists for ttl before reading them again.
func (d *Directory) CacheOptions(ttl time.Duration) *Directory {
	d.options = cache.New(ttl, 2*ttl)
	return d
}

// GetUser retrieves a user by its primary key.
func (d *Directory) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &user, nil
}

// ListUsers returns a paginated, sorted, and filtered list of users.
func (d *Directory) ListUsers(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.User], error) {
	var total int64
	base := d.db.WithContext(ctx).Model(&domain.User{}).
		Scopes(pkg.Filter(req, allowedFilterFields))

	if err := base.Count(&total).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	var users []domain.User
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, allowedSortFields),
	).Find(&users).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	return pkg.NewPage(users, total, req), nil
}

// Users returns every user as an option labelled by username.
func (d *Directory) Users(ctx context.Context) ([]crud.Option, error) {
	return d.optionList(ctx, &domain.User{}, "username")
}

// Customers returns every customer labelled by first name.
func (d *Directory) Customers(ctx context.Context) ([]crud.Option, error) {
	return d.optionList(ctx, &domain.Customer{}, "first_name")
}

// Registers returns every cash register labelled by name.
func (d *Directory) Registers(ctx context.Context) ([]crud.Option, error) {
	return d.optionList(ctx, &domain.Register{}, "name")
}

// Roles returns every role labelled by name.
func (d *Directory) Roles(ctx context.Context) ([]crud.Option, error) {
	return d.optionList(ctx, &domain.Role{}, "name")
}

// Accounts returns every transaction account labelled by name.
func (d *Directory) Accounts(ctx context.Context) ([]crud.Option, error) {
	return d.optionList(ctx, &domain.TransactionAccount{}, "name")
}

func (d *Directory) optionList(ctx context.Context, model any, labelColumn string) ([]crud.Option, error) {
	key := fmt.Sprintf("%T", model)
	if d.options != nil {
		if cached, ok := d.options.Get(key); ok {
			return cached.([]crud.Option), nil
		}
	}

	var rows []struct {
		ID    uint
		Label string
	}
	err := d.db.WithContext(ctx).
		Model(model).
		Select("id, " + labelColumn + " AS label").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}

	opts := make([]crud.Option, len(rows))
	for i, row := range rows {
		opts[i] = crud.Option{Label: row.Label, Value: row.ID}
	}
	if d.options != nil {
		d.options.SetDefault(key, opts)
	}
	return opts, nil
}
