package order

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/event"
	"github.com/simp-lee/posadmin/internal/module/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

// seedOrders creates three orders; the second has two refunds and every
// order has one product and one payment.
func seedOrders(t *testing.T, db *gorm.DB) []*domain.Order {
	t.Helper()
	author := &domain.User{Username: "cashier", Active: true}
	require.NoError(t, db.Create(author).Error)
	customer := &domain.Customer{FirstName: "Jane", Phone: "555-0101"}
	require.NoError(t, db.Create(customer).Error)

	var orders []*domain.Order
	for i, status := range []string{domain.PaymentPaid, domain.PaymentRefunded, domain.PaymentUnpaid} {
		o := &domain.Order{
			Code:          "ORD-" + crud.IDString(uint(i+1)),
			PaymentStatus: status,
			Type:          domain.OrderTypeTakeaway,
			Total:         float64(10 * (i + 1)),
			Author:        author.ID,
		}
		if i == 0 {
			o.CustomerID = customer.ID
		}
		require.NoError(t, db.Create(o).Error)
		require.NoError(t, db.Create(&domain.OrderProduct{OrderID: o.ID, Name: "Coffee", Quantity: 1, UnitPrice: o.Total, Total: o.Total}).Error)
		require.NoError(t, db.Create(&domain.OrderPayment{OrderID: o.ID, Identifier: "cash", Value: o.Total}).Error)
		orders = append(orders, o)
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&domain.OrderRefund{OrderID: orders[1].ID, Total: 5}).Error)
	}
	return orders
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRepository_CountRefunds(t *testing.T) {
	db := setupTestDB(t)
	orders := seedOrders(t, db)
	repo := NewRepository(db)

	counts, err := repo.CountRefunds(context.Background(), []uint{orders[0].ID, orders[1].ID, orders[2].ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{orders[1].ID: 2}, counts)

	empty, err := repo.CountRefunds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_DeleteWithDependents(t *testing.T) {
	db := setupTestDB(t)
	orders := seedOrders(t, db)
	svc := NewService(NewRepository(db), nil)

	require.NoError(t, svc.DeleteOrder(context.Background(), orders[1]))

	assert.Equal(t, int64(2), count(t, db, &domain.Order{}))
	assert.Equal(t, int64(2), count(t, db, &domain.OrderProduct{}))
	assert.Equal(t, int64(2), count(t, db, &domain.OrderPayment{}))
	assert.Equal(t, int64(0), count(t, db, &domain.OrderRefund{}))

	err := svc.DeleteOrder(context.Background(), orders[1])
	assert.True(t, domain.IsNotFound(err))
}

func TestRepository_CreateAssignsUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	entry, err := repo.Create(context.Background(), crud.Input{"code": "X1", "total": 3.0})
	require.NoError(t, err)
	o := entry.(*domain.Order)
	assert.Len(t, o.UUID, 36)
	assert.Equal(t, 3.0, o.Total)
}

// allow grants every permission and role.
type allow struct{}

func (allow) AllowedTo(context.Context, domain.Permission) error { return nil }
func (allow) Is(context.Context, ...string) bool               { return true }

func newEngine(t *testing.T, db *gorm.DB) (*crud.Engine, *event.Bus) {
	t.Helper()
	repo := NewRepository(db)
	bus := event.NewBus(nil, nil)
	ctrl := NewController(Deps{
		Auth:    allow{},
		Events:  bus,
		Orders:  NewService(repo, nil),
		Entries: repo,
		Refunds: repo,
		Lookups: user.NewDirectory(db),
	})
	engine, err := crud.NewEngine(db, allow{}, nil, crud.Resource{Controller: ctrl, Repository: repo})
	require.NoError(t, err)
	return engine, bus
}

func TestEngine_ListOrders(t *testing.T) {
	db := setupTestDB(t)
	orders := seedOrders(t, db)
	engine, _ := newEngine(t, db)
	ctx := context.Background()

	page, err := engine.List(ctx, Namespace, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []uint{orders[2].ID, orders[1].ID, orders[0].ID}, ids(page.Items), "newest first without a direction")

	oldest := page.Items[2]
	assert.Equal(t, "Jane", oldest.Cells["customer_first_name"])
	assert.Equal(t, "555-0101", oldest.Cells["customer_phone"])
	assert.Equal(t, "cashier", oldest.Cells["author_username"])
	assert.Equal(t, "Paid", oldest.Cells["payment_status"])
	assert.Equal(t, "Take Away", oldest.Cells["type"])
	assert.Equal(t, "$10.00", oldest.Cells["total"])
	assert.Equal(t, "Not Defined", page.Items[0].Cells["customer_phone"])

	refunded := page.Items[1]
	assert.Equal(t, "default border text-sm", refunded.CSSClass)
	assert.Len(t, refunded.Actions, 5)
	assert.Len(t, page.Items[0].Actions, 4)

	page, err = engine.List(ctx, Namespace, domain.PageRequest{Page: 1, PageSize: 10, Active: "code", Direction: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []uint{orders[0].ID, orders[1].ID, orders[2].ID}, ids(page.Items))

	page, err = engine.List(ctx, Namespace, domain.PageRequest{Page: 1, PageSize: 10, Filter: map[string]string{
		"orders.payment_status": domain.PaymentRefunded,
	}})
	require.NoError(t, err)
	assert.Equal(t, []uint{orders[1].ID}, ids(page.Items))

	page, err = engine.List(ctx, Namespace, domain.PageRequest{Page: 1, PageSize: 10, Filter: map[string]string{
		"customer.phone": "0101",
	}})
	require.NoError(t, err)
	assert.Equal(t, []uint{orders[0].ID}, ids(page.Items))
}

func TestEngine_DeleteOrderCascades(t *testing.T) {
	db := setupTestDB(t)
	orders := seedOrders(t, db)
	engine, _ := newEngine(t, db)

	result, err := engine.Delete(context.Background(), Namespace, orders[1].ID)
	require.NoError(t, err)
	assert.Equal(t, DeletedMessage, result.Message)
	assert.Equal(t, int64(0), count(t, db, &domain.OrderRefund{}))
	assert.Equal(t, int64(2), count(t, db, &domain.OrderProduct{}))
}

func TestEngine_BulkDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	orders := seedOrders(t, db)
	engine, _ := newEngine(t, db)

	result, err := engine.Bulk(context.Background(), Namespace, crud.BulkRequest{
		Action:  "delete_selected",
		Entries: []uint{orders[0].ID, orders[1].ID, 999},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, int64(1), count(t, db, &domain.Order{}))
	assert.Equal(t, int64(1), count(t, db, &domain.OrderPayment{}))
	assert.Equal(t, int64(0), count(t, db, &domain.OrderRefund{}))
}

func ids(entries []crud.ListEntry) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
