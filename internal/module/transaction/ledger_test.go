package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/event"
	"github.com/simp-lee/posadmin/internal/module/user"
	"github.com/simp-lee/posadmin/internal/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

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

type env struct {
	db     *gorm.DB
	repo   *Repository
	ledger *Ledger
	engine *crud.Engine
	sales  *domain.TransactionAccount
}

func newEnv(t *testing.T, auth fakeAuth) *env {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	ledger := NewLedger(repo, nil)
	ledger.now = func() time.Time { return fixedNow }

	bus := event.NewBus(nil, ledger.Subscriptions())
	ctrl := NewController(Deps{
		Auth:    auth,
		Events:  bus,
		Entries: repo,
		Lookups: user.NewDirectory(db),
	})
	engine, err := crud.NewEngine(db, auth, nil, crud.Resource{Controller: ctrl, Repository: repo})
	require.NoError(t, err)

	sales := &domain.TransactionAccount{Name: "Sales", Operation: domain.OperationCredit}
	require.NoError(t, db.Create(sales).Error)

	return &env{db: db, repo: repo, ledger: ledger, engine: engine, sales: sales}
}

func (e *env) seed(t *testing.T, txs ...*domain.Transaction) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, e.db.Create(tx).Error)
	}
}

func (e *env) histories(t *testing.T) []domain.TransactionHistory {
	t.Helper()
	var rows []domain.TransactionHistory
	require.NoError(t, e.db.Order("id").Find(&rows).Error)
	return rows
}

func TestLedger_Record(t *testing.T) {
	e := newEnv(t, granted())
	tx := &domain.Transaction{Name: "Cash sale", Active: true, AccountID: e.sales.ID, Value: 80}
	e.seed(t, tx)

	h, err := e.ledger.Record(context.Background(), tx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationCredit, h.Operation)
	assert.Equal(t, domain.HistoryActive, h.Status)
	assert.Equal(t, uint(3), h.Author)
	assert.True(t, fixedNow.Equal(h.TriggerDate))

	orphan := &domain.Transaction{Name: "Misc", Active: true, Value: 5}
	e.seed(t, orphan)
	h, err = e.ledger.Record(context.Background(), orphan, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationDebit, h.Operation)
	assert.Len(t, e.histories(t), 2)
}

func TestLedger_RecordsDueTransactionsOnSave(t *testing.T) {
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name     string
		tx       *domain.Transaction
		recorded bool
	}{
		{"direct", &domain.Transaction{Name: "a", Active: true}, true},
		{"scheduled in the past", &domain.Transaction{Name: "b", Active: true, ScheduledDate: &past}, true},
		{"scheduled in the future", &domain.Transaction{Name: "c", Active: true, ScheduledDate: &future}, false},
		{"recurring", &domain.Transaction{Name: "d", Active: true, Recurring: true}, false},
		{"inactive", &domain.Transaction{Name: "e"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, granted())
			e.seed(t, tt.tx)
			err := e.ledger.onCreated(ctx, event.New(event.TransactionAfterCreated, tt.tx, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.recorded, len(e.histories(t)) == 1)
		})
	}
}

func TestEngine_CreateRecordsHistory(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))

	entry, err := e.engine.Create(context.Background(), Namespace, crud.Input{
		"name": "Cash sale",
		"general": map[string]any{
			"active":     true,
			"account_id": e.sales.ID,
			"value":      "250",
			"recurring":  false,
			"type":       domain.TransactionDirect,
		},
	})
	require.NoError(t, err)

	tx := entry.(*domain.Transaction)
	assert.Equal(t, 250.0, tx.Value)

	rows := e.histories(t)
	require.Len(t, rows, 1)
	assert.Equal(t, tx.ID, rows[0].TransactionID)
	assert.Equal(t, domain.OperationCredit, rows[0].Operation)
}

func saleInput(e *env, name string, active bool) crud.Input {
	return crud.Input{
		"name": name,
		"general": map[string]any{
			"active":     active,
			"account_id": e.sales.ID,
			"value":      "250",
			"recurring":  false,
			"type":       domain.TransactionDirect,
		},
	}
}

func TestEngine_UpdateDoesNotRecordAgain(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))
	ctx := context.Background()

	entry, err := e.engine.Create(ctx, Namespace, saleInput(e, "Cash sale", true))
	require.NoError(t, err)
	id := entry.(*domain.Transaction).ID
	require.Len(t, e.histories(t), 1)

	for _, name := range []string{"Cash sale (till 1)", "Cash sale (till 2)"} {
		_, err := e.engine.Update(ctx, Namespace, id, saleInput(e, name, true))
		require.NoError(t, err)
	}
	assert.Len(t, e.histories(t), 1)
}

func TestEngine_UpdateRecordsWhenItBecomesDue(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))
	ctx := context.Background()

	entry, err := e.engine.Create(ctx, Namespace, saleInput(e, "Draft sale", false))
	require.NoError(t, err)
	id := entry.(*domain.Transaction).ID
	assert.Empty(t, e.histories(t))

	_, err = e.engine.Update(ctx, Namespace, id, saleInput(e, "Draft sale", true))
	require.NoError(t, err)
	rows := e.histories(t)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].TransactionID)

	_, err = e.engine.Update(ctx, Namespace, id, saleInput(e, "Final sale", true))
	require.NoError(t, err)
	assert.Len(t, e.histories(t), 1)
}

func TestEngine_CreateValidatesRequiredFields(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))

	_, err := e.engine.Create(context.Background(), Namespace, crud.Input{"name": " "})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	var fields domain.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "account_id")
	assert.Contains(t, fields, "value")
	assert.Empty(t, e.histories(t))
}

func TestEngine_ListTransactionsNewestFirst(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))
	author := &domain.User{Username: "bookkeeper", Active: true}
	require.NoError(t, e.db.Create(author).Error)
	e.seed(t,
		&domain.Transaction{Name: "alpha", Value: 10, AccountID: e.sales.ID, Author: author.ID, Type: domain.TransactionDirect},
		&domain.Transaction{Name: "charlie", Value: 30, Recurring: true, Occurrence: domain.OccurrenceMonthEnds},
		&domain.Transaction{Name: "bravo", Value: 20},
	)

	for _, req := range []domain.PageRequest{
		{Page: 1, PageSize: 10},
		{Page: 1, PageSize: 10, Active: "name", Direction: "asc"},
	} {
		page, err := e.engine.List(context.Background(), Namespace, req)
		require.NoError(t, err)
		require.Len(t, page.Items, 3)

		var names []any
		for _, item := range page.Items {
			names = append(names, item.Cells["name"])
		}
		assert.Equal(t, []any{"bravo", "charlie", "alpha"}, names, "direction %q", req.Direction)
	}

	page, err := e.engine.List(context.Background(), Namespace, domain.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	alpha := page.Items[2]
	assert.Equal(t, "Sales", alpha.Cells["transactions_accounts_name"])
	assert.Equal(t, "bookkeeper", alpha.Cells["author_username"])
	assert.Equal(t, "Direct Transaction", alpha.Cells["type"])
	assert.Equal(t, "$10.00", alpha.Cells["value"])
	assert.Equal(t, "No", alpha.Cells["recurring"])
	assert.Len(t, alpha.Actions, 4)

	charlie := page.Items[1]
	assert.Equal(t, "Yes", charlie.Cells["recurring"])
	assert.Equal(t, "End of Month", charlie.Cells["occurrence"])
}

func TestEngine_DeleteTransaction(t *testing.T) {
	e := newEnv(t, granted(permissions.All()...))
	tx := &domain.Transaction{Name: "Rent"}
	e.seed(t, tx)

	result, err := e.engine.Delete(context.Background(), Namespace, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, crud.DeletedMessage, result.Message)

	_, err = e.repo.Get(context.Background(), tx.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestEngine_BulkDeleteTransactions(t *testing.T) {
	for name, order := range map[string][]int{
		"known first":   {0, 1, -1},
		"missing first": {-1, 1, 0},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, granted())
			a, b := &domain.Transaction{Name: "a"}, &domain.Transaction{Name: "b"}
			e.seed(t, a, b)
			known := []uint{a.ID, b.ID}

			ids := make([]uint, len(order))
			for i, idx := range order {
				if idx < 0 {
					ids[i] = 999
					continue
				}
				ids[i] = known[idx]
			}

			result, err := e.engine.Bulk(context.Background(), Namespace, crud.BulkRequest{Action: "delete_selected", Entries: ids})
			require.NoError(t, err)
			assert.Equal(t, 2, result.Success)
			assert.Equal(t, 1, result.Failed)

			var n int64
			require.NoError(t, e.db.Model(&domain.Transaction{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}

	t.Run("requires admin or supervisor", func(t *testing.T) {
		e := newEnv(t, fakeAuth{roles: []string{"cashier"}})
		tx := &domain.Transaction{Name: "a"}
		e.seed(t, tx)

		_, err := e.engine.Bulk(context.Background(), Namespace, crud.BulkRequest{Action: "delete_selected", Entries: []uint{tx.ID}})
		assert.True(t, domain.IsForbidden(err))
		_, err = e.repo.Get(context.Background(), tx.ID)
		assert.NoError(t, err)
	})
}

func newRouter(e *env, auth fakeAuth, caller *authz.Caller) *gin.Engine {
	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(authz.WithCaller(c.Request.Context(), *caller))
			c.Next()
		})
	}
	NewModule(NewHandler(e.repo, e.ledger, auth, pkg.DefaultPageLimits)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHandler_Trigger(t *testing.T) {
	auth := granted(permissions.All()...)
	e := newEnv(t, auth)
	active := &domain.Transaction{Name: "Rent", Active: true, Recurring: true, Value: 900, AccountID: e.sales.ID}
	inactive := &domain.Transaction{Name: "Old"}
	e.seed(t, active, inactive)

	router := newRouter(e, auth, &authz.Caller{UserID: 8})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"active", "/api/v1/transactions/trigger/" + crud.IDString(active.ID), http.StatusOK},
		{"inactive", "/api/v1/transactions/trigger/" + crud.IDString(inactive.ID), http.StatusBadRequest},
		{"missing", "/api/v1/transactions/trigger/999", http.StatusNotFound},
		{"bad id", "/api/v1/transactions/trigger/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	rows := e.histories(t)
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].TransactionID)
	assert.Equal(t, uint(8), rows[0].Author)

	denied := newRouter(e, fakeAuth{}, nil)
	w := httptest.NewRecorder()
	denied.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/trigger/"+crud.IDString(active.ID), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, e.histories(t), 1)
}

func TestHandler_History(t *testing.T) {
	auth := granted(permissions.All()...)
	e := newEnv(t, auth)
	tx := &domain.Transaction{Name: "Rent", Active: true, Value: 900}
	e.seed(t, tx)
	for i := 0; i < 3; i++ {
		_, err := e.ledger.Record(context.Background(), tx, 1)
		require.NoError(t, err)
	}

	router := newRouter(e, auth, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+crud.IDString(tx.ID)+"/history?page_size=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Items []domain.TransactionHistory `json:"items"`
			Total int64                       `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data.Total)
	require.Len(t, body.Data.Items, 2)
	assert.Greater(t, body.Data.Items[0].ID, body.Data.Items[1].ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/999/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
