// Package transaction manages accounting transactions in the admin CRUD
// engine and records their occurrences in the ledger history.
package transaction

import (
	"context"
	"log/slog"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/event"
)

// Namespace identifies the transaction resource.
const Namespace = "ns.transactions"

const scheduleLayout = "2006-01-02 15:04:05"

// Lookups loads the option lists of the transaction form.
type Lookups interface {
	Roles(ctx context.Context) ([]crud.Option, error)
	Accounts(ctx context.Context) ([]crud.Option, error)
}

// Deps are the collaborators of the transaction controller.
type Deps struct {
	Auth    crud.Authorizer
	Events  event.Dispatcher
	Entries crud.Repository
	Lookups Lookups
	Hooks   crud.Hooks
	Logger  *slog.Logger
}

// Controller is the crud.Controller of transactions.
type Controller struct {
	Deps
}

// NewController creates the transaction controller.
func NewController(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Controller{Deps: d}
}

var permissions = domain.Permissions{
	Create: domain.PermCreateTransactions,
	Read:   domain.PermReadTransactions,
	Update: domain.PermUpdateTransactions,
	Delete: domain.PermDeleteTransactions,
}

// Describe names the transactions resource and its permissions.
func (c *Controller) Describe() crud.ResourceDescriptor {
	return crud.ResourceDescriptor{
		Namespace: Namespace,
		Table:     "transactions",
		Model:     "transaction",
		Relations: []crud.Relation{
			{Table: "users", Alias: "author", LocalKey: "transactions.author", Operator: "=", ForeignKey: "author.id"},
			{Table: "transaction_accounts", Alias: "transactions_accounts", LocalKey: "transactions_accounts.id", Operator: "=", ForeignKey: "transactions.account_id"},
		},
		Picks: map[string][]string{
			"author":                {"username"},
			"transactions_accounts": {"name"},
		},
		Permissions: permissions,
	}
}

// Labels returns the list and form labels of transactions.
func (c *Controller) Labels() crud.LabelSet {
	return crud.LabelSet{
		ListTitle:         "Transactions List",
		ListDescription:   "Display all transactions.",
		NoEntry:           "No transactions has been registered",
		CreateNew:         "Add a new transaction",
		CreateTitle:       "Create a new transaction",
		CreateDescription: "Register a new transaction and save it.",
		EditTitle:         "Edit transaction",
		EditDescription:   "Modify  Transaction.",
		BackToList:        "Return to Transactions",
	}
}

// Columns returns the transaction list columns.
func (c *Controller) Columns() crud.ColumnSpec {
	return crud.ColumnSpec{
		{Key: "name", Label: "Name", Sortable: true},
		{Key: "type", Label: "Type", Sortable: true},
		{Key: "transactions_accounts_name", Label: "Account Name", Sortable: true},
		{Key: "value", Label: "Value", Sortable: true},
		{Key: "recurring", Label: "Recurring", Sortable: true},
		{Key: "occurrence", Label: "Occurrence", Sortable: true},
		{Key: "author_username", Label: "Author", Sortable: true},
		{Key: "created_at", Label: "Created At", Sortable: true},
	}
}

// Links returns the transaction list and create routes.
func (c *Controller) Links() crud.Links {
	return crud.Links{
		List:   "/dashboard/accounting/transactions",
		Create: "/dashboard/accounting/transactions/create",
		Edit:   "/dashboard/accounting/transactions/edit/{id}",
		Post:   "/api/v1/crud/" + Namespace,
		Put:    "/api/v1/crud/" + Namespace + "/{id}",
	}
}

// Casts formats transaction values for display.
func (c *Controller) Casts() map[string]crud.Cast {
	return map[string]crud.Cast{
		"type":       crud.Labels(typeLabels, "Unknown Type"),
		"occurrence": crud.Labels(occurrenceLabels, "Unknown Occurrence"),
		"recurring":  crud.YesNo(),
		"value":      crud.Currency("$"),
		"created_at": crud.Date("2006-01-02 15:04"),
	}
}

// QueryFilters returns the filters of the transaction list.
func (c *Controller) QueryFilters(ctx context.Context) ([]crud.QueryFilter, error) {
	accounts, err := c.Lookups.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	return []crud.QueryFilter{
		{
			Type:        crud.FilterSelect,
			Name:        "transactions.type",
			Label:       "Type",
			Description: "Restrict the transactions by their type.",
			Options:     options(typeOrder, typeLabels),
		},
		{
			Type:        crud.FilterSelect,
			Name:        "transactions.account_id",
			Label:       "Transaction Account",
			Description: "Restrict the transactions by account.",
			Options:     accounts,
		},
		{
			Type:        crud.FilterDateRange,
			Name:        "transactions.created_at",
			Label:       "Created Between",
			Description: "Restrict the transactions by the creation date.",
		},
	}, nil
}

// BulkActions lists the bulk actions offered on transactions.
func (c *Controller) BulkActions() []crud.BulkActionSpec {
	return c.Hooks.FilterBulkActions([]crud.BulkActionSpec{{
		Label:      "Delete Selected Groups",
		Identifier: "delete_selected",
		URL:        "/api/v1/crud/" + Namespace + "/bulk-actions",
	}})
}

// BuildForm returns the transaction form, pre-filled from entry when it
// is not nil.
func (c *Controller) BuildForm(ctx context.Context, entry crud.Entity) (crud.FormSpec, error) {
	roles, err := c.Lookups.Roles(ctx)
	if err != nil {
		return crud.FormSpec{}, err
	}
	accounts, err := c.Lookups.Accounts(ctx)
	if err != nil {
		return crud.FormSpec{}, err
	}

	v := formValues{}
	if t, ok := entry.(*domain.Transaction); ok && t != nil {
		v = valuesOf(t)
	}

	groups := append([]crud.Option{{Label: "None", Value: "0"}}, roles...)

	return crud.FormSpec{
		Main: crud.Field{
			Type:        crud.FieldText,
			Name:        "name",
			Label:       "Name",
			Value:       v.get("name"),
			Description: "Provide a name to the resource.",
			Validation:  "required",
		},
		Tabs: []crud.Tab{{
			Key:   "general",
			Label: "General",
			Fields: []crud.Field{
				{
					Type:        crud.FieldSwitch,
					Name:        "active",
					Label:       "Active",
					Description: "determine if the transaction is effective or not. Work for recurring and not recurring transactions.",
					Options:     []crud.Option{{Label: "No", Value: 0}, {Label: "Yes", Value: 1}},
					Validation:  "required",
					Value:       v.get("active"),
				},
				{
					Type:        crud.FieldSelect,
					Name:        "group_id",
					Label:       "Users Group",
					Description: "Assign transaction to users group. the Transaction will therefore be multiplied by the number of entity.",
					Options:     groups,
					Value:       v.get("group_id"),
				},
				{
					Type:        crud.FieldSelect,
					Name:        "account_id",
					Label:       "Transaction Account",
					Description: "Assign the transaction to an account.",
					Options:     accounts,
					Validation:  "required",
					Value:       v.get("account_id"),
				},
				{
					Type:        crud.FieldText,
					Name:        "value",
					Label:       "Value",
					Description: "Is the value or the cost of the transaction.",
					Validation:  "required",
					Value:       v.get("value"),
				},
				{
					Type:        crud.FieldSwitch,
					Name:        "recurring",
					Label:       "Recurring",
					Description: "If set to Yes, the transaction will trigger on defined occurrence.",
					Options:     []crud.Option{{Label: "Yes", Value: true}, {Label: "No", Value: false}},
					Validation:  "required",
					Value:       v.get("recurring"),
				},
				{
					Type:        crud.FieldSelect,
					Name:        "occurrence",
					Label:       "Occurrence",
					Description: "Define how often this transaction occurs",
					Options:     options(occurrenceOrder, occurrenceLabels),
					Value:       v.get("occurrence"),
				},
				{
					Type:        crud.FieldText,
					Name:        "occurrence_value",
					Label:       "Occurrence Value",
					Description: "Must be used in case of X days after month starts and X days before month ends.",
					Value:       v.get("occurrence_value"),
				},
				{
					Type:        crud.FieldDatetimepicker,
					Name:        "scheduled_date",
					Label:       "Scheduled",
					Description: "Set the scheduled date.",
					Value:       v.get("scheduled_date"),
				},
				{
					Type:        crud.FieldSelect,
					Name:        "type",
					Label:       "Type",
					Description: "Define what is the type of the transactions.",
					Options:     options(typeOrder, typeLabels),
					Value:       v.get("type"),
				},
				{
					Type:  crud.FieldTextarea,
					Name:  "description",
					Label: "Description",
					Value: v.get("description"),
				},
			},
		}},
	}, nil
}

// formValues are the field values of an existing transaction. Missing
// keys read as "".
type formValues map[string]any

func (v formValues) get(name string) any {
	if value, ok := v[name]; ok {
		return value
	}
	return ""
}

func valuesOf(t *domain.Transaction) formValues {
	v := formValues{
		"name":             t.Name,
		"active":           t.Active,
		"group_id":         t.GroupID,
		"account_id":       t.AccountID,
		"value":            t.Value,
		"recurring":        t.Recurring,
		"occurrence":       t.Occurrence,
		"occurrence_value": t.OccurrenceValue,
		"type":             t.Type,
		"description":      t.Description,
	}
	if t.ScheduledDate != nil {
		v["scheduled_date"] = t.ScheduledDate.UTC().Format(scheduleLayout)
	}
	return v
}

// FilterCreateInput coerces the numeric, boolean and date fields of a create input.
func (c *Controller) FilterCreateInput(in crud.Input) crud.Input {
	return normalize(in.Clone())
}

// FilterUpdateInput coerces the typed fields of an update input.
func (c *Controller) FilterUpdateInput(in crud.Input, _ crud.Entity) crud.Input {
	return normalize(in.Clone())
}

func normalize(in crud.Input) crud.Input {
	in = crud.CoerceNumbers(in, "value", "account_id", "group_id", "occurrence_value", "author")
	in = crud.CoerceBools(in, "active", "recurring")
	return crud.CoerceTimes(in, "scheduled_date")
}

// BeforeCreate checks the caller may create transactions and defaults the author.
func (c *Controller) BeforeCreate(ctx context.Context, in crud.Input) (crud.Input, error) {
	if err := c.Auth.AllowedTo(ctx, permissions.Create); err != nil {
		return nil, err
	}
	if caller, ok := authz.CallerFrom(ctx); ok {
		if v, set := in["author"]; !set || v == nil || v == 0.0 {
			in["author"] = caller.UserID
		}
	}
	if err := c.Events.Dispatch(ctx, event.New(event.TransactionBeforeCreated, nil, in)); err != nil {
		return nil, err
	}
	return in, nil
}

// AfterCreate announces the created transaction.
func (c *Controller) AfterCreate(ctx context.Context, in crud.Input, entry crud.Entity) crud.Input {
	_ = c.Events.Dispatch(ctx, event.New(event.TransactionAfterCreated, entry, in))
	return in
}

// BeforeUpdate checks the caller may update entry and announces the update.
func (c *Controller) BeforeUpdate(ctx context.Context, in crud.Input, entry crud.Entity) (crud.Input, error) {
	if err := c.Auth.AllowedTo(ctx, permissions.Update); err != nil {
		return nil, err
	}
	if err := c.Events.Dispatch(ctx, event.New(event.TransactionBeforeUpdate, entry, in)); err != nil {
		return nil, err
	}
	return in, nil
}

// AfterUpdate announces the updated transaction.
func (c *Controller) AfterUpdate(ctx context.Context, in crud.Input, entry crud.Entity) crud.Input {
	_ = c.Events.Dispatch(ctx, event.New(event.TransactionAfterUpdated, entry, in))
	return in
}

// BeforeDelete only announces the deletion; the engine deletes the row.
func (c *Controller) BeforeDelete(ctx context.Context, namespace string, _ uint, entry crud.Entity) (*crud.DeleteResult, error) {
	if namespace != Namespace {
		return nil, nil
	}
	if err := c.Auth.AllowedTo(ctx, permissions.Delete); err != nil {
		return nil, err
	}
	if err := c.Events.Dispatch(ctx, event.New(event.TransactionBeforeDelete, entry, nil)); err != nil {
		return nil, err
	}
	return nil, nil
}

// RowFacts returns no facts; transaction rows need none.
func (c *Controller) RowFacts(context.Context, []crud.Row) (map[uint]crud.RowFacts, error) {
	return nil, nil
}

// RowActions returns the actions of one transaction row.
func (c *Controller) RowActions(row crud.Row, _ crud.RowFacts) crud.ActionSpec {
	id := crud.IDString(row.ID)
	return c.Hooks.FilterRowActions(row, crud.ActionSpec{Actions: []crud.Action{
		{Identifier: "edit", Label: "Edit", Type: crud.ActionGoto, URL: "/dashboard/accounting/transactions/edit/" + id},
		{Identifier: "history", Label: "History", Type: crud.ActionGoto, URL: "/dashboard/accounting/transactions/history/" + id},
		{
			Identifier: "trigger",
			Label:      "Trigger",
			Type:       crud.ActionGet,
			URL:        "/api/v1/transactions/trigger/" + id,
			Confirm:    &crud.Confirm{Message: "Would you like to trigger this expense now?"},
		},
		{
			Identifier: "delete",
			Label:      "Delete",
			Type:       crud.ActionDelete,
			URL:        "/api/v1/crud/" + Namespace + "/" + id,
			Confirm:    &crud.Confirm{Message: "Would you like to delete this ?"},
		},
	}})
}

// BulkAction runs a bulk request against transactions.
func (c *Controller) BulkAction(ctx context.Context, req crud.BulkRequest) (*crud.BulkResult, error) {
	if err := crud.RequireRole(ctx, c.Auth, domain.RoleAdmin, domain.RoleSupervisor); err != nil {
		return nil, err
	}
	if req.Action == "delete_selected" {
		return crud.BulkDelete(ctx, req.Entries, c.Entries, isTransaction, c.Logger), nil
	}
	return c.Hooks.CatchAction(ctx, req)
}

// AdjustListQuery always lists the newest transactions first. An explicit
// sort only breaks ties.
func (c *Controller) AdjustListQuery(q *crud.ListQuery) {
	q.OrderBy("transactions.id DESC")
}

func isTransaction(e crud.Entity) bool {
	_, ok := e.(*domain.Transaction)
	return ok
}

