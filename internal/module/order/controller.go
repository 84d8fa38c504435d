package order

import (
	"context"
	"log/slog"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/event"
)

// Namespace identifies the order resource.
const Namespace = "ns.orders"

// DeletedMessage is returned once an order and its dependents are gone.
const DeletedMessage = "The order and the attached products has been deleted."

const refundsFact = "refunds"

// Deleter removes an order with everything attached to it.
type Deleter interface {
	DeleteOrder(ctx context.Context, o *domain.Order) error
}

// RefundCounter counts refunds per order.
type RefundCounter interface {
	CountRefunds(ctx context.Context, ids []uint) (map[uint]int64, error)
}

// Lookups loads the option lists of the order filters.
type Lookups interface {
	Users(ctx context.Context) ([]crud.Option, error)
	Customers(ctx context.Context) ([]crud.Option, error)
	Registers(ctx context.Context) ([]crud.Option, error)
}

// Deps are the collaborators of the order controller.
type Deps struct {
	Auth    crud.Authorizer
	Events  event.Dispatcher
	Orders  Deleter
	Entries crud.Repository
	Refunds RefundCounter
	Lookups Lookups
	Hooks   crud.Hooks
	Logger  *slog.Logger
}

// Controller is the crud.Controller of orders.
type Controller struct {
	Deps
}

// NewController creates the order controller.
func NewController(d Deps) *Controller {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Controller{Deps: d}
}

var permissions = domain.Permissions{
	Create: domain.PermCreateOrders,
	Read:   domain.PermReadOrders,
	Update: domain.PermUpdateOrders,
	Delete: domain.PermDeleteOrders,
}

// Describe names the orders resource and its permissions.
func (c *Controller) Describe() crud.ResourceDescriptor {
	return crud.ResourceDescriptor{
		Namespace: Namespace,
		Table:     "orders",
		Model:     "order",
		Relations: []crud.Relation{
			{Table: "users", Alias: "author", LocalKey: "orders.author", Operator: "=", ForeignKey: "author.id"},
			{Table: "customers", Alias: "customer", LocalKey: "orders.customer_id", Operator: "=", ForeignKey: "customer.id"},
		},
		Picks: map[string][]string{
			"author":   {"username"},
			"customer": {"first_name", "phone"},
		},
		Permissions: permissions,
	}
}

// Labels returns the list and form labels of orders.
func (c *Controller) Labels() crud.LabelSet {
	return crud.LabelSet{
		ListTitle:         "Orders List",
		ListDescription:   "Display all orders.",
		NoEntry:           "No orders has been registered",
		CreateNew:         "Add a new order",
		CreateTitle:       "Create a new order",
		CreateDescription: "Register a new order and save it.",
		EditTitle:         "Edit order",
		EditDescription:   "Modify  Order.",
		BackToList:        "Return to Orders",
	}
}

// Columns returns the order list columns.
func (c *Controller) Columns() crud.ColumnSpec {
	return crud.ColumnSpec{
		{Key: "code", Label: "Code", Sortable: true, Width: "120px"},
		{Key: "customer_first_name", Label: "Customer", Sortable: true, Width: "120px"},
		{Key: "customer_phone", Label: "Phone", Sortable: true},
		{Key: "discount", Label: "Discount", Sortable: true},
		{Key: "delivery_status", Label: "Delivery Status", Sortable: true},
		{Key: "payment_status", Label: "Payment Status", Sortable: true},
		{Key: "process_status", Label: "Process Status", Sortable: true},
		{Key: "total", Label: "Total", Sortable: true},
		{Key: "type", Label: "Type", Sortable: true},
		{Key: "author_username", Label: "Author", Sortable: true},
		{Key: "created_at", Label: "Created At", Sortable: true},
	}
}

// Links returns the order list and create routes.
func (c *Controller) Links() crud.Links {
	return crud.Links{
		List:   "/dashboard/orders",
		Create: "/dashboard/pos",
		Edit:   "/dashboard/orders/edit/{id}",
	}
}

// Casts formats order amounts and statuses for display.
func (c *Controller) Casts() map[string]crud.Cast {
	return map[string]crud.Cast{
		"customer_phone":  crud.NotDefined("Not Defined"),
		"total":           crud.Currency("$"),
		"discount":        crud.Currency("$"),
		"delivery_status": crud.Labels(deliveryLabels, "Unknown Status"),
		"process_status":  crud.Labels(processLabels, "Unknown Status"),
		"type":            crud.Labels(typeLabels, "Unknown Type"),
		"payment_status":  crud.Labels(paymentLabels, "Unknown Status"),
		"created_at":      crud.Date("2006-01-02 15:04"),
		"updated_at":      crud.Date("2006-01-02 15:04"),
	}
}

// QueryFilters returns the filters of the order list.
func (c *Controller) QueryFilters(ctx context.Context) ([]crud.QueryFilter, error) {
	users, err := c.Lookups.Users(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := c.Lookups.Customers(ctx)
	if err != nil {
		return nil, err
	}
	registers, err := c.Lookups.Registers(ctx)
	if err != nil {
		return nil, err
	}

	payments := make([]crud.Option, len(paymentOrder))
	for i, status := range paymentOrder {
		payments[i] = crud.Option{Label: paymentLabels[status], Value: status}
	}

	return []crud.QueryFilter{
		{
			Type:        crud.FilterDateRange,
			Name:        "orders.created_at",
			Label:       "Created Between",
			Description: "Restrict the orders by the creation date.",
		},
		{
			Type:        crud.FilterSelect,
			Name:        "orders.payment_status",
			Label:       "Payment Status",
			Description: "Restrict the orders by the payment status.",
			Options:     payments,
		},
		{
			Type:        crud.FilterSelect,
			Name:        "orders.author",
			Label:       "Author",
			Description: "Restrict the orders by the author.",
			Options:     users,
		},
		{
			Type:        crud.FilterSelect,
			Name:        "orders.customer_id",
			Label:       "Customer",
			Description: "Restrict the orders by the customer.",
			Options:     customers,
		},
		{
			Type:        crud.FilterText,
			Name:        "customer.phone",
			Label:       "Customer Phone",
			Operator:    "like",
			Description: "Restrict orders using the customer phone number.",
		},
		{
			Type:        crud.FilterSelect,
			Name:        "orders.register_id",
			Label:       "Cash Register",
			Description: "Restrict the orders to the cash registers.",
			Options:     registers,
		},
	}, nil
}

// BulkActions lists the bulk actions offered on orders.
func (c *Controller) BulkActions() []crud.BulkActionSpec {
	return c.Hooks.FilterBulkActions([]crud.BulkActionSpec{{
		Label:      "Delete Selected Groups",
		Identifier: "delete_selected",
		URL:        "/api/v1/crud/" + Namespace + "/bulk-actions",
	}})
}

var formFields = []struct{ name, label string }{
	{"author", "Author"},
	{"change", "Change"},
	{"code", "Code"},
	{"created_at", "Created At"},
	{"customer_id", "Customer Id"},
	{"delivery_status", "Delivery Status"},
	{"description", "Description"},
	{"discount", "Discount"},
	{"discount_rate", "Discount Rate"},
	{"discount_type", "Discount Type"},
	{"total_without_tax", "Tax Excluded"},
	{"id", "Id"},
	{"total_with_tax", "Tax Included"},
	{"payment_status", "Payment Status"},
	{"process_status", "Process Status"},
	{"shipping", "Shipping"},
	{"shipping_rate", "Shipping Rate"},
	{"shipping_type", "Shipping Type"},
	{"tendered", "Tendered"},
	{"title", "Title"},
	{"total", "Total"},
	{"type", "Type"},
	{"updated_at", "Updated At"},
	{"uuid", "Uuid"},
}

func attributes(o *domain.Order) map[string]any {
	return map[string]any{
		"author":            o.Author,
		"change":            o.Change,
		"code":              o.Code,
		"created_at":        o.CreatedAt,
		"customer_id":       o.CustomerID,
		"delivery_status":   o.DeliveryStatus,
		"description":       o.Description,
		"discount":          o.Discount,
		"discount_rate":     o.DiscountRate,
		"discount_type":     o.DiscountType,
		"total_without_tax": o.TotalWithoutTax,
		"id":                o.ID,
		"total_with_tax":    o.TotalWithTax,
		"payment_status":    o.PaymentStatus,
		"process_status":    o.ProcessStatus,
		"shipping":          o.Shipping,
		"shipping_rate":     o.ShippingRate,
		"shipping_type":     o.ShippingType,
		"tendered":          o.Tendered,
		"title":             o.Title,
		"total":             o.Total,
		"type":              o.Type,
		"updated_at":        o.UpdatedAt,
		"uuid":              o.UUID,
	}
}

// BuildForm returns the order form. Every field is plain text; a nil
// entry yields empty values.
func (c *Controller) BuildForm(_ context.Context, entry crud.Entity) (crud.FormSpec, error) {
	var values map[string]any
	if o, ok := entry.(*domain.Order); ok && o != nil {
		values = attributes(o)
	}

	fields := make([]crud.Field, len(formFields))
	for i, f := range formFields {
		var value any = ""
		if values != nil {
			value = values[f.name]
		}
		fields[i] = crud.Field{Type: crud.FieldText, Name: f.name, Label: f.label, Value: value}
	}

	return crud.FormSpec{
		Main: crud.Field{Label: "Name", Description: "Provide a name to the resource."},
		Tabs: []crud.Tab{{Key: "general", Label: "General", Fields: fields}},
	}, nil
}

var numericInputs = []string{
	"author", "change", "customer_id", "register_id", "discount", "discount_rate",
	"total_without_tax", "total_with_tax", "shipping", "shipping_rate", "tendered", "total",
}

// FilterCreateInput drops a blank uuid and coerces the numeric fields.
func (c *Controller) FilterCreateInput(in crud.Input) crud.Input {
	return normalize(in.Clone())
}

// FilterUpdateInput drops a blank uuid and coerces the numeric fields.
func (c *Controller) FilterUpdateInput(in crud.Input, _ crud.Entity) crud.Input {
	return normalize(in.Clone())
}

func normalize(in crud.Input) crud.Input {
	if uuid, ok := in["uuid"].(string); ok && uuid == "" {
		delete(in, "uuid")
	}
	return crud.CoerceNumbers(in, numericInputs...)
}

// BeforeCreate checks the caller may create orders and defaults the author.
func (c *Controller) BeforeCreate(ctx context.Context, in crud.Input) (crud.Input, error) {
	if err := c.Auth.AllowedTo(ctx, permissions.Create); err != nil {
		return nil, err
	}
	if caller, ok := authz.CallerFrom(ctx); ok {
		if v, set := in["author"]; !set || v == nil || v == 0.0 {
			in["author"] = caller.UserID
		}
	}
	if err := c.Events.Dispatch(ctx, event.New(event.OrderBeforeCreated, nil, in)); err != nil {
		return nil, err
	}
	return in, nil
}

// AfterCreate announces the new order. The bus logs subscriber failures;
// they never undo the committed write.
func (c *Controller) AfterCreate(ctx context.Context, in crud.Input, entry crud.Entity) crud.Input {
	_ = c.Events.Dispatch(ctx, event.New(event.OrderAfterCreated, entry, in))
	return in
}

// BeforeUpdate checks the caller may update entry and announces the update.
func (c *Controller) BeforeUpdate(ctx context.Context, in crud.Input, entry crud.Entity) (crud.Input, error) {
	if err := c.Auth.AllowedTo(ctx, permissions.Update); err != nil {
		return nil, err
	}
	if err := c.Events.Dispatch(ctx, event.New(event.OrderBeforeUpdate, entry, in)); err != nil {
		return nil, err
	}
	return in, nil
}

// AfterUpdate announces the updated order.
func (c *Controller) AfterUpdate(ctx context.Context, in crud.Input, entry crud.Entity) crud.Input {
	_ = c.Events.Dispatch(ctx, event.New(event.OrderAfterUpdated, entry, in))
	return in
}

// BeforeDelete deletes the order and its dependents itself, so the engine
// has nothing left to delete.
func (c *Controller) BeforeDelete(ctx context.Context, namespace string, _ uint, entry crud.Entity) (*crud.DeleteResult, error) {
	if namespace != Namespace {
		return nil, nil
	}
	if err := c.Auth.AllowedTo(ctx, permissions.Delete); err != nil {
		return nil, err
	}
	o, ok := entry.(*domain.Order)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := c.Events.Dispatch(ctx, event.New(event.OrderBeforeDelete, o, nil)); err != nil {
		return nil, err
	}
	if err := c.Orders.DeleteOrder(ctx, o); err != nil {
		return nil, err
	}
	return &crud.DeleteResult{Status: "success", Message: DeletedMessage}, nil
}

// RowFacts loads the per-row facts the row actions depend on.
func (c *Controller) RowFacts(ctx context.Context, rows []crud.Row) (map[uint]crud.RowFacts, error) {
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	counts, err := c.Refunds.CountRefunds(ctx, ids)
	if err != nil {
		return nil, err
	}
	facts := make(map[uint]crud.RowFacts, len(rows))
	for _, id := range ids {
		facts[id] = crud.RowFacts{Counts: map[string]int64{refundsFact: counts[id]}}
	}
	return facts, nil
}

// RowActions returns the actions of one order row.
func (c *Controller) RowActions(row crud.Row, facts crud.RowFacts) crud.ActionSpec {
	id := crud.IDString(row.ID)
	actions := []crud.Action{{
		Identifier: "ns.order-options",
		Label:      "Options",
		Type:       crud.ActionPopup,
		URL:        "/dashboard/orders/edit/" + id,
	}}
	if facts.Count(refundsFact) > 0 {
		actions = append(actions, crud.Action{
			Identifier: "ns.order-refunds",
			Label:      "Refund Receipt",
			Type:       crud.ActionPopup,
			URL:        "/dashboard/orders/refund-receipt/" + id,
		})
	}
	actions = append(actions,
		crud.Action{Identifier: "invoice", Label: "Invoice", Type: crud.ActionGoto, URL: "/dashboard/orders/invoice/" + id},
		crud.Action{Identifier: "receipt", Label: "Receipt", Type: crud.ActionGoto, URL: "/dashboard/orders/receipt/" + id},
		crud.Action{
			Identifier: "delete",
			Label:      "Delete",
			Type:       crud.ActionDelete,
			URL:        "/api/v1/crud/" + Namespace + "/" + id,
			Confirm:    &crud.Confirm{Message: "Would you like to delete this ?"},
		},
	)

	return c.Hooks.FilterRowActions(row, crud.ActionSpec{
		Actions:  actions,
		CSSClass: rowClasses[row.String("payment_status")],
	})
}

// BulkAction runs a bulk request against orders.
func (c *Controller) BulkAction(ctx context.Context, req crud.BulkRequest) (*crud.BulkResult, error) {
	if err := crud.RequireRole(ctx, c.Auth, domain.RoleAdmin, domain.RoleSupervisor); err != nil {
		return nil, err
	}
	if req.Action == "delete_selected" {
		repo := cascadeRepository{Repository: c.Entries, orders: c.Orders}
		return crud.BulkDelete(ctx, req.Entries, repo, isOrder, c.Logger), nil
	}
	return c.Hooks.CatchAction(ctx, req)
}

// AdjustListQuery lists the newest orders first unless the caller sorts.
func (c *Controller) AdjustListQuery(q *crud.ListQuery) {
	if !q.HasDirection() {
		q.OrderBy("orders.id DESC")
	}
}

func isOrder(e crud.Entity) bool {
	_, ok := e.(*domain.Order)
	return ok
}

// cascadeRepository deletes orders through the order service.
type cascadeRepository struct {
	crud.Repository
	orders Deleter
}

func (r cascadeRepository) Delete(ctx context.Context, entry crud.Entity) error {
	o, ok := entry.(*domain.Order)
	if !ok {
		return domain.ErrNotFound
	}
	return r.orders.DeleteOrder(ctx, o)
}
