package crud

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// DeletedMessage is reported when the engine deleted an entry itself.
const DeletedMessage = "The entry has been successfully deleted."

// Resource pairs a controller with the repository of its entities.
type Resource struct {
	Controller Controller
	Repository Repository
}

// ListEntry is one row of a list response.
type ListEntry struct {
	ID       uint           `json:"$id"`
	Cells    map[string]any `json:"cells"`
	Actions  []Action       `json:"$actions"`
	CSSClass string         `json:"$cssClass"`
}

// Engine drives CRUD operations through the registered controllers.
type Engine struct {
	db        *gorm.DB
	auth      Authorizer
	validate  *validator.Validate
	resources map[string]Resource
	logger    *slog.Logger
}

// NewEngine creates an engine serving resources. Descriptors are validated
// and namespaces must be unique.
func NewEngine(db *gorm.DB, auth Authorizer, logger *slog.Logger, resources ...Resource) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		db:        db,
		auth:      auth,
		validate:  validator.New(),
		resources: make(map[string]Resource, len(resources)),
		logger:    logger,
	}
	for _, r := range resources {
		d := r.Controller.Describe()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := e.resources[d.Namespace]; dup {
			return nil, fmt.Errorf("duplicate resource namespace %q", d.Namespace)
		}
		e.resources[d.Namespace] = r
	}
	return e, nil
}

// Namespaces returns the registered namespaces in sorted order.
func (e *Engine) Namespaces() []string {
	return slices.Sorted(maps.Keys(e.resources))
}

func (e *Engine) resource(namespace string) (Resource, error) {
	r, ok := e.resources[namespace]
	if !ok {
		return Resource{}, domain.NewAppError(domain.CodeNotFound, "unknown resource", fmt.Errorf("namespace %q", namespace))
	}
	return r, nil
}

// Config returns the list configuration of namespace.
func (e *Engine) Config(ctx context.Context, namespace string) (*ConfigView, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	ctrl := r.Controller
	if err := e.auth.AllowedTo(ctx, ctrl.Describe().Permissions.Read); err != nil {
		return nil, err
	}
	filters, err := ctrl.QueryFilters(ctx)
	if err != nil {
		return nil, err
	}
	return &ConfigView{
		Namespace:    namespace,
		Labels:       ctrl.Labels(),
		Columns:      ctrl.Columns(),
		BulkActions:  ctrl.BulkActions(),
		QueryFilters: filters,
		Links:        ctrl.Links(),
	}, nil
}

// List returns one page of namespace entries with display casts and row
// actions applied.
func (e *Engine) List(ctx context.Context, namespace string, req domain.PageRequest) (*domain.PageResult[ListEntry], error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	ctrl := r.Controller
	desc := ctrl.Describe()
	if err := e.auth.AllowedTo(ctx, desc.Permissions.Read); err != nil {
		return nil, err
	}

	filters, err := ctrl.QueryFilters(ctx)
	if err != nil {
		return nil, err
	}
	base, err := applyFilters(baseSelect(desc), filters, req.Filter)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "invalid list query", err)
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "invalid list query", err)
	}
	var total int64
	if err := e.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	q := &ListQuery{Request: req, builder: base.Columns(desc.Projection()...)}
	ctrl.AdjustListQuery(q)
	columns := ctrl.Columns()
	if expr := sortExpr(desc, columns, req); expr != "" {
		q.OrderBy(expr)
	}
	q.builder = q.builder.Limit(uint64(req.PageSize)).Offset(uint64(pkg.Offset(req)))

	listSQL, listArgs, err := q.SQL()
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "invalid list query", err)
	}
	var values []map[string]any
	if err := e.db.WithContext(ctx).Raw(listSQL, listArgs...).Scan(&values).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}

	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{ID: toUint(v["id"]), Values: v}
	}
	facts, err := ctrl.RowFacts(ctx, rows)
	if err != nil {
		return nil, err
	}

	casts := ctrl.Casts()
	entries := make([]ListEntry, len(rows))
	for i, row := range rows {
		cells := make(map[string]any, len(columns))
		for _, key := range columns.Keys() {
			v := row.Values[key]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if cast, ok := casts[key]; ok {
				v = cast(v)
			}
			cells[key] = v
		}
		spec := ctrl.RowActions(row, facts[row.ID])
		entries[i] = ListEntry{ID: row.ID, Cells: cells, Actions: spec.Actions, CSSClass: spec.CSSClass}
	}

	return pkg.NewPage(entries, total, req), nil
}

// Form returns the create form when id is zero, or the edit form of id.
func (e *Engine) Form(ctx context.Context, namespace string, id uint) (FormSpec, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return FormSpec{}, err
	}
	perms := r.Controller.Describe().Permissions
	if id == 0 {
		if err := e.auth.AllowedTo(ctx, perms.Create); err != nil {
			return FormSpec{}, err
		}
		return r.Controller.BuildForm(ctx, nil)
	}

	if err := e.auth.AllowedTo(ctx, perms.Update); err != nil {
		return FormSpec{}, err
	}
	entry, err := r.Repository.Find(ctx, id)
	if err != nil {
		return FormSpec{}, err
	}
	return r.Controller.BuildForm(ctx, entry)
}

// Create validates raw against the create form and stores a new entry,
// running the create hooks around the write.
func (e *Engine) Create(ctx context.Context, namespace string, raw Input) (Entity, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	ctrl := r.Controller
	if err := e.auth.AllowedTo(ctx, ctrl.Describe().Permissions.Create); err != nil {
		return nil, err
	}

	form, err := ctrl.BuildForm(ctx, nil)
	if err != nil {
		return nil, err
	}
	in := form.Flatten(raw)
	if err := form.Validate(e.validate, in); err != nil {
		return nil, err
	}

	in = ctrl.FilterCreateInput(in)
	in, err = ctrl.BeforeCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	entry, err := r.Repository.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	ctrl.AfterCreate(ctx, in, entry)

	e.logger.InfoContext(ctx, "entry created",
		slog.String("namespace", namespace),
		slog.Uint64("id", uint64(entry.EntityID())),
	)
	return entry, nil
}

// Update validates raw against the edit form of id and saves it, running
// the update hooks around the write.
func (e *Engine) Update(ctx context.Context, namespace string, id uint, raw Input) (Entity, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	ctrl := r.Controller
	if err := e.auth.AllowedTo(ctx, ctrl.Describe().Permissions.Update); err != nil {
		return nil, err
	}

	entry, err := r.Repository.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	form, err := ctrl.BuildForm(ctx, entry)
	if err != nil {
		return nil, err
	}
	in := form.Flatten(raw)
	if err := form.Validate(e.validate, in); err != nil {
		return nil, err
	}

	in = ctrl.FilterUpdateInput(in, entry)
	in, err = ctrl.BeforeUpdate(ctx, in, entry)
	if err != nil {
		return nil, err
	}

	updated, err := r.Repository.Update(ctx, entry, in)
	if err != nil {
		return nil, err
	}
	ctrl.AfterUpdate(ctx, in, updated)

	e.logger.InfoContext(ctx, "entry updated",
		slog.String("namespace", namespace),
		slog.Uint64("id", uint64(id)),
	)
	return updated, nil
}

// Delete removes entry id. When the before-delete hook handles the
// deletion its result is returned and the engine deletes nothing.
func (e *Engine) Delete(ctx context.Context, namespace string, id uint) (*DeleteResult, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	if err := e.auth.AllowedTo(ctx, r.Controller.Describe().Permissions.Delete); err != nil {
		return nil, err
	}

	entry, err := r.Repository.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	handled, err := r.Controller.BeforeDelete(ctx, namespace, id, entry)
	if err != nil {
		return nil, err
	}
	if handled != nil {
		return handled, nil
	}

	if err := r.Repository.Delete(ctx, entry); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "entry deleted",
		slog.String("namespace", namespace),
		slog.Uint64("id", uint64(id)),
	)
	return &DeleteResult{Status: "success", Message: DeletedMessage}, nil
}

// Bulk runs a bulk action through the controller.
func (e *Engine) Bulk(ctx context.Context, namespace string, req BulkRequest) (*BulkResult, error) {
	r, err := e.resource(namespace)
	if err != nil {
		return nil, err
	}
	result, err := r.Controller.BulkAction(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, domain.NewAppError(domain.CodeValidation, "unsupported action", fmt.Errorf("action %q", req.Action))
	}
	return result, nil
}
