// Package crud implements the generic admin CRUD engine. A resource is
// described by a Controller (what to list, how to build its form, which
// lifecycle hooks to run) and persisted through a Repository. The Engine
// drives both and the Handler exposes them over HTTP.
package crud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/simp-lee/posadmin/internal/domain"
)

// Input is the attribute map submitted on create and update.
type Input map[string]any

// Clone returns a shallow copy of in.
func (in Input) Clone() Input {
	out := make(Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Entity is a persisted record managed by a controller.
type Entity interface {
	EntityID() uint
}

// Row is one list row as projected by the list query.
type Row struct {
	ID     uint
	Values map[string]any
}

// String returns the value of key formatted as text, or "" when absent.
func (r Row) String(key string) string {
	v, ok := r.Values[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// RowFacts holds per-entry facts gathered in one batch before row actions
// are computed, so that RowActions stays a pure function.
type RowFacts struct {
	Counts map[string]int64
}

// Count returns the named counter, zero when unknown.
func (f RowFacts) Count(name string) int64 {
	return f.Counts[name]
}

// DeleteResult reports a delete handled by a before-delete hook or by the engine.
type DeleteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BulkRequest is the body of a bulk action call.
type BulkRequest struct {
	Action  string `json:"action" binding:"required"`
	Entries []uint `json:"entries"`
}

// BulkResult reports the outcome of a bulk action.
type BulkResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
}

// Authorizer answers permission and role questions about the caller in ctx.
type Authorizer interface {
	AllowedTo(ctx context.Context, perm domain.Permission) error
	Is(ctx context.Context, roles ...string) bool
}

// Controller describes one CRUD resource and its lifecycle hooks.
type Controller interface {
	Describe() ResourceDescriptor
	Labels() LabelSet
	Columns() ColumnSpec
	Links() Links
	Casts() map[string]Cast
	QueryFilters(ctx context.Context) ([]QueryFilter, error)
	BulkActions() []BulkActionSpec

	// BuildForm returns the form for entry, or the empty create form when
	// entry is nil. It never mutates entry.
	BuildForm(ctx context.Context, entry Entity) (FormSpec, error)

	FilterCreateInput(in Input) Input
	FilterUpdateInput(in Input, entry Entity) Input

	BeforeCreate(ctx context.Context, in Input) (Input, error)
	AfterCreate(ctx context.Context, in Input, entry Entity) Input
	BeforeUpdate(ctx context.Context, in Input, entry Entity) (Input, error)
	AfterUpdate(ctx context.Context, in Input, entry Entity) Input

	// BeforeDelete runs before the engine deletes entry. A non-nil result
	// means the hook handled the deletion itself.
	BeforeDelete(ctx context.Context, namespace string, id uint, entry Entity) (*DeleteResult, error)

	RowFacts(ctx context.Context, rows []Row) (map[uint]RowFacts, error)
	RowActions(row Row, facts RowFacts) ActionSpec

	// BulkAction runs req. A nil result with a nil error means the action
	// is not supported.
	BulkAction(ctx context.Context, req BulkRequest) (*BulkResult, error)

	AdjustListQuery(q *ListQuery)
}

// Repository persists the entities of one resource.
type Repository interface {
	Find(ctx context.Context, id uint) (Entity, error)
	Create(ctx context.Context, in Input) (Entity, error)
	Update(ctx context.Context, entry Entity, in Input) (Entity, error)
	Delete(ctx context.Context, entry Entity) error
}

// IDString formats an entity id for use in URLs.
func IDString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
