package crud

import "context"

// Row action types.
const (
	ActionGoto   = "GOTO"
	ActionPopup  = "POPUP"
	ActionDelete = "DELETE"
	ActionGet    = "GET"
)

// Confirm asks the user to confirm an action before it runs.
type Confirm struct {
	Message string `json:"message"`
}

// Action is one row action.
type Action struct {
	Identifier string   `json:"identifier"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	URL        string   `json:"url,omitempty"`
	Confirm    *Confirm `json:"confirm,omitempty"`
}

// ActionSpec is the ordered list of actions of a row and its CSS class.
type ActionSpec struct {
	Actions  []Action `json:"actions"`
	CSSClass string   `json:"cssClass"`
}

// Has reports whether an action with identifier is present.
func (s ActionSpec) Has(identifier string) bool {
	for _, a := range s.Actions {
		if a.Identifier == identifier {
			return true
		}
	}
	return false
}

// BulkActionSpec is one entry of the bulk action menu.
type BulkActionSpec struct {
	Identifier string   `json:"identifier"`
	Label      string   `json:"label"`
	URL        string   `json:"url"`
	Confirm    *Confirm `json:"confirm,omitempty"`
}

// RowActionFilter transforms the default actions of a row.
type RowActionFilter func(row Row, spec ActionSpec) ActionSpec

// BulkActionFilter transforms the default bulk action menu.
type BulkActionFilter func(actions []BulkActionSpec) []BulkActionSpec

// CatchActionFilter handles bulk actions the controller does not know.
// It receives the result of the previous filter, nil at first, and
// returns its own result or passes prev on.
type CatchActionFilter func(ctx context.Context, req BulkRequest, prev *BulkResult) (*BulkResult, error)

// Hooks are the filter chains of one namespace, declared when the
// controller is built.
type Hooks struct {
	RowActions   []RowActionFilter
	BulkActions  []BulkActionFilter
	CatchActions []CatchActionFilter
}

// FilterRowActions runs spec through the row action chain.
func (h Hooks) FilterRowActions(row Row, spec ActionSpec) ActionSpec {
	for _, f := range h.RowActions {
		spec = f(row, spec)
	}
	return spec
}

// FilterBulkActions runs actions through the bulk action chain.
func (h Hooks) FilterBulkActions(actions []BulkActionSpec) []BulkActionSpec {
	for _, f := range h.BulkActions {
		actions = f(actions)
	}
	return actions
}

// CatchAction runs req through the catch-action chain. A nil result
// means no filter handled it.
func (h Hooks) CatchAction(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	var result *BulkResult
	for _, f := range h.CatchActions {
		var err error
		if result, err = f(ctx, req, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}
