package crud

// LabelSet holds the user facing texts of a resource.
type LabelSet struct {
	ListTitle         string `json:"list_title"`
	ListDescription   string `json:"list_description"`
	NoEntry           string `json:"no_entry"`
	CreateNew         string `json:"create_new"`
	CreateTitle       string `json:"create_title"`
	CreateDescription string `json:"create_description"`
	EditTitle         string `json:"edit_title"`
	EditDescription   string `json:"edit_description"`
	BackToList        string `json:"back_to_list"`
}

// Links are the frontend and API URLs of a resource.
type Links struct {
	List   string `json:"list"`
	Create string `json:"create"`
	Edit   string `json:"edit"`
	Post   string `json:"post,omitempty"`
	Put    string `json:"put,omitempty"`
}

// Query filter types.
const (
	FilterDateRange = "daterangepicker"
	FilterSelect    = "select"
	FilterText      = "text"
)

// QueryFilter is one filter of the list view. Name is the column it
// applies to; a daterange filter reads "<name>__from" and "<name>__to".
type QueryFilter struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Operator    string   `json:"operator,omitempty"`
}

// ConfigView is the list configuration of a resource.
type ConfigView struct {
	Namespace    string           `json:"namespace"`
	Labels       LabelSet         `json:"labels"`
	Columns      ColumnSpec       `json:"columns"`
	BulkActions  []BulkActionSpec `json:"bulkActions"`
	QueryFilters []QueryFilter    `json:"queryFilters"`
	Links        Links            `json:"links"`
}
