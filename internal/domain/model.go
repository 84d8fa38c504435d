package domain

import "time"

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the primary key.
func (m BaseModel) EntityID() uint {
	return m.ID
}

// PageRequest holds pagination, sorting, and filtering parameters.
// Active names the column to sort on and Direction is "asc", "desc" or
// empty when the caller asked for no explicit order.
type PageRequest struct {
	Page      int
	PageSize  int
	Active    string
	Direction string
	Filter    map[string]string
}

// PageResult is one page of items plus pagination metadata.
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Role{},
		&Customer{},
		&Register{},
		&Order{},
		&OrderProduct{},
		&OrderPayment{},
		&OrderRefund{},
		&TransactionAccount{},
		&Transaction{},
		&TransactionHistory{},
	}
}
