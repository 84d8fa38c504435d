package domain

// User is a back-office account. Users author orders and transactions.
type User struct {
	BaseModel
	Username  string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:255" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`
	Active    bool   `gorm:"not null;default:true" json:"active"`
}

// Customer is the buyer attached to an order.
type Customer struct {
	BaseModel
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:255" json:"email"`
	Phone     string `gorm:"size:50;index" json:"phone"`
}

// Role is a named group of permissions. Transactions may target a role
// through their group.
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Namespace   string `gorm:"size:100;uniqueIndex;not null" json:"namespace"`
	Description string `gorm:"size:255" json:"description"`
}
