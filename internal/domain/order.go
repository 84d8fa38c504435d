package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order payment statuses.
const (
	PaymentPaid              = "paid"
	PaymentHold              = "hold"
	PaymentPartially         = "partially_paid"
	PaymentPartiallyRefunded = "partially_refunded"
	PaymentRefunded          = "refunded"
	PaymentUnpaid            = "unpaid"
	PaymentVoid              = "order_void"
	PaymentDue               = "due"
	PaymentPartiallyDue      = "partially_due"
)

// Order delivery statuses.
const (
	DeliveryPending      = "pending"
	DeliveryOngoing      = "ongoing"
	DeliveryDelivered    = "delivered"
	DeliveryFailed       = "failed"
	DeliveryNotAvailable = "not-available"
)

// Order process statuses.
const (
	ProcessPending      = "pending"
	ProcessOngoing      = "ongoing"
	ProcessReady        = "ready"
	ProcessFailed       = "failed"
	ProcessNotAvailable = "not-available"
)

// Order types.
const (
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

// Order is a sale registered at the point of sale.
type Order struct {
	BaseModel
	UUID            string  `gorm:"size:36;uniqueIndex" json:"uuid"`
	Code            string  `gorm:"size:50;index" json:"code"`
	Title           string  `gorm:"size:255" json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	Type            string  `gorm:"size:50" json:"type"`
	PaymentStatus   string  `gorm:"size:50;index" json:"payment_status"`
	ProcessStatus   string  `gorm:"size:50" json:"process_status"`
	DeliveryStatus  string  `gorm:"size:50" json:"delivery_status"`
	Discount        float64 `json:"discount"`
	DiscountType    string  `gorm:"size:50" json:"discount_type"`
	DiscountRate    float64 `json:"discount_rate"`
	Shipping        float64 `json:"shipping"`
	ShippingRate    float64 `json:"shipping_rate"`
	ShippingType    string  `gorm:"size:50" json:"shipping_type"`
	TotalWithoutTax float64 `json:"total_without_tax"`
	TotalWithTax    float64 `json:"total_with_tax"`
	Total           float64 `json:"total"`
	Tendered        float64 `json:"tendered"`
	Change          float64 `json:"change"`
	CustomerID      uint    `gorm:"index" json:"customer_id"`
	RegisterID      uint    `gorm:"index" json:"register_id"`
	Author          uint    `gorm:"index" json:"author"`
}

// BeforeCreate assigns a UUID to orders created without one.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.NewString()
	}
	return nil
}

// OrderProduct is one line of an order.
type OrderProduct struct {
	BaseModel
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	Name      string  `gorm:"size:255" json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// OrderPayment is one payment received for an order.
type OrderPayment struct {
	BaseModel
	OrderID    uint    `gorm:"index;not null" json:"order_id"`
	Identifier string  `gorm:"size:50" json:"identifier"`
	Value      float64 `json:"value"`
	Author     uint    `json:"author"`
}

// OrderRefund records a refund issued against an order.
type OrderRefund struct {
	BaseModel
	OrderID     uint    `gorm:"index;not null" json:"order_id"`
	Total       float64 `json:"total"`
	PaymentType string  `gorm:"size:50" json:"payment_type"`
	Author      uint    `json:"author"`
}

// Register is a cash register orders are taken on.
type Register struct {
	BaseModel
	Name   string `gorm:"size:100;not null" json:"name"`
	Status string `gorm:"size:50" json:"status"`
}
