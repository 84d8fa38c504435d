package domain

import "time"

// Transaction types.
const (
	TransactionDirect    = "ns.direct-transaction"
	TransactionRecurring = "ns.recurring-transaction"
	TransactionEntity    = "ns.entity-transaction"
	TransactionScheduled = "ns.scheduled-transaction"
)

// Occurrences of a recurring transaction.
const (
	OccurrenceMonthStarts      = "month_starts"
	OccurrenceMonthMids        = "month_mids"
	OccurrenceMonthEnds        = "month_ends"
	OccurrenceBeforeMonthEnds  = "x_before_month_ends"
	OccurrenceAfterMonthStarts = "x_after_month_starts"
)

// Account operations.
const (
	OperationDebit  = "debit"
	OperationCredit = "credit"
)

// History statuses.
const (
	HistoryActive   = "active"
	HistoryReversed = "reversed"
)

// Transaction is an accounting expense or income definition. Depending on
// its type it is recorded once, on schedule or on every occurrence.
type Transaction struct {
	BaseModel
	Name            string     `gorm:"size:255;not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	AccountID       uint       `gorm:"index" json:"account_id"`
	Active          bool       `json:"active"`
	Value           float64    `json:"value"`
	Recurring       bool       `json:"recurring"`
	Type            string     `gorm:"size:50" json:"type"`
	Occurrence      string     `gorm:"size:50" json:"occurrence"`
	OccurrenceValue int        `json:"occurrence_value"`
	ScheduledDate   *time.Time `json:"scheduled_date"`
	GroupID         uint       `json:"group_id"`
	Author          uint       `gorm:"index" json:"author"`
}

// Due reports whether a one-shot transaction should be recorded at now.
func (t *Transaction) Due(now time.Time) bool {
	if !t.Active || t.Recurring {
		return false
	}
	return t.ScheduledDate == nil || !t.ScheduledDate.After(now)
}

// TransactionAccount classifies transactions for reporting.
type TransactionAccount struct {
	BaseModel
	Name          string `gorm:"size:255;not null" json:"name"`
	Operation     string `gorm:"size:20" json:"operation"`
	AccountNumber string `gorm:"size:50" json:"account_number"`
	Author        uint   `json:"author"`
}

// TransactionHistory is one recorded occurrence of a transaction.
type TransactionHistory struct {
	BaseModel
	TransactionID uint      `gorm:"index;not null" json:"transaction_id"`
	AccountID     uint      `gorm:"index" json:"account_id"`
	Name          string    `gorm:"size:255" json:"name"`
	Value         float64   `json:"value"`
	Operation     string    `gorm:"size:20" json:"operation"`
	Status        string    `gorm:"size:20" json:"status"`
	TriggerDate   time.Time `json:"trigger_date"`
	Author        uint      `json:"author"`
}
