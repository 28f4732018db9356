package models

import (
	"fmt"
	"math"
	"time"
)

// Urgent item source types.
const (
	SourceLendBorrow = "lend_borrow"
	SourcePurchase   = "purchase"
)

// Urgent item priorities, informational only.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// UrgentItem is recomputed on every scan cycle and never persisted.
type UrgentItem struct {
	ID         string    `json:"id"`
	SourceType string    `json:"type"` // lend_borrow or purchase
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	DueDate    time.Time `json:"due_date"`
	DaysUntil  int       `json:"days_until"` // negative means overdue
	Amount     float64   `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Status     string    `json:"status"` // overdue, due_soon, upcoming
	Priority   string    `json:"priority"`
}

// DaysUntil returns ceil((due - now) / 1 day), signed.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// ClassifyUrgency maps a signed day count to an urgency status. Items more
// than 7 days out are not urgent and report ok=false.
func ClassifyUrgency(daysUntil int) (status string, ok bool) {
	switch {
	case daysUntil < 0:
		return CategoryOverdue, true
	case daysUntil <= 3:
		return CategoryDueSoon, true
	case daysUntil <= 7:
		return CategoryUpcoming, true
	default:
		return "", false
	}
}

// PriorityForStatus derives the informational priority from the urgency status.
func PriorityForStatus(status string) string {
	switch status {
	case CategoryOverdue:
		return PriorityHigh
	case CategoryDueSoon:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DedupKey is the stable composite identifying the underlying condition of an
// urgent item. The user id is a separate field on the stored notification.
func (i UrgentItem) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s", i.SourceType, i.ID, i.Status)
}
