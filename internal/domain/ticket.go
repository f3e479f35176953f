package domain

import "time"

// TicketCategory enumerates the area a request belongs to.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryAccount   TicketCategory = "account"
	TicketCategoryGeneral   TicketCategory = "general"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

const (
	DefaultCategory = TicketCategoryGeneral
	DefaultPriority = TicketPriorityMedium
	DefaultStatus   = TicketStatusOpen

	// TitleMaxLength matches the tickets.title column width.
	TitleMaxLength = 200
)

// Ordered value sets. Breakdowns and validation are built from these lists.
var (
	Categories = []TicketCategory{TicketCategoryBilling, TicketCategoryTechnical, TicketCategoryAccount, TicketCategoryGeneral}
	Priorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical}
	Statuses   = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}
)

func (c TicketCategory) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

func (p TicketPriority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

func (s TicketStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	CreatedAt   time.Time
}

// TicketPatch holds the mutable fields of a partial update. Nil means untouched.
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *TicketCategory
	Priority    *TicketPriority
	Status      *TicketStatus
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Priority == nil && p.Status == nil
}

// ChangedFields lists the column names the patch writes.
func (p TicketPatch) ChangedFields() []string {
	fields := make([]string, 0, 5)
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Category != nil {
		fields = append(fields, "category")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}
