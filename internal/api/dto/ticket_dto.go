package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// FieldValue is a JSON text field that remembers whether it was sent at all,
// sent as null, or sent as something other than a string or number.
// Numbers are kept in their literal form.
type FieldValue struct {
	Set     bool
	Null    bool
	Invalid bool
	Value   string
}

// UnmarshalJSON only runs for keys present in the object, null included.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	*f = FieldValue{Set: true}
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		f.Null = true
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &f.Value)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		f.Value = string(data)
	default:
		f.Invalid = true
	}
	return nil
}

// TicketRequest is the create and partial-update payload.
// id and created_at are not accepted.
type TicketRequest struct {
	Title       FieldValue `json:"title"`
	Description FieldValue `json:"description"`
	Category    FieldValue `json:"category"`
	Priority    FieldValue `json:"priority"`
	Status      FieldValue `json:"status"`
}

// TicketResponse is the ticket representation.
type TicketResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

// StatsResponse mirrors domain.StatsReport.
type StatsResponse struct {
	TotalTickets      int64                           `json:"total_tickets"`
	OpenTickets       int64                           `json:"open_tickets"`
	AvgTicketsPerDay  float64                         `json:"avg_tickets_per_day"`
	PriorityBreakdown map[domain.TicketPriority]int64 `json:"priority_breakdown"`
	CategoryBreakdown map[domain.TicketCategory]int64 `json:"category_breakdown"`
}

// ClassifyRequest payload.
type ClassifyRequest struct {
	Description string `json:"description"`
}

// ClassifyResponse carries the suggestion and, on fallback, a warning.
type ClassifyResponse struct {
	SuggestedCategory domain.TicketCategory `json:"suggested_category"`
	SuggestedPriority domain.TicketPriority `json:"suggested_priority"`
	Provider          string                `json:"provider,omitempty"`
	Warning           string                `json:"warning,omitempty"`
}
