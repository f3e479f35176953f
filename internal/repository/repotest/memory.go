// Package repotest provides an in-memory TicketRepository for tests.
// It mirrors the Postgres store: same ordering, filter semantics and
// enumeration check constraints.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// MemoryTicketRepository stores tickets in a slice.
type MemoryTicketRepository struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	nextID  int64
	// Now stamps created_at; tests override it to control dates.
	Now func() time.Time
	// Err, when set, is returned by every call.
	Err error
}

var _ repository.TicketRepository = (*MemoryTicketRepository)(nil)

// NewMemoryTicketRepository returns an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{Now: time.Now}
}

// Len returns the number of stored tickets.
func (m *MemoryTicketRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// Seed stores a ticket as-is, bypassing checks, and returns its id.
func (m *MemoryTicketRepository) Seed(ticket domain.Ticket) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = m.nextID
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = m.Now()
	}
	m.tickets = append(m.tickets, ticket)
	return ticket.ID
}

func (m *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	if m.Err != nil {
		return m.Err
	}
	if err := checkConstraints(*ticket); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = m.nextID
	ticket.CreatedAt = m.Now()
	m.tickets = append(m.tickets, *ticket)
	return nil
}

func (m *MemoryTicketRepository) Update(_ context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].ID != id {
			continue
		}
		next := m.tickets[i]
		if patch.Title != nil {
			next.Title = *patch.Title
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.Category != nil {
			next.Category = *patch.Category
		}
		if patch.Priority != nil {
			next.Priority = *patch.Priority
		}
		if patch.Status != nil {
			next.Status = *patch.Status
		}
		if err := checkConstraints(next); err != nil {
			return nil, err
		}
		m.tickets[i] = next
		out := next
		return &out, nil
	}
	return nil, fmt.Errorf("update ticket %d: %w", id, pgx.ErrNoRows)
}

func (m *MemoryTicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ID == id {
			out := t
			return &out, nil
		}
	}
	return nil, fmt.Errorf("get ticket %d: %w", id, pgx.ErrNoRows)
}

func (m *MemoryTicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	search := ""
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}
	result := []domain.Ticket{}
	for _, t := range m.tickets {
		if !matches(filter.Category, string(t.Category)) ||
			!matches(filter.Priority, string(t.Priority)) ||
			!matches(filter.Status, string(t.Status)) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *MemoryTicketRepository) Counts(_ context.Context) (domain.TicketCounts, error) {
	counts := domain.TicketCounts{
		ByPriority: map[domain.TicketPriority]int64{},
		ByCategory: map[domain.TicketCategory]int64{},
	}
	if m.Err != nil {
		return counts, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	days := map[string]struct{}{}
	for _, t := range m.tickets {
		counts.Total++
		if t.Status == domain.TicketStatusOpen {
			counts.Open++
		}
		days[t.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
		counts.ByPriority[t.Priority]++
		counts.ByCategory[t.Category]++
	}
	counts.ActiveDays = int64(len(days))
	return counts, nil
}

func matches(want *string, got string) bool {
	return want == nil || *want == "" || *want == got
}

// checkConstraints mirrors the table CHECK constraints.
func checkConstraints(t domain.Ticket) error {
	fields := errorutil.FieldErrors{}
	if !t.Category.Valid() {
		fields.Add("category", "Value rejected by constraint valid_category.")
	}
	if !t.Priority.Valid() {
		fields.Add("priority", "Value rejected by constraint valid_priority.")
	}
	if !t.Status.Valid() {
		fields.Add("status", "Value rejected by constraint valid_status.")
	}
	if strings.TrimSpace(t.Title) == "" {
		fields.Add("title", "Value rejected by constraint nonblank_title.")
	}
	if strings.TrimSpace(t.Description) == "" {
		fields.Add("description", "Value rejected by constraint nonblank_description.")
	}
	if len(fields) > 0 {
		return errorutil.NewValidationError(fields)
	}
	return nil
}
