package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketListFilter describes list query parameters; empty strings are ignored.
type TicketListFilter struct {
	Category string
	Priority string
	Status   string
	Search   string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket validates input, applies defaults and persists a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketFields) (*domain.Ticket, error) {
	ticket, err := validateCreate(input)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
			Status:   ticket.Status,
		},
	})
	return ticket, nil
}

// GetTicket returns a single ticket or a not-found error.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errorutil.IsNotFound(err) {
			return nil, errorutil.NewNotFound()
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns tickets matching every supplied filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, repository.TicketFilter{
		Category: nonEmpty(filter.Category),
		Priority: nonEmpty(filter.Priority),
		Status:   nonEmpty(filter.Status),
		Search:   nonEmpty(filter.Search),
	})
}

// UpdateTicket applies a partial update. Only supplied fields are validated and written.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, input TicketFields) (*domain.Ticket, error) {
	if _, err := s.GetTicket(ctx, id); err != nil {
		return nil, err
	}
	patch, err := validatePatch(input)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.Update(ctx, id, patch)
	if err != nil {
		if errorutil.IsNotFound(err) {
			return nil, errorutil.NewNotFound()
		}
		return nil, err
	}
	if !patch.Empty() {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: ticket.ID,
			Payload: events.TicketUpdatedPayload{
				Changed:  patch.ChangedFields(),
				Category: ticket.Category,
				Priority: ticket.Priority,
				Status:   ticket.Status,
			},
		})
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("ticket event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
