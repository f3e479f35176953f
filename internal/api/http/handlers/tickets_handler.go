package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Classifier suggests a category and priority for a description.
type Classifier interface {
	Classify(ctx context.Context, description string) (domain.ClassificationResult, error)
}

// TicketsHandler serves the ticket endpoints.
type TicketsHandler struct {
	tickets    *service.TicketService
	stats      *service.StatsService
	classifier Classifier
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, stats *service.StatsService, classifier Classifier) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, stats: stats, classifier: classifier}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext(), service.TicketListFilter{
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	fields, err := ticketFields(req)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), fields)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	fields, err := ticketFields(req)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	report, err := h.stats.ComputeStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{
		TotalTickets:      report.TotalTickets,
		OpenTickets:       report.OpenTickets,
		AvgTicketsPerDay:  report.AvgTicketsPerDay,
		PriorityBreakdown: report.PriorityBreakdown,
		CategoryBreakdown: report.CategoryBreakdown,
	})
}

// Classify POST /tickets/classify.
func (h *TicketsHandler) Classify(c *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	result, err := h.classifier.Classify(c.UserContext(), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(dto.ClassifyResponse{
		SuggestedCategory: result.SuggestedCategory,
		SuggestedPriority: result.SuggestedPriority,
		Provider:          result.Provider,
		Warning:           result.Warning,
	})
}

// ticketID parses the path id; anything that is not a positive integer cannot exist.
func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorutil.NewNotFound()
	}
	return id, nil
}

const (
	msgNull      = "This field may not be null."
	msgNotString = "Not a valid string."
	msgNotObject = "Invalid data. Expected a dictionary."
)

// decodeBody reads a JSON object regardless of Content-Type. An empty body is
// an empty object, so field validation still reports what is missing.
func decodeBody(c *fiber.Ctx, out any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	err := c.App().Config().JSONDecoder(body, out)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		fields := errorutil.FieldErrors{}
		if typeErr.Field == "" {
			fields.Add("non_field_errors", msgNotObject)
		} else {
			fields.Add(typeErr.Field, msgNotString)
		}
		return errorutil.NewValidationError(fields)
	}
	return errorutil.NewInvalidInput("invalid request body")
}

// ticketFields rejects explicit nulls and non-text values before the service
// sees the payload.
func ticketFields(req dto.TicketRequest) (service.TicketFields, error) {
	errs := errorutil.FieldErrors{}
	fields := service.TicketFields{
		Title:       fieldValue(errs, "title", req.Title),
		Description: fieldValue(errs, "description", req.Description),
		Category:    fieldValue(errs, "category", req.Category),
		Priority:    fieldValue(errs, "priority", req.Priority),
		Status:      fieldValue(errs, "status", req.Status),
	}
	if len(errs) > 0 {
		return service.TicketFields{}, errorutil.NewValidationError(errs)
	}
	return fields, nil
}

func fieldValue(errs errorutil.FieldErrors, name string, v dto.FieldValue) *string {
	switch {
	case !v.Set:
		return nil
	case v.Null:
		errs.Add(name, msgNull)
	case v.Invalid:
		errs.Add(name, msgNotString)
	default:
		value := v.Value
		return &value
	}
	return nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
	}
}
