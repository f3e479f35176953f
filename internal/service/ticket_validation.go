package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const msgRequired = "This field is required."

// TicketFields carries raw client values. Nil means the field was not supplied.
type TicketFields struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
}

// validateText trims a text field and records blank or oversized values.
func validateText(errs errorutil.FieldErrors, field, label string, value *string, maxLen int) string {
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		errs.Add(field, label+" is required.")
		return ""
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
	return trimmed
}

func invalidChoice(value string) string {
	return fmt.Sprintf("%q is not a valid choice.", value)
}

// validateCreate checks a full insert and applies defaults.
func validateCreate(in TicketFields) (*domain.Ticket, error) {
	errs := errorutil.FieldErrors{}
	ticket := &domain.Ticket{
		Category: domain.DefaultCategory,
		Priority: domain.DefaultPriority,
		Status:   domain.DefaultStatus,
	}

	if in.Title == nil {
		errs.Add("title", msgRequired)
	} else {
		ticket.Title = validateText(errs, "title", "Title", in.Title, domain.TitleMaxLength)
	}
	if in.Description == nil {
		errs.Add("description", msgRequired)
	} else {
		ticket.Description = validateText(errs, "description", "Description", in.Description, 0)
	}
	if in.Category != nil {
		ticket.Category = domain.TicketCategory(*in.Category)
		if !ticket.Category.Valid() {
			errs.Add("category", invalidChoice(*in.Category))
		}
	}
	if in.Priority != nil {
		ticket.Priority = domain.TicketPriority(*in.Priority)
		if !ticket.Priority.Valid() {
			errs.Add("priority", invalidChoice(*in.Priority))
		}
	}
	if in.Status != nil {
		ticket.Status = domain.TicketStatus(*in.Status)
		if !ticket.Status.Valid() {
			errs.Add("status", invalidChoice(*in.Status))
		}
	}

	if len(errs) > 0 {
		return nil, errorutil.NewValidationError(errs)
	}
	return ticket, nil
}

// validatePatch checks only the supplied fields.
func validatePatch(in TicketFields) (domain.TicketPatch, error) {
	errs := errorutil.FieldErrors{}
	var patch domain.TicketPatch

	if in.Title != nil {
		title := validateText(errs, "title", "Title", in.Title, domain.TitleMaxLength)
		patch.Title = &title
	}
	if in.Description != nil {
		desc := validateText(errs, "description", "Description", in.Description, 0)
		patch.Description = &desc
	}
	if in.Category != nil {
		c := domain.TicketCategory(*in.Category)
		if !c.Valid() {
			errs.Add("category", invalidChoice(*in.Category))
		}
		patch.Category = &c
	}
	if in.Priority != nil {
		p := domain.TicketPriority(*in.Priority)
		if !p.Valid() {
			errs.Add("priority", invalidChoice(*in.Priority))
		}
		patch.Priority = &p
	}
	if in.Status != nil {
		s := domain.TicketStatus(*in.Status)
		if !s.Valid() {
			errs.Add("status", invalidChoice(*in.Status))
		}
		patch.Status = &s
	}

	if len(errs) > 0 {
		return domain.TicketPatch{}, errorutil.NewValidationError(errs)
	}
	return patch, nil
}
