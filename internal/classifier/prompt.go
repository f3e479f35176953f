package classifier

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Prompt is the instruction pair sent to a provider.
type Prompt struct {
	System string
	User   string
}

var categoryDefinitions = map[domain.TicketCategory]string{
	domain.TicketCategoryBilling:   "payments, invoices, refunds, charges, subscriptions and pricing",
	domain.TicketCategoryTechnical: "bugs, errors, crashes, outages, performance and integrations",
	domain.TicketCategoryAccount:   "login, passwords, profile changes, access and account settings",
	domain.TicketCategoryGeneral:   "questions, feedback and anything that fits no other category",
}

var priorityDefinitions = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:      "cosmetic issues, general questions and feature requests",
	domain.TicketPriorityMedium:   "degraded functionality with a workaround available",
	domain.TicketPriorityHigh:     "a major feature is broken for the customer with no workaround",
	domain.TicketPriorityCritical: "service down, data loss or a security breach",
}

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a support ticket triage assistant. Classify the customer's description into exactly one category and exactly one priority.\n\n")
	b.WriteString("Categories:\n")
	for _, c := range domain.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, categoryDefinitions[c])
	}
	b.WriteString("\nPriorities:\n")
	for _, p := range domain.Priorities {
		fmt.Fprintf(&b, "- %s: %s\n", p, priorityDefinitions[p])
	}
	b.WriteString("\nRespond with only a JSON object with exactly two fields, ")
	b.WriteString(`"suggested_category" and "suggested_priority", using the lowercase values listed above. `)
	b.WriteString("Do not add any other text.")
	return b.String()
}

// NewPrompt embeds a trimmed description in the fixed instruction contract.
func NewPrompt(description string) Prompt {
	return Prompt{
		System: systemPrompt,
		User:   "Classify this support ticket:\n\n" + description,
	}
}
