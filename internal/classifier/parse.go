package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseSuggestion decodes provider output into an in-enumeration suggestion.
// Missing, non-string or unknown values fall back to the defaults; only
// output that is not a JSON object is an error.
func parseSuggestion(raw string) (domain.TicketCategory, domain.TicketPriority, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return "", "", fmt.Errorf("parsing classification response: %w", err)
	}
	if payload == nil {
		return "", "", fmt.Errorf("parsing classification response: not a JSON object")
	}

	category := domain.TicketCategory(normalizeValue(payload["suggested_category"]))
	if !category.Valid() {
		category = domain.DefaultCategory
	}
	priority := domain.TicketPriority(normalizeValue(payload["suggested_priority"]))
	if !priority.Valid() {
		priority = domain.DefaultPriority
	}
	return category, priority, nil
}

func normalizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s))
}
