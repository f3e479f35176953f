package domain

// ClassificationResult is a suggested category and priority for a description.
// Both values are always members of their enumerations.
type ClassificationResult struct {
	SuggestedCategory TicketCategory
	SuggestedPriority TicketPriority
	// Provider names the backend that produced the suggestion; empty on fallback.
	Provider string
	// Warning is set when the suggestion is a default rather than a provider answer.
	Warning string
}

// DefaultClassification returns the fallback suggestion with the given warning.
func DefaultClassification(warning string) ClassificationResult {
	return ClassificationResult{
		SuggestedCategory: DefaultCategory,
		SuggestedPriority: DefaultPriority,
		Warning:           warning,
	}
}
