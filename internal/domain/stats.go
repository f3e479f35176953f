package domain

// TicketCounts is the raw grouped-count snapshot read from the store.
// Breakdown maps only carry values that were observed.
type TicketCounts struct {
	Total      int64
	Open       int64
	ActiveDays int64
	ByPriority map[TicketPriority]int64
	ByCategory map[TicketCategory]int64
}

// StatsReport summarizes the ticket collection at a point in time.
type StatsReport struct {
	TotalTickets      int64
	OpenTickets       int64
	AvgTicketsPerDay  float64
	PriorityBreakdown map[TicketPriority]int64
	CategoryBreakdown map[TicketCategory]int64
}
