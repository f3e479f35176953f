package service

import (
	"context"
	"math"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// StatsService computes aggregate ticket statistics.
type StatsService struct {
	tickets repository.TicketRepository
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository) *StatsService {
	return &StatsService{tickets: tickets}
}

// ComputeStats reads a snapshot of grouped counts and derives the report.
// Breakdowns always carry every enumeration key.
func (s *StatsService) ComputeStats(ctx context.Context) (domain.StatsReport, error) {
	counts, err := s.tickets.Counts(ctx)
	if err != nil {
		return domain.StatsReport{}, err
	}
	return buildStatsReport(counts), nil
}

func buildStatsReport(counts domain.TicketCounts) domain.StatsReport {
	report := domain.StatsReport{
		TotalTickets:      counts.Total,
		OpenTickets:       counts.Open,
		AvgTicketsPerDay:  averagePerDay(counts.Total, counts.ActiveDays),
		PriorityBreakdown: make(map[domain.TicketPriority]int64, len(domain.Priorities)),
		CategoryBreakdown: make(map[domain.TicketCategory]int64, len(domain.Categories)),
	}
	for _, p := range domain.Priorities {
		report.PriorityBreakdown[p] = counts.ByPriority[p]
	}
	for _, c := range domain.Categories {
		report.CategoryBreakdown[c] = counts.ByCategory[c]
	}
	return report
}

// averagePerDay divides by the number of active dates, rounded to one decimal.
func averagePerDay(total, activeDays int64) float64 {
	if total == 0 {
		return 0
	}
	if activeDays <= 0 {
		activeDays = 1
	}
	return math.Round(float64(total)/float64(activeDays)*10) / 10
}
