package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/classifier"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository/repotest"
	"github.com/spec-kit/helpdesk/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type cannedProvider struct{ response string }

func (p cannedProvider) Complete(context.Context, classifier.Prompt) (string, error) {
	return p.response, nil
}

type testServer struct {
	app     *fiber.App
	repo    *repotest.MemoryTicketRepository
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, assistant handlers.Classifier) *testServer {
	t.Helper()
	repo := repotest.NewMemoryTicketRepository()
	repo.Now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }

	if assistant == nil {
		assistant = classifier.NewAssistant(classifier.Options{})
	}
	metrics := observability.NewMetrics()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repo,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, MiddlewareConfig{Timeout: time.Second, CORSOrigins: "*"})
	RegisterRoutes(app, RouteConfig{
		Prefix:  "/api",
		Health:  handlers.NewHealthHandler("helpdesk", "test", stubPinger{}, stubPinger{err: persistence.ErrRedisDisabled}),
		Tickets: handlers.NewTicketsHandler(tickets, service.NewStatsService(repo), assistant),
		Metrics: metrics,
	})
	return &testServer{app: app, repo: repo, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestCreateTicket_AppliesDefaults(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/",
		`{"title":"  Printer jammed ","description":"Paper stuck in tray 2"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	ticket := decode[dto.TicketResponse](t, raw)
	assert.Equal(t, int64(1), ticket.ID)
	assert.Equal(t, "Printer jammed", ticket.Title)
	assert.Equal(t, domain.TicketCategoryGeneral, ticket.Category)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.False(t, ticket.CreatedAt.IsZero())
	assert.Equal(t, 1, srv.repo.Len())
}

func TestCreateTicket_ValidationErrorsByField(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/",
		`{"title":"","priority":"urgent"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	fields := decode[map[string][]string](t, raw)
	assert.Equal(t, []string{"Title is required."}, fields["title"])
	assert.Equal(t, []string{"This field is required."}, fields["description"])
	assert.Equal(t, []string{`"urgent" is not a valid choice.`}, fields["priority"])
	assert.Zero(t, srv.repo.Len())
}

func TestCreateTicket_MalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/", `{"title":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "invalid request body")
}

func TestGetTicket(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.repo.Seed(domain.Ticket{
		Title: "VPN down", Description: "cannot connect",
		Category: domain.TicketCategoryTechnical, Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusOpen,
	})

	status, raw := srv.do(t, fiber.MethodGet, "/api/tickets/1/", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, id, decode[dto.TicketResponse](t, raw).ID)

	for _, path := range []string{"/api/tickets/99/", "/api/tickets/abc/", "/api/tickets/-1/"} {
		status, raw = srv.do(t, fiber.MethodGet, path, "")
		assert.Equal(t, fiber.StatusNotFound, status, path)
		assert.JSONEq(t, `{"error":"Not found"}`, string(raw), path)
	}
}

func TestUpdateTicket_PartialUpdate(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.repo.Seed(domain.Ticket{
		Title: "Refund", Description: "double charged",
		Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusOpen,
	})

	status, raw := srv.do(t, fiber.MethodPatch, "/api/tickets/1/", `{"status":"resolved"}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))

	ticket := decode[dto.TicketResponse](t, raw)
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	assert.Equal(t, domain.TicketCategoryBilling, ticket.Category)
	assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
	assert.Equal(t, "Refund", ticket.Title)

	status, _ = srv.do(t, fiber.MethodPatch, "/api/tickets/1/", `{"status":"archived"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = srv.do(t, fiber.MethodPatch, "/api/tickets/42/", `{"status":"closed"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestListTickets_FiltersAndSearch(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.repo.Seed(domain.Ticket{Title: "Invoice wrong", Description: "amount", Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusOpen})
	srv.repo.Seed(domain.Ticket{Title: "Login fails", Description: "password reset INVOICE", Category: domain.TicketCategoryAccount, Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusClosed})
	srv.repo.Seed(domain.Ticket{Title: "Slow page", Description: "dashboard", Category: domain.TicketCategoryTechnical, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusOpen})

	status, raw := srv.do(t, fiber.MethodGet, "/api/tickets/", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]dto.TicketResponse](t, raw), 3)

	_, raw = srv.do(t, fiber.MethodGet, "/api/tickets/?priority=high&status=open", "")
	got := decode[[]dto.TicketResponse](t, raw)
	require.Len(t, got, 1)
	assert.Equal(t, "Invoice wrong", got[0].Title)

	_, raw = srv.do(t, fiber.MethodGet, "/api/tickets/?search=invoice", "")
	assert.Len(t, decode[[]dto.TicketResponse](t, raw), 2)

	_, raw = srv.do(t, fiber.MethodGet, "/api/tickets/?category=nonsense", "")
	assert.Empty(t, decode[[]dto.TicketResponse](t, raw))

	_, raw = srv.do(t, fiber.MethodGet, "/api/tickets/?category=&search=", "")
	assert.Len(t, decode[[]dto.TicketResponse](t, raw), 3)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodGet, "/api/tickets/stats/", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{
		"total_tickets": 0,
		"open_tickets": 0,
		"avg_tickets_per_day": 0,
		"priority_breakdown": {"low":0,"medium":0,"high":0,"critical":0},
		"category_breakdown": {"billing":0,"technical":0,"account":0,"general":0}
	}`, string(raw))

	srv.repo.Seed(domain.Ticket{Title: "a", Description: "a", Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusOpen})
	srv.repo.Seed(domain.Ticket{Title: "b", Description: "b", Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusClosed})

	_, raw = srv.do(t, fiber.MethodGet, "/api/tickets/stats/", "")
	stats := decode[dto.StatsResponse](t, raw)
	assert.Equal(t, int64(2), stats.TotalTickets)
	assert.Equal(t, int64(1), stats.OpenTickets)
	assert.Equal(t, 2.0, stats.AvgTicketsPerDay)
	assert.Equal(t, int64(2), stats.CategoryBreakdown[domain.TicketCategoryBilling])
	assert.Equal(t, int64(0), stats.PriorityBreakdown[domain.TicketPriorityCritical])
}

func TestClassify(t *testing.T) {
	t.Run("unconfigured returns defaults with warning", func(t *testing.T) {
		srv := newTestServer(t, nil)
		status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/classify/", `{"description":"site is down"}`)
		require.Equal(t, fiber.StatusOK, status)
		got := decode[dto.ClassifyResponse](t, raw)
		assert.Equal(t, domain.TicketCategoryGeneral, got.SuggestedCategory)
		assert.Equal(t, domain.TicketPriorityMedium, got.SuggestedPriority)
		assert.Equal(t, classifier.WarningUnconfigured, got.Warning)
	})

	t.Run("provider suggestion", func(t *testing.T) {
		assistant := classifier.NewAssistant(classifier.Options{
			Provider:     cannedProvider{response: `{"suggested_category":"technical","suggested_priority":"critical"}`},
			ProviderName: "stub",
		})
		srv := newTestServer(t, assistant)
		status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/classify/", `{"description":"production database is down"}`)
		require.Equal(t, fiber.StatusOK, status)
		assert.JSONEq(t, `{"suggested_category":"technical","suggested_priority":"critical","provider":"stub"}`, string(raw))
	})

	t.Run("missing description", func(t *testing.T) {
		srv := newTestServer(t, nil)
		for _, body := range []string{"", `{}`, `{"description":"   "}`} {
			status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/classify/", body)
			assert.Equal(t, fiber.StatusBadRequest, status, body)
			assert.JSONEq(t, `{"error":"description is required"}`, string(raw), body)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodGet, "/health/ready", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"redis":"disabled"`)

	srv.do(t, fiber.MethodGet, "/api/tickets/", "")
	status, raw = srv.do(t, fiber.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "helpdesk_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(raw), `"error"`)
}

func (s *testServer) doRaw(t *testing.T, method, path, body, contentType string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestCreateTicket_EmptyBodyReportsRequiredFields(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, contentType := range []string{"", "application/json", "text/plain"} {
		status, raw := srv.doRaw(t, fiber.MethodPost, "/api/tickets/", "", contentType)
		require.Equal(t, fiber.StatusBadRequest, status, contentType)
		assert.JSONEq(t, `{
			"title": ["This field is required."],
			"description": ["This field is required."]
		}`, string(raw), contentType)
	}

	status, raw := srv.doRaw(t, fiber.MethodPost, "/api/tickets/", `{"title":"t","description":"d"}`, "")
	assert.Equal(t, fiber.StatusCreated, status, string(raw))
}

func TestCreateTicket_FieldTypes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.do(t, fiber.MethodPost, "/api/tickets/", `{"title":123,"description":"d"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	assert.Equal(t, "123", decode[dto.TicketResponse](t, raw).Title)

	status, raw = srv.do(t, fiber.MethodPost, "/api/tickets/", `{"title":true,"description":["d"],"category":null}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{
		"title": ["Not a valid string."],
		"description": ["Not a valid string."],
		"category": ["This field may not be null."]
	}`, string(raw))

	status, raw = srv.do(t, fiber.MethodPost, "/api/tickets/", `["not","an","object"]`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"non_field_errors":["Invalid data. Expected a dictionary."]}`, string(raw))
	assert.Equal(t, 1, srv.repo.Len())
}

func TestUpdateTicket_EmptyBodyReturnsCurrent(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.repo.Seed(domain.Ticket{
		Title: "Refund", Description: "double charged",
		Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusOpen,
	})

	for _, body := range []string{"", "{}", "  "} {
		status, raw := srv.doRaw(t, fiber.MethodPatch, "/api/tickets/1/", body, "application/json")
		require.Equal(t, fiber.StatusOK, status, "%q: %s", body, raw)
		ticket := decode[dto.TicketResponse](t, raw)
		assert.Equal(t, "Refund", ticket.Title)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	}
}

func TestUpdateTicket_RejectsNullAndMistypedFields(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.repo.Seed(domain.Ticket{
		Title: "Refund", Description: "double charged",
		Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusOpen,
	})

	status, raw := srv.do(t, fiber.MethodPatch, "/api/tickets/1/", `{"title":null}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"title":["This field may not be null."]}`, string(raw))

	status, raw = srv.do(t, fiber.MethodPatch, "/api/tickets/1/", `{"status":5}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"status":["\"5\" is not a valid choice."]}`, string(raw))

	status, raw = srv.do(t, fiber.MethodGet, "/api/tickets/1/", "")
	require.Equal(t, fiber.StatusOK, status)
	ticket := decode[dto.TicketResponse](t, raw)
	assert.Equal(t, "Refund", ticket.Title)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestClassify_MistypedDescription(t *testing.T) {
	srv := newTestServer(t, nil)

	status, raw := srv.doRaw(t, fiber.MethodPost, "/api/tickets/classify/", `{"description":42}`, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"description":["Not a valid string."]}`, string(raw))
}
