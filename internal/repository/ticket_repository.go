package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Counts(ctx context.Context) (domain.TicketCounts, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category, priority, status, created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", mapConstraintError(err))
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	set, args := patchSet(patch)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING %s`, set, len(args), ticketColumns)

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", id, mapConstraintError(err))
	}
	return ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.Where()
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC`, ticketColumns, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// Counts reads totals and grouped counts inside one read-only snapshot.
func (r *ticketRepository) Counts(ctx context.Context) (domain.TicketCounts, error) {
	counts := domain.TicketCounts{
		ByPriority: map[domain.TicketPriority]int64{},
		ByCategory: map[domain.TicketCategory]int64{},
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return counts, fmt.Errorf("begin stats snapshot: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const totals = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = $1),
               COUNT(DISTINCT (created_at AT TIME ZONE 'UTC')::date)
        FROM tickets`
	if err := tx.QueryRow(ctx, totals, domain.TicketStatusOpen).Scan(&counts.Total, &counts.Open, &counts.ActiveDays); err != nil {
		return counts, fmt.Errorf("count tickets: %w", err)
	}

	if err := groupedCounts(ctx, tx, "priority", func(key string, n int64) {
		counts.ByPriority[domain.TicketPriority(key)] = n
	}); err != nil {
		return counts, err
	}
	if err := groupedCounts(ctx, tx, "category", func(key string, n int64) {
		counts.ByCategory[domain.TicketCategory(key)] = n
	}); err != nil {
		return counts, err
	}

	if err := tx.Commit(ctx); err != nil {
		return counts, fmt.Errorf("commit stats snapshot: %w", err)
	}
	return counts, nil
}

// groupedCounts runs COUNT(*) GROUP BY column. column is never user input.
func groupedCounts(ctx context.Context, tx pgx.Tx, column string, fn func(string, int64)) error {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM tickets GROUP BY %[1]s`, column)
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		fn(key, n)
	}
	return rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

var constraintFields = map[string]string{
	"valid_category":       "category",
	"valid_priority":       "priority",
	"valid_status":         "status",
	"nonblank_title":       "title",
	"nonblank_description": "description",
}

// mapConstraintError turns storage-level rejections into field validation errors.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	fields := errorutil.FieldErrors{}
	switch pgErr.Code {
	case "23514": // check_violation
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			return err
		}
		fields.Add(field, fmt.Sprintf("Value rejected by constraint %s.", pgErr.ConstraintName))
	case "23502": // not_null_violation
		fields.Add(pgErr.ColumnName, "This field may not be null.")
	default:
		return err
	}
	return errors.Join(errorutil.NewValidationError(fields), err)
}
