package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures list query parameters. Nil or empty values are ignored.
// Enumeration values are not checked here; an unknown value just matches nothing.
type TicketFilter struct {
	Category *string
	Priority *string
	Status   *string
	Search   *string
}

// clauseBuilder accumulates AND-ed SQL predicates with positional args.
type clauseBuilder struct {
	clauses []string
	args    []any
}

func (b *clauseBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *clauseBuilder) add(clause string) {
	b.clauses = append(b.clauses, clause)
}

// Where renders the predicate and its args. No filters yields "TRUE".
func (f TicketFilter) Where() (string, []any) {
	b := &clauseBuilder{}

	if v := present(f.Category); v != "" {
		b.add("category = " + b.arg(v))
	}
	if v := present(f.Priority); v != "" {
		b.add("priority = " + b.arg(v))
	}
	if v := present(f.Status); v != "" {
		b.add("status = " + b.arg(v))
	}
	if f.Search != nil {
		if term := strings.TrimSpace(*f.Search); term != "" {
			p := b.arg("%" + escapeLike(term) + "%")
			b.add(fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
		}
	}

	if len(b.clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(b.clauses, " AND "), b.args
}

// patchSet renders the SET list for a partial update; the id placeholder follows the args.
func patchSet(patch domain.TicketPatch) (string, []any) {
	b := &clauseBuilder{}
	if patch.Title != nil {
		b.add("title = " + b.arg(*patch.Title))
	}
	if patch.Description != nil {
		b.add("description = " + b.arg(*patch.Description))
	}
	if patch.Category != nil {
		b.add("category = " + b.arg(*patch.Category))
	}
	if patch.Priority != nil {
		b.add("priority = " + b.arg(*patch.Priority))
	}
	if patch.Status != nil {
		b.add("status = " + b.arg(*patch.Status))
	}
	return strings.Join(b.clauses, ", "), b.args
}

func present(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards match literally under the default '\' escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
