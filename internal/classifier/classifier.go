// Package classifier suggests a ticket category and priority from free text
// using an external language model. Provider failures never reach the caller:
// they degrade to the default suggestion with a warning.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	WarningUnconfigured = "AI classification is not configured; default category and priority returned"
	WarningUnavailable  = "AI classification unavailable; default category and priority returned"

	defaultTimeout = 15 * time.Second
)

// Provider completes a prompt against an external model and returns its raw text.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Options configures an Assistant. A nil Provider means unconfigured.
type Options struct {
	Provider     Provider
	ProviderName string
	Timeout      time.Duration
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// Assistant runs the classification workflow. It holds no per-call state.
type Assistant struct {
	provider Provider
	name     string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAssistant constructs an Assistant.
func NewAssistant(opts Options) *Assistant {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Assistant{
		provider: opts.Provider,
		name:     opts.ProviderName,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Configured reports whether a provider is wired.
func (a *Assistant) Configured() bool {
	return a.provider != nil
}

// Classify suggests a category and priority for description. The only error
// it returns is InvalidInput for a blank description.
func (a *Assistant) Classify(ctx context.Context, description string) (domain.ClassificationResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ClassificationResult{}, errorutil.NewInvalidInput("description is required")
	}

	if a.provider == nil {
		a.metrics.RecordClassification(a.name, "unconfigured")
		return domain.DefaultClassification(WarningUnconfigured), nil
	}

	category, priority, err := a.ask(ctx, description)
	if err != nil {
		a.logger.Warn("classification provider failed",
			zap.String("provider", a.name),
			zap.Error(err))
		a.metrics.RecordClassification(a.name, "fallback")
		return domain.DefaultClassification(WarningUnavailable), nil
	}

	a.metrics.RecordClassification(a.name, "ok")
	return domain.ClassificationResult{
		SuggestedCategory: category,
		SuggestedPriority: priority,
		Provider:          a.name,
	}, nil
}

// ask performs one bounded provider call. The caller's cancellation is
// detached so only the timeout limits the call.
func (a *Assistant) ask(ctx context.Context, description string) (category domain.TicketCategory, priority domain.TicketPriority, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	raw, err := a.provider.Complete(callCtx, NewPrompt(description))
	if err != nil {
		return "", "", err
	}
	a.logger.Debug("classification provider response",
		zap.String("provider", a.name),
		zap.String("raw", raw))
	return parseSuggestion(raw)
}
