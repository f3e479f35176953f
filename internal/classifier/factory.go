package classifier

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// NewFromConfig wires the provider selected by whichever credential is set.
func NewFromConfig(cfg config.ClassifierConfig, logger *zap.Logger, metrics *observability.Metrics) *Assistant {
	opts := Options{
		Timeout: cfg.Timeout(),
		Logger:  logger,
		Metrics: metrics,
	}
	switch cfg.Provider() {
	case config.ProviderAnthropic:
		opts.Provider = NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model)
		opts.ProviderName = config.ProviderAnthropic
	case config.ProviderOpenAI:
		opts.Provider = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model, cfg.OpenAIBaseURL, nil)
		opts.ProviderName = config.ProviderOpenAI
	default:
		logger.Warn("no classification credential configured; classify returns defaults")
	}
	return NewAssistant(opts)
}
