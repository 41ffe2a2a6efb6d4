// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/mitc/internal/batch"
	"github.com/jackzampolin/mitc/internal/compare"
	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/llmcall"
	"github.com/jackzampolin/mitc/internal/metrics"
	"github.com/jackzampolin/mitc/internal/prompts"
	"github.com/jackzampolin/mitc/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Registry    *providers.Registry
	Coordinator *batch.Coordinator
	Comparer    *compare.Comparer
	Fields      *fields.Store
	Recorder    *llmcall.Recorder
	Metrics     *metrics.Metrics
	Prompts     *prompts.Resolver
	Logger      *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// CoordinatorFrom extracts the batch coordinator from context.
func CoordinatorFrom(ctx context.Context) *batch.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Coordinator
	}
	return nil
}

// ComparerFrom extracts the bank comparer from context.
func ComparerFrom(ctx context.Context) *compare.Comparer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Comparer
	}
	return nil
}

// FieldsFrom extracts the field catalog store from context.
func FieldsFrom(ctx context.Context) *fields.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Fields
	}
	return nil
}

// RecorderFrom extracts the LLM call recorder from context.
func RecorderFrom(ctx context.Context) *llmcall.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Recorder
	}
	return nil
}

// MetricsFrom extracts the metrics collectors from context.
func MetricsFrom(ctx context.Context) *metrics.Metrics {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// PromptsFrom extracts the prompt resolver from context.
func PromptsFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prompts
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
