// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/checkngn/checkngn/internal/domain/action"
	"github.com/checkngn/checkngn/internal/domain/rule"
	"github.com/checkngn/checkngn/internal/metrics"
)

// DefaultRecordCacheSize is the number of descriptors cached when no size is configured.
const DefaultRecordCacheSize = 1000

// ActionService normalizes rule actions before the rule engine evaluates them.
// It wraps an action.Normalizer with caching, metrics and logging. Safe for
// concurrent use.
type ActionService struct {
	normalizer *action.Normalizer
	cache      *RecordCache        // nil when caching is disabled
	metrics    *metrics.Metrics    // nil when metrics are disabled
	validate   *validator.Validate // nil unless strict identifiers are enabled
	logger     *slog.Logger
}

// ActionServiceOption configures ActionService.
type ActionServiceOption func(*ActionService)

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *action.Normalizer) ActionServiceOption {
	return func(s *ActionService) {
		s.normalizer = n
	}
}

// WithRecordCacheSize sets the maximum number of cached descriptors.
// A size of zero or less disables caching.
func WithRecordCacheSize(size int) ActionServiceOption {
	return func(s *ActionService) {
		if size <= 0 {
			s.cache = nil
			return
		}
		s.cache = NewRecordCache(size)
	}
}

// WithMetrics records normalization outcomes on m.
func WithMetrics(m *metrics.Metrics) ActionServiceOption {
	return func(s *ActionService) {
		s.metrics = m
	}
}

// WithStrictIdentifiers rejects records whose action identifier is empty.
func WithStrictIdentifiers() ActionServiceOption {
	return func(s *ActionService) {
		s.validate = validator.New(validator.WithRequiredStructEnabled())
	}
}

// NewActionService creates an ActionService with a default normalizer and a
// record cache of DefaultRecordCacheSize entries.
func NewActionService(logger *slog.Logger, opts ...ActionServiceOption) *ActionService {
	s := &ActionService{
		normalizer: action.NewNormalizer(),
		cache:      NewRecordCache(DefaultRecordCacheSize),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize converts a single descriptor into canonical records.
func (s *ActionService) Normalize(ctx context.Context, desc interface{}) ([]action.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Classification errors are reported by the normalizer below.
	shape, _ := action.Classify(desc)

	key, cacheable := fingerprint(desc)
	if s.cache != nil {
		if !cacheable {
			s.recordLookup("bypass")
		} else if records, ok := s.cache.Get(key); ok {
			s.recordLookup("hit")
			s.recordResult(shape, len(records), nil)
			return records, nil
		} else {
			s.recordLookup("miss")
		}
	}

	records, err := s.normalizer.Normalize(desc)
	if err == nil && s.validate != nil {
		err = s.checkIdentifiers(records)
	}
	s.recordResult(shape, len(records), err)
	if err != nil {
		s.logger.Debug("action normalization failed", "shape", shape.String(), "error", err)
		return nil, err
	}

	if s.cache != nil && cacheable {
		s.cache.Put(key, records)
	}
	s.logger.Debug("actions normalized", "shape", shape.String(), "records", len(records))
	return records, nil
}

// NormalizeRules normalizes the actions of every rule, preserving rule order.
// The first rule with an invalid descriptor fails the whole batch.
func (s *ActionService) NormalizeRules(ctx context.Context, rules []rule.Rule) ([]rule.NormalizedRule, error) {
	logger := s.logger.With("run_id", uuid.NewString())
	logger.Debug("normalizing rule actions", "rules", len(rules))

	out := make([]rule.NormalizedRule, 0, len(rules))
	total := 0
	for _, r := range rules {
		records, err := s.Normalize(ctx, r.Actions)
		if err != nil {
			logger.Warn("rule has invalid actions", "rule", r.Name, "error", err)
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		total += len(records)
		out = append(out, rule.NormalizedRule{
			Name:       r.Name,
			Conditions: r.Conditions,
			Actions:    records,
		})
	}

	logger.Info("rule actions normalized",
		"rules", len(out),
		"records", total,
		"nested_lists", s.normalizer.NestedLists().String(),
	)
	return out, nil
}

// LoadAndNormalize loads rules from src and normalizes their actions.
func (s *ActionService) LoadAndNormalize(ctx context.Context, src rule.RuleSource) ([]rule.NormalizedRule, error) {
	rules, err := src.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return s.NormalizeRules(ctx, rules)
}

// CacheSize returns the number of cached descriptors (0 when caching is disabled).
func (s *ActionService) CacheSize() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Size()
}

// checkIdentifiers validates every record against its struct tags.
func (s *ActionService) checkIdentifiers(records []action.Record) error {
	for i, r := range records {
		if err := s.validate.Struct(r); err != nil {
			return &action.InvalidActionDescriptorError{
				Value:  r,
				Reason: fmt.Sprintf("record %d: action identifier must not be empty", i),
			}
		}
	}
	return nil
}

func (s *ActionService) recordLookup(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CacheLookups.WithLabelValues(result).Inc()
}

func (s *ActionService) recordResult(shape action.DescriptorShape, records int, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.Normalizations.WithLabelValues(shape.String(), "error").Inc()
		return
	}
	s.metrics.Normalizations.WithLabelValues(shape.String(), "ok").Inc()
	s.metrics.RecordsTotal.Add(float64(records))
}
