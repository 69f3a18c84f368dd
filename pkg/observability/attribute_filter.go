package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const redactedValue = "[redacted]"

// AttributePolicy decides which span attributes reach the exporter.
//
// A key listed in Redact is kept with its value replaced. Otherwise the key
// must start with one of the Allow prefixes or it is dropped.
type AttributePolicy struct {
	Allow  []string
	Redact []string
}

// DefaultAttributePolicy keeps the attributes timegraph sets itself. Raw
// request targets are redacted because neighbor lookups carry node ids in
// the path; the matched route is kept instead.
func DefaultAttributePolicy() AttributePolicy {
	return AttributePolicy{
		Allow: []string{
			"timegraph.",
			"http.",
			"mcp.",
			"error.",
			"exception.",
			"error",
		},
		Redact: []string{
			"http.target",
			"url.query",
		},
	}
}

type attributeAction int

const (
	attributeDrop attributeAction = iota
	attributeKeep
	attributeRedact
)

// attributeFilter is a SpanProcessor that applies an AttributePolicy before
// handing spans to its delegate.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	allow    []string
	redact   map[string]bool
	logger   *slog.Logger
	warned   sync.Map
}

// NewAttributeFilter wraps delegate with DefaultAttributePolicy. A non-nil
// logger is warned once per dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return NewPolicyFilter(delegate, DefaultAttributePolicy(), logger)
}

// NewPolicyFilter wraps delegate with policy.
func NewPolicyFilter(delegate sdktrace.SpanProcessor, policy AttributePolicy, logger *slog.Logger) sdktrace.SpanProcessor {
	redact := make(map[string]bool, len(policy.Redact))
	for _, key := range policy.Redact {
		redact[key] = true
	}

	return &attributeFilter{
		delegate: delegate,
		allow:    policy.Allow,
		redact:   redact,
		logger:   logger,
	}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) action(key string) attributeAction {
	if f.redact[key] {
		return attributeRedact
	}

	for _, prefix := range f.allow {
		if key == prefix || (strings.HasSuffix(prefix, ".") && strings.HasPrefix(key, prefix)) {
			return attributeKeep
		}
	}

	if f.logger != nil {
		if _, seen := f.warned.LoadOrStore(key, struct{}{}); !seen {
			f.logger.Warn("span attribute dropped", "key", key)
		}
	}

	return attributeDrop
}

// filteredSpan exposes only the attributes the policy lets through.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	out := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		switch s.filter.action(string(kv.Key)) {
		case attributeKeep:
			out = append(out, kv)
		case attributeRedact:
			out = append(out, kv.Key.String(redactedValue))
		case attributeDrop:
		}
	}

	return out
}
