package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Attribute keys shared by log records and event metadata.
const (
	CorrelationIDKey = "correlation_id"
	UserIDKey        = "user_id"
	RuleIDKey        = "rule_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

type scopeKey int

const (
	correlationScope scopeKey = iota
	userScope
	ruleScope
)

// WithCorrelationID tags ctx with the id of the command or tick it belongs to.
// An empty id is replaced by a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationScope, id)
}

// CorrelationIDFromContext returns the correlation id, or "" when ctx has none.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationScope).(string)
	return id
}

// WithUserID scopes ctx to the user whose cycles or reminders are being handled.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userScope, id)
}

// UserIDFromContext returns the scoped user.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(userScope).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithRuleID scopes ctx to a single reminder rule.
func WithRuleID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ruleScope, id)
}

// RuleIDFromContext returns the scoped reminder rule.
func RuleIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ruleScope).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ContextAttrs lists the identifiers carried on ctx as log attributes.
func ContextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String(CorrelationIDKey, id))
	}
	if id, ok := UserIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(UserIDKey, id.String()))
	}
	if id, ok := RuleIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(RuleIDKey, id.String()))
	}
	return attrs
}
