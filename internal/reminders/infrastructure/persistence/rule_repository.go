package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
	"github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/cyclist/internal/shared/infrastructure/persistence"
)

const (
	selectRulesSQL = `
SELECT id, user_id, type, days_before, time_of_day, method, enabled, created_at
FROM reminder_rules`

	rulesOrderSQL = `
ORDER BY user_id, type, days_before DESC, time_of_day`

	deleteUserRulesSQL = `DELETE FROM reminder_rules WHERE user_id = $1`

	insertRuleSQL = `
INSERT INTO reminder_rules (id, user_id, type, days_before, time_of_day, method, enabled, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// RuleRepository implements domain.RuleRepository on the shared database layer.
type RuleRepository struct {
	conn database.Connection
}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository(conn database.Connection) *RuleRepository {
	return &RuleRepository{conn: conn}
}

func (r *RuleRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *RuleRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// FindEnabled returns every enabled rule across users.
func (r *RuleRepository) FindEnabled(ctx context.Context) ([]*domain.Rule, error) {
	return r.query(ctx, r.bind(selectRulesSQL+"\nWHERE enabled = $1"+rulesOrderSQL), true)
}

// FindByUserID returns all rules of a user.
func (r *RuleRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Rule, error) {
	return r.query(ctx, r.bind(selectRulesSQL+"\nWHERE user_id = $1"+rulesOrderSQL), userID.String())
}

// ReplaceForUser deletes the user's rules and inserts rules. Callers wanting
// atomic replacement run it inside a unit of work.
func (r *RuleRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, rules []*domain.Rule) error {
	exec := r.executor(ctx)

	if _, err := exec.Exec(ctx, r.bind(deleteUserRulesSQL), userID.String()); err != nil {
		return fmt.Errorf("failed to delete reminder rules: %w", err)
	}

	insert := r.bind(insertRuleSQL)
	for _, rule := range rules {
		if rule.UserID() != userID {
			return fmt.Errorf("reminder rule %s belongs to another user", rule.ID())
		}
		_, err := exec.Exec(ctx, insert,
			rule.ID().String(),
			userID.String(),
			string(rule.Type()),
			rule.DaysBefore(),
			rule.TimeOfDay().String(),
			string(rule.Method()),
			rule.Enabled(),
			sharedPersistence.FormatTimestamp(rule.CreatedAt()),
		)
		if err != nil {
			return fmt.Errorf("failed to insert reminder rule: %w", err)
		}
	}
	return nil
}

func (r *RuleRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Rule, error) {
	rows, err := r.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder rules: %w", err)
	}
	return database.CollectRows(rows, scanRule)
}

func scanRule(row database.Row) (*domain.Rule, error) {
	var (
		rawID, rawUserID, eventType  string
		timeOfDay, method, createdAt string
		daysBefore                   int
		enabled                      bool
	)
	if err := row.Scan(&rawID, &rawUserID, &eventType, &daysBefore, &timeOfDay, &method, &enabled, &createdAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid rule id %q: %w", rawID, err)
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rawUserID, err)
	}
	created, err := sharedPersistence.ParseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateRule(
		id,
		userID,
		domain.EventType(eventType),
		daysBefore,
		domain.TimeOfDayOrDefault(timeOfDay),
		domain.Method(method),
		enabled,
		created,
	), nil
}
