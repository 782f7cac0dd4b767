package observability

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 3 * time.Second

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the result of a health check.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry holds the checks for the database, Redis ledger, broker
// and mail relay.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker), timeout: DefaultCheckTimeout}
}

// WithTimeout changes the per-check deadline.
func (r *HealthRegistry) WithTimeout(d time.Duration) *HealthRegistry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a health checker for a component.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// OverallHealth summarizes all component checks.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// Names returns the registered components in sorted order.
func (h OverallHealth) Names() []string {
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all health checks concurrently, each under the registry
// timeout, and aggregates the result. A check that overruns its deadline
// reports as unhealthy.
func (r *HealthRegistry) Check(ctx context.Context) OverallHealth {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	timeout := r.timeout
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := checker(checkCtx)
			if checkCtx.Err() != nil && result.Status == HealthStatusHealthy {
				result = HealthCheckResult{Status: HealthStatusUnhealthy, Message: name + " check timed out"}
			}
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	return OverallHealth{
		Status:    aggregateStatus(results),
		Timestamp: time.Now(),
		Checks:    results,
	}
}

func aggregateStatus(results map[string]HealthCheckResult) HealthStatus {
	status := HealthStatusHealthy
	for _, result := range results {
		switch result.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			status = HealthStatusDegraded
		}
	}
	return status
}

// ToJSON serializes the overall health to JSON.
func (h OverallHealth) ToJSON() ([]byte, error) {
	return json.Marshal(h)
}

// DatabaseHealthChecker reports unhealthy when the database cannot be pinged.
func DatabaseHealthChecker(pingFunc func(ctx context.Context) error) HealthChecker {
	return pingChecker("database", HealthStatusUnhealthy, pingFunc)
}

// RedisHealthChecker reports degraded when Redis cannot be pinged. Reminders
// still fire without the dedup ledger.
func RedisHealthChecker(pingFunc func(ctx context.Context) error) HealthChecker {
	return pingChecker("redis", HealthStatusDegraded, pingFunc)
}

// RabbitMQHealthChecker reports degraded when the broker is unreachable.
func RabbitMQHealthChecker(checkFunc func(ctx context.Context) error) HealthChecker {
	return pingChecker("rabbitmq", HealthStatusDegraded, checkFunc)
}

func pingChecker(component string, failStatus HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  failStatus,
				Message: component + " connection failed: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: component + " connection healthy",
		}
	}
}
