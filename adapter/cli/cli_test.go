package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

type stubUsers struct {
	ensured []uuid.UUID
	err     error
}

func (s *stubUsers) EnsureExists(_ context.Context, id uuid.UUID) error {
	s.ensured = append(s.ensured, id)
	return s.err
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	require.NoError(t, versionCmd.RunE(versionCmd, nil))

	assert.Contains(t, out.String(), "cyclist dev")
	assert.Contains(t, out.String(), "commit: none")
	assert.Contains(t, out.String(), "schema: 000003_journal")
}

func TestVersionCmd_JSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionJSON = true
	defer func() {
		versionCmd.SetOut(nil)
		versionJSON = false
	}()

	require.NoError(t, versionCmd.RunE(versionCmd, nil))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "000003_journal", info.Schema)
	assert.NotEmpty(t, info.GoVersion)
}

func TestHealthCmd_RequiresApp(t *testing.T) {
	SetApp(nil)
	healthCmd.SetContext(context.Background())

	err := healthCmd.RunE(healthCmd, nil)
	require.Error(t, err)
}

func TestHealthCmd_ReportsRegistry(t *testing.T) {
	registry := observability.NewHealthRegistry()
	registry.Register("database", observability.DatabaseHealthChecker(func(context.Context) error { return nil }))

	a := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	a.SetHealthRegistry(registry)
	SetApp(a)
	defer SetApp(nil)

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	defer healthCmd.SetOut(nil)
	healthCmd.SetContext(context.Background())

	require.NoError(t, healthCmd.RunE(healthCmd, nil))
	assert.Regexp(t, `database\s+healthy\s+database connection healthy`, out.String())
	assert.Contains(t, out.String(), "overall: healthy")

	out.Reset()
	healthJSON = true
	defer func() { healthJSON = false }()
	require.NoError(t, healthCmd.RunE(healthCmd, nil))

	var report observability.OverallHealth
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, observability.HealthStatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "database")
}

func TestHealthCmd_FailsWhenUnhealthy(t *testing.T) {
	registry := observability.NewHealthRegistry()
	registry.Register("database", observability.DatabaseHealthChecker(func(context.Context) error {
		return errors.New("connection refused")
	}))

	a := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	a.SetHealthRegistry(registry)
	SetApp(a)
	defer SetApp(nil)

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	defer healthCmd.SetOut(nil)
	healthCmd.SetContext(context.Background())

	require.Error(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, out.String(), "connection refused")
}

func TestApp_EnsureCurrentUser(t *testing.T) {
	users := &stubUsers{}
	a := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, users)
	id := uuid.New()
	a.SetCurrentUserID(id)

	require.NoError(t, a.EnsureCurrentUser(context.Background()))
	assert.Equal(t, []uuid.UUID{id}, users.ensured)

	bare := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	assert.NoError(t, bare.EnsureCurrentUser(context.Background()))
}

func TestRootCommand_RegistersBuiltins(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCommand().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["version"])
	assert.True(t, names["health"])
}

func TestCommandScope(t *testing.T) {
	userID := uuid.New()
	SetApp(&App{CurrentUserID: userID})
	defer SetApp(nil)
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first := commandScope(context.Background(), started)
	second := commandScope(context.Background(), started)

	id := observability.CorrelationIDFromContext(first)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, observability.CorrelationIDFromContext(second), "each invocation is its own correlation")

	scoped, ok := observability.UserIDFromContext(first)
	require.True(t, ok)
	assert.Equal(t, userID, scoped)
	assert.Equal(t, started, first.Value(startedAtKey{}))
}

func TestCommandScope_WithoutApp(t *testing.T) {
	SetApp(nil)

	ctx := commandScope(context.Background(), time.Now())

	assert.NotEmpty(t, observability.CorrelationIDFromContext(ctx))
	_, ok := observability.UserIDFromContext(ctx)
	assert.False(t, ok)
}
