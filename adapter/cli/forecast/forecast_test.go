package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/adapter/cli/clitest"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/commands"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
	sharedDomain "github.com/felixgeelhaar/cyclist/internal/shared/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs(args)
	defer func() {
		Cmd.SetOut(nil)
		Cmd.SetArgs(nil)
		asJSON = false
	}()
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestForecastCmd_NoHistory(t *testing.T) {
	clitest.NewApp(t)

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "No cycles recorded yet")

	out, err = execute(t, "--json")
	require.NoError(t, err)
	var dto queries.ForecastDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	assert.False(t, dto.HasData)
}

func TestForecastCmd_PrintsForecast(t *testing.T) {
	app, _ := clitest.NewApp(t)

	// Recent enough that the forecast lands in the future.
	start := sharedDomain.AddDays(sharedDomain.Day(time.Now(), time.UTC), -3)
	_, err := app.LogCycleHandler.Handle(context.Background(), commands.LogCycleCommand{
		UserID:      app.CurrentUserID,
		StartDate:   start,
		CycleLength: 28,
	})
	require.NoError(t, err)

	out, err := execute(t, "--json")
	require.NoError(t, err)

	var dto queries.ForecastDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	assert.True(t, dto.HasData)
	assert.Equal(t, sharedDomain.FormatDate(sharedDomain.AddDays(start, 28)), dto.NextPeriodStart)
	assert.Equal(t, 3, dto.DayIndex)
	assert.Equal(t, "Menstrual", dto.Phase)

	out, err = execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Next period:")
	assert.Contains(t, out, "Fertile window:")
	assert.NotContains(t, out, "Fertile today")
}

func TestForecastCmd_FertileToday(t *testing.T) {
	app, _ := clitest.NewApp(t)

	start := sharedDomain.AddDays(sharedDomain.Day(time.Now(), time.UTC), -10)
	_, err := app.LogCycleHandler.Handle(context.Background(), commands.LogCycleCommand{
		UserID:      app.CurrentUserID,
		StartDate:   start,
		CycleLength: 28,
	})
	require.NoError(t, err)

	out, err := execute(t, "--json")
	require.NoError(t, err)
	var dto queries.ForecastDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	assert.True(t, dto.FertileToday)

	out, err = execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Fertile today:  yes")
}

func TestForecastCmd_WithoutApp(t *testing.T) {
	cli.SetApp(nil)

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "requires database connection")
}
