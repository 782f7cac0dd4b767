package cycle

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/adapter/cli/clitest"
	"github.com/felixgeelhaar/cyclist/internal/cycles/application/queries"
)

func resetFlags() {
	endDate = ""
	cycleLength = 0
	listLimit = 0
	listJSON = false
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	defer func() {
		Cmd.SetOut(nil)
		Cmd.SetErr(nil)
		Cmd.SetArgs(nil)
		resetFlags()
	}()
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLogCmd_ClosesPreviousCycle(t *testing.T) {
	app, _ := clitest.NewApp(t)

	out, err := execute(t, "log", "2024-03-04")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged cycle starting 2024-03-04")

	out, err = execute(t, "log", "2024-04-01", "--end", "2024-04-05")
	require.NoError(t, err)
	assert.Contains(t, out, "Previous cycle closed at 28 days")

	cycles, err := app.ListCyclesHandler.Handle(context.Background(), queries.ListCyclesQuery{UserID: app.CurrentUserID})
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, "2024-04-01", cycles[0].StartDate)
	assert.Equal(t, "2024-04-05", cycles[0].EndDate)
	assert.Equal(t, 28, cycles[1].CycleLength)
}

func TestLogCmd_RejectsInvalidDate(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "log", "04/01/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start date")
}

func TestLogCmd_RejectsEndBeforeStart(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "log", "2024-04-05", "--end", "2024-04-01")
	require.Error(t, err)
}

func TestListCmd_Empty(t *testing.T) {
	clitest.NewApp(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No cycles recorded")
}

func TestListCmd_JSON(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "log", "2024-04-01")
	require.NoError(t, err)

	out, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var cycles []queries.CycleDTO
	require.NoError(t, json.Unmarshal([]byte(out), &cycles))
	require.Len(t, cycles, 1)
	assert.Equal(t, "2024-04-01", cycles[0].StartDate)
	assert.False(t, cycles[0].Completed)
}

func TestDeleteCmd(t *testing.T) {
	app, _ := clitest.NewApp(t)

	_, err := execute(t, "log", "2024-04-01")
	require.NoError(t, err)

	cycles, err := app.ListCyclesHandler.Handle(context.Background(), queries.ListCyclesQuery{UserID: app.CurrentUserID})
	require.NoError(t, err)
	require.Len(t, cycles, 1)

	out, err := execute(t, "delete", cycles[0].ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Cycle deleted.")

	_, err = execute(t, "delete", cycles[0].ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDeleteCmd_InvalidID(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "delete", "not-a-uuid")
	require.Error(t, err)
}

func TestCommands_WithoutApp(t *testing.T) {
	cli.SetApp(nil)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "requires database connection")

	out, err = execute(t, "delete", uuid.NewString())
	require.NoError(t, err)
	assert.Contains(t, out, "requires database connection")
}
