package journal

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
	"github.com/felixgeelhaar/cyclist/internal/journal/application/queries"
)

func resetFlags() {
	symptoms = nil
	mood = ""
	notes = ""
	editDate = ""
	listFrom = ""
	listTo = ""
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

func listEntries(t *testing.T, app *cli.App) []queries.EntryDTO {
	t.Helper()
	entries, err := app.ListEntriesHandler.Handle(context.Background(), queries.ListEntriesQuery{UserID: app.CurrentUserID})
	require.NoError(t, err)
	return entries
}

func TestAddCmd_RecordsThenUpdates(t *testing.T) {
	app, _ := clitest.NewApp(t)

	out, err := execute(t, "add", "2024-04-02", "--symptom", "Cramps", "-s", "headache", "--mood", "tired")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded entry for 2024-04-02")
	assert.Contains(t, out, "Symptoms: cramps, headache")

	out, err = execute(t, "add", "2024-04-02", "--notes", "better now")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated entry for 2024-04-02")

	entries := listEntries(t, app)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Symptoms)
	assert.Equal(t, "better now", entries[0].Notes)
}

func TestAddCmd_RejectsInvalidDate(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "add", "02/04/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestListCmd_FiltersRange(t *testing.T) {
	clitest.NewApp(t)

	for _, d := range []string{"2024-04-01", "2024-04-05", "2024-04-09"} {
		_, err := execute(t, "add", d, "--mood", "ok")
		require.NoError(t, err)
	}

	out, err := execute(t, "list", "--from", "2024-04-02", "--to", "2024-04-09", "--json")
	require.NoError(t, err)

	var entries []queries.EntryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-04-09", entries[0].Date)
	assert.Equal(t, "2024-04-05", entries[1].Date)

	_, err = execute(t, "list", "--from", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from date")
}

func TestListCmd_Empty(t *testing.T) {
	clitest.NewApp(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No journal entries")
}

func TestEditCmd_MovesAndRejectsTakenDay(t *testing.T) {
	app, _ := clitest.NewApp(t)

	_, err := execute(t, "add", "2024-04-01")
	require.NoError(t, err)
	_, err = execute(t, "add", "2024-04-03")
	require.NoError(t, err)

	entries := listEntries(t, app)
	require.Len(t, entries, 2)
	older := entries[1]

	_, err = execute(t, "edit", older.ID.String(), "--date", "2024-04-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-04-03 already has an entry")

	out, err := execute(t, "edit", older.ID.String(), "--date", "2024-04-02", "--mood", "calm")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated entry for 2024-04-02")

	entries = listEntries(t, app)
	assert.Equal(t, "2024-04-02", entries[1].Date)
	assert.Equal(t, "calm", entries[1].Mood)
}

func TestDeleteCmd(t *testing.T) {
	app, _ := clitest.NewApp(t)

	_, err := execute(t, "add", "2024-04-01")
	require.NoError(t, err)
	entries := listEntries(t, app)
	require.Len(t, entries, 1)

	out, err := execute(t, "delete", entries[0].ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Entry deleted")
	assert.Empty(t, listEntries(t, app))

	_, err = execute(t, "delete", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = execute(t, "delete", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entry ID")
}
