package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cyclist/adapter/cli"
	"github.com/felixgeelhaar/cyclist/adapter/cli/clitest"
	"github.com/felixgeelhaar/cyclist/internal/identity/application/queries"
)

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
		email = ""
		name = ""
		showJSON = false
		setCmd.Flags().Lookup("email").Changed = false
		setCmd.Flags().Lookup("name").Changed = false
	}()
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShowCmd_EmptyProfile(t *testing.T) {
	clitest.NewApp(t)

	out, err := execute(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: (not set)")
	assert.Contains(t, out, "cannot be delivered")
}

func TestSetCmd_UpdatesProfile(t *testing.T) {
	app, _ := clitest.NewApp(t)

	out, err := execute(t, "set", "--email", "ada@example.com", "--name", "Ada")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile updated.")
	assert.NotContains(t, out, "cannot be delivered")

	profile, err := app.GetProfileHandler.Handle(context.Background(), queries.GetProfileQuery{UserID: app.CurrentUserID})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.True(t, profile.Reachable)

	// Only the changed flag is applied.
	_, err = execute(t, "set", "--name", "Ada L.")
	require.NoError(t, err)

	out, err = execute(t, "show", "--json")
	require.NoError(t, err)
	var dto queries.ProfileDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	assert.Equal(t, "ada@example.com", dto.Email)
	assert.Equal(t, "Ada L.", dto.DisplayName)
}

func TestSetCmd_RequiresAField(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "set")
	require.Error(t, err)
}

func TestSetCmd_RejectsInvalidEmail(t *testing.T) {
	clitest.NewApp(t)

	_, err := execute(t, "set", "--email", "not-an-address")
	require.Error(t, err)
}

func TestCommands_WithoutApp(t *testing.T) {
	cli.SetApp(nil)

	out, err := execute(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "requires database connection")
}
