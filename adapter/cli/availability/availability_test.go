package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/app"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	mcpinternal "github.com/felixgeelhaar/freebusy/internal/mcp"
	"github.com/felixgeelhaar/freebusy/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday 2024-01-15, before working hours
var testNow = time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)

func setupTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                  "test",
		DatabaseDriver:          "sqlite",
		SQLitePath:              ":memory:",
		ProviderTimeout:         5 * time.Second,
		BreakerFailureThreshold: 5,
		SlotDuration:            time.Hour,
	}
	container, err := app.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cliApp := mcpinternal.NewCLIApp(container)
	cli.SetApp(cliApp)
	t.Cleanup(func() { cli.SetApp(nil) })

	nowFunc = func() time.Time { return testNow }
	t.Cleanup(func() { nowFunc = time.Now })

	resetFlags(Cmd)
	return cliApp
}

// resetFlags clears values and Changed marks left by earlier executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func setProfile(t *testing.T, a *cli.App, member string, windows ...string) {
	t.Helper()
	var inputs []commands.WindowInput
	for _, spec := range windows {
		w, err := commands.ParseWindowSpec(spec)
		require.NoError(t, err)
		inputs = append(inputs, w)
	}
	_, err := a.SetProfileHandler.Handle(context.Background(), commands.SetProfileCommand{
		MemberID:          member,
		Windows:           inputs,
		SchedulingEnabled: true,
	})
	require.NoError(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := Cmd
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFreeCmd(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-12:00")

	out, err := run(t, "free", "alice@example.com", "--date", "2024-01-15")
	require.NoError(t, err)

	assert.Contains(t, out, "alice@example.com is free 180 min on 2024-01-15")
	assert.Contains(t, out, "2024-01-15T09:00:00Z - 2024-01-15T12:00:00Z")
}

func TestFreeCmd_NoWindow(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "tue=09:00-12:00")

	out, err := run(t, "free", "alice@example.com", "--date", "2024-01-15")
	require.NoError(t, err)
	assert.Contains(t, out, "has no free time")
}

func TestFreeCmd_BadDate(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "free", "alice@example.com", "--date", "01/15/2024")
	assert.ErrorContains(t, err, "invalid date")
}

func TestBusyCmd_JSON(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-12:00")

	out, err := run(t, "busy", "alice@example.com", "--date", "2024-01-15", "--json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "alice@example.com", doc["member_id"])
	assert.Equal(t, "2024-01-15", doc["date"])
	assert.Empty(t, doc["busy"])
}

func TestSlotsCmd(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-17:00")
	setProfile(t, a, "bob@example.com", "mon=10:00-13:00")

	out, err := run(t, "slots", "alice@example.com,bob@example.com", "--date", "2024-01-15", "--duration", "90m", "--json=false")
	require.NoError(t, err)

	assert.Contains(t, out, "2 slot(s) on 2024-01-15")
	assert.Contains(t, out, "2024-01-15T10:00:00Z - 2024-01-15T11:30:00Z")
}

func TestSlotsCmd_UsesDefaultDuration(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-11:00")

	out, err := run(t, "slots", "alice@example.com", "--date", "2024-01-15", "--json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["valid"])
	assert.Len(t, result["slots"], 2)
}

func TestSlotsCmd_NoSharedWeekday(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-17:00")
	setProfile(t, a, "bob@example.com", "tue=09:00-17:00")

	out, err := run(t, "slots", "alice@example.com", "bob@example.com", "--date", "2024-01-15", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "is not bookable")
}

func TestSlotsCmd_OptionalAndTimeOff(t *testing.T) {
	a := setupTestApp(t)
	setProfile(t, a, "alice@example.com", "mon=09:00-11:00")
	setProfile(t, a, "bob@example.com", "tue=09:00-17:00")
	_, _, err := a.AddTimeOffHandler.Handle(context.Background(), commands.AddTimeOffCommand{MemberID: "bob@example.com", From: "2024-01-15"})
	require.NoError(t, err)

	out, err := run(t, "slots", "alice@example.com", "--optional", "bob@example.com", "--date", "2024-01-15", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "2 slot(s) on 2024-01-15")

	resetFlags(Cmd)
	_, _, err = a.AddTimeOffHandler.Handle(context.Background(), commands.AddTimeOffCommand{MemberID: "alice@example.com", From: "2024-01-15"})
	require.NoError(t, err)
	out, err = run(t, "slots", "alice@example.com", "--date", "2024-01-15", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "A required member is off on 2024-01-15")
}

func TestCommandsRequireApp(t *testing.T) {
	cli.SetApp(nil)
	resetFlags(Cmd)

	_, err := run(t, "free", "alice@example.com")
	assert.Error(t, err)
	_, err = run(t, "busy", "alice@example.com")
	assert.Error(t, err)
	_, err = run(t, "slots", "alice@example.com")
	assert.Error(t, err)
}

func TestMemberIDs(t *testing.T) {
	ids := memberIDs([]string{"a@example.com, b@example.com", "c@example.com", " , "})
	require.Len(t, ids, 3)
	assert.Equal(t, "b@example.com", string(ids[1]))
}
