package booking

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/app"
	"github.com/felixgeelhaar/freebusy/internal/availability/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	mcpinternal "github.com/felixgeelhaar/freebusy/internal/mcp"
	"github.com/felixgeelhaar/freebusy/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

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

	for _, member := range []string{"alice@example.com", "bob@example.com"} {
		w, err := commands.ParseWindowSpec("mon=09:00-17:00")
		require.NoError(t, err)
		_, err = cliApp.SetProfileHandler.Handle(context.Background(), commands.SetProfileCommand{
			MemberID:          member,
			Windows:           []commands.WindowInput{w},
			SchedulingEnabled: true,
		})
		require.NoError(t, err)
	}
	return cliApp
}

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

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(Cmd)
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var bookingIDPattern = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func TestAddCmd_BooksEveryMember(t *testing.T) {
	a := setupTestApp(t)

	out, err := run(t, "add",
		"-m", "alice@example.com", "-m", "bob@example.com",
		"--start", "2024-01-15T10:00:00Z", "--end", "2024-01-15T11:00:00Z",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "for alice@example.com")
	assert.Contains(t, out, "for bob@example.com")
	assert.Len(t, bookingIDPattern.FindAllStringSubmatch(out, -1), 2)

	free, err := a.Availability.MemberFreeSlots(context.Background(), "bob@example.com", monday)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour, free.Total())
}

func TestAddCmd_RejectsBusySlot(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "add", "-m", "alice@example.com",
		"--start", "2024-01-15T10:00:00Z", "--end", "2024-01-15T11:00:00Z")
	require.NoError(t, err)

	// overlaps the first booking for alice only
	_, err = run(t, "add", "-m", "bob@example.com,alice@example.com",
		"--start", "2024-01-15T10:30:00Z", "--end", "2024-01-15T11:30:00Z")
	assert.ErrorIs(t, err, commands.ErrSlotUnavailable)
}

func TestAddCmd_BadInput(t *testing.T) {
	setupTestApp(t)

	_, err := run(t, "add", "-m", "alice@example.com", "--start", "10:00", "--end", "2024-01-15T11:00:00Z")
	assert.ErrorContains(t, err, "invalid --start")

	_, err = run(t, "add", "-m", "alice@example.com",
		"--start", "2024-01-15T11:00:00Z", "--end", "2024-01-15T10:00:00Z")
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = run(t, "add", "--start", "2024-01-15T10:00:00Z", "--end", "2024-01-15T11:00:00Z")
	assert.Error(t, err)
}

func TestCancelCmd(t *testing.T) {
	a := setupTestApp(t)

	out, err := run(t, "add", "-m", "alice@example.com",
		"--start", "2024-01-15T10:00:00Z", "--end", "2024-01-15T11:00:00Z")
	require.NoError(t, err)
	match := bookingIDPattern.FindStringSubmatch(out)
	require.Len(t, match, 2)

	out, err = run(t, "cancel", match[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled booking "+match[1])

	free, err := a.Availability.MemberFreeSlots(context.Background(), "alice@example.com", monday)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, free.Total())

	_, err = run(t, "cancel", match[1])
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = run(t, "cancel", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid booking ID")
}
