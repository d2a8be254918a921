package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/felixgeelhaar/freebusy/adapter/cli"
	"github.com/felixgeelhaar/freebusy/internal/calendar/application/commands"
	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const passwordEnv = "FREEBUSY_CALDAV_PASSWORD"

var (
	ownerEmail   string
	calendarID   string
	caldavURL    string
	baseURL      string
	username     string
	password     string
	accessToken  string
	refreshToken string
	expiry       string
	ignoreAllDay bool
)

var connectCmd = &cobra.Command{
	Use:   "connect <provider>",
	Short: "Link a calendar account",
	Long: `Link a calendar account whose events count as busy time.

Supported providers:
  google     Google Calendar (OAuth2 token)
  microsoft  Microsoft Outlook/365 (OAuth2 token)
  apple      iCloud (CalDAV with an app-specific password)
  caldav     Generic CalDAV (Fastmail, Nextcloud, ...)

OAuth tokens come from your own consent flow. CalDAV passwords are read from
--password, then $` + passwordEnv + `, then the terminal.

Examples:
  freebusy calendar connect google --owner alice@example.com --access-token ya29... --refresh-token 1//...
  freebusy calendar connect caldav --owner bob@example.com --url https://caldav.fastmail.com --username bob`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ConnectAccountHandler == nil {
			return errors.New("calendar linking requires a configured database")
		}

		provider, err := domain.ParseProviderType(args[0])
		if err != nil {
			return err
		}

		c := commands.ConnectAccountCommand{
			OwnerEmail:         ownerEmail,
			Provider:           string(provider),
			CalendarID:         calendarID,
			IgnoreAllDayEvents: ignoreAllDay,
			CalDAVURL:          caldavURL,
			BaseURL:            baseURL,
			AccessToken:        accessToken,
			RefreshToken:       refreshToken,
		}
		if expiry != "" {
			c.Expiry, err = time.Parse(time.RFC3339, expiry)
			if err != nil {
				return fmt.Errorf("invalid --expiry: %w", err)
			}
		}
		if provider.RequiresCalDAV() {
			c.Username = username
			c.Password, err = resolvePassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		account, err := app.ConnectAccountHandler.Handle(cmd.Context(), c)
		if err != nil {
			return fmt.Errorf("failed to connect calendar: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connected %s calendar for %s\n", account.Provider(), account.OwnerEmail())
		fmt.Fprintf(out, "Account ID: %s\n", account.ID())
		fmt.Fprintf(out, "Link it with: freebusy profile set %s --account %s ...\n", account.OwnerEmail(), account.ID())
		return nil
	},
}

func resolvePassword(prompt io.Writer) (string, error) {
	if password != "" {
		return password, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("a CalDAV password is required (--password or $%s)", passwordEnv)
	}

	fmt.Fprint(prompt, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func init() {
	connectCmd.Flags().StringVar(&ownerEmail, "owner", "", "email of the calendar owner")
	connectCmd.Flags().StringVar(&calendarID, "calendar-id", "", "calendar to read (default primary)")
	connectCmd.Flags().StringVar(&caldavURL, "url", "", "CalDAV server URL (required for caldav)")
	connectCmd.Flags().StringVar(&baseURL, "base-url", "", "override the provider API endpoint")
	connectCmd.Flags().StringVar(&username, "username", "", "CalDAV username")
	connectCmd.Flags().StringVar(&password, "password", "", "CalDAV password")
	connectCmd.Flags().StringVar(&accessToken, "access-token", "", "OAuth2 access token")
	connectCmd.Flags().StringVar(&refreshToken, "refresh-token", "", "OAuth2 refresh token")
	connectCmd.Flags().StringVar(&expiry, "expiry", "", "access token expiry (RFC 3339)")
	connectCmd.Flags().BoolVar(&ignoreAllDay, "ignore-all-day", false, "skip all-day events instead of failing on them")
	_ = connectCmd.MarkFlagRequired("owner")
}
