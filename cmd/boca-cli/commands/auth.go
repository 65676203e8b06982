package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bocateam/cmd/boca-cli/globals"
	"bocateam/lib/platforms/boca/core"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginIp       string
	loginUsername string
)

func init() {
	loginCmd.Flags().StringVar(&loginIp, "ip", "", "Address of the BOCA server, with an optional port.")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Team username.")
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

// readPassword prompts on a terminal and reads the first line of stdin otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var loginCmd = &cobra.Command{
	Use:   "login --ip <address> --username <team>",
	Short: "Checks the credentials against the server and keeps them, the password is read from the terminal or stdin.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client

		password, err := readPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		creds := core.Credentials{
			Ip:       loginIp,
			Username: loginUsername,
			Password: password,
		}
		err = client.ValidateAndStore(cmd.Context(), creds)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s.\n", creds)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logs out of the server and forgets the stored credentials.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := globals.Get(cmd.Context()).Client.LogOut(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

type status struct {
	LoggedIn  bool       `json:"loggedIn"`
	Ip        string     `json:"ip,omitempty"`
	Username  string     `json:"username,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the stored credentials without contacting the server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		session := value.Client.Session()

		creds, err := session.Credentials(cmd.Context())
		if err != nil && !errors.Is(err, core.ErrNotLoggedIn) {
			return err
		}

		out := status{LoggedIn: err == nil}
		if out.LoggedIn {
			out.Ip = creds.Ip
			out.Username = creds.Username
			if !creds.ExpiresAt.IsZero() {
				out.ExpiresAt = &creds.ExpiresAt
			}
		}
		if value.Json {
			return printJson(out)
		}

		if !out.LoggedIn {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("Logged in as %s.\n", creds)
		if out.ExpiresAt != nil {
			if creds.Expired(session.Now()) {
				fmt.Println("Credentials expired, log in again.")
			} else {
				fmt.Printf("Credentials expire %s.\n", humanize.Time(creds.ExpiresAt))
			}
		}
		return nil
	},
}
