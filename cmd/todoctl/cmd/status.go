package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"whoami"},
	Short:   "Show how the server sees the current token",
	Long: `Show the token status reported by the server and, when the token is
valid, the user it belongs to.

Token statuses:
  Ok         token is valid and current
  Missing    no token was sent
  Invalid    token is malformed or its signature does not verify
  Expired    token is past its expiry time
  NoSubject  token carries no username
  NotFound   token was replaced or its user is gone or disabled

Examples:
  todoctl status
  todoctl status -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().Status(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := formatOutput(out, st); done {
			return err
		}

		fmt.Fprintf(out, "Server:  %s\n", serverURL())
		token := st.JwtStatus
		if st.Authenticated {
			token = okFmt(token)
		} else {
			token = warnFmt(token)
		}
		fmt.Fprintf(out, "Token:   %s\n", token)
		if st.User != nil {
			role := "user"
			if st.User.Admin {
				role = "admin"
			}
			fmt.Fprintf(out, "User:    %s (id %d, %s)\n", st.User.Username, st.User.ID, role)
		}
		if st.SetupMode {
			fmt.Fprintf(out, "\n%s no users exist; the next 'todoctl user add' creates the first admin\n", warnFmt("Setup mode:"))
		}
		return nil
	},
}
