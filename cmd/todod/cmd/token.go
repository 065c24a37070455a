package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/audit"
)

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <username>",
	Short: "Issue a new token, revoking the current one",
	Long: `Issue a new bearer token for a user and print it.

Each user holds exactly one token. Issuing a new one overwrites the stored
token, so every copy of the previous token stops authenticating at once.

Examples:
  todod token issue alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		u, err := a.store.GetUserByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user %q: %w", args[0], err)
		}
		tok, err := a.store.IssueToken(ctx, u.ID, a.issuer.Sign)
		if err != nil {
			return err
		}
		a.recorder.Record(audit.NewTokenIssued(operator.Username, u.Username, ""))

		fmt.Fprintf(cmd.ErrOrStderr(), "%s previous token for %s revoked\n", warnFmt("!"), u.Username)
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
