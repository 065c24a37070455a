package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/store"
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

// errAlreadySetUp is returned by setup once any user exists.
var errAlreadySetUp = errors.New("setup already completed: users exist (use 'todod user add')")

func init() {
	setupCmd.Flags().String("name", "", "Display name")
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup <username>",
	Short: "Create the first admin user",
	Long: `Create the first user of an empty database and print its token.

The first user is always an admin. Setup refuses to run once any user
exists.

Examples:
  todod setup alice --name "Alice Liddell"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		n, err := a.store.CountUsers(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return errAlreadySetUp
		}

		name, _ := cmd.Flags().GetString("name")
		u, err := a.store.CreateFirstUser(ctx, store.NewUser{Username: args[0], Name: name, Admin: true}, a.issuer.Sign)
		if errors.Is(err, store.ErrForbidden) {
			return errAlreadySetUp
		}
		if err != nil {
			return err
		}
		a.recorder.Record(audit.NewSetupComplete(u.Username, "", ""))
		a.recorder.Record(audit.NewTokenIssued(operator.Username, u.Username, ""))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s created admin %s (id %d)\n", okFmt("✓"), u.Username, u.ID)
		fmt.Fprintln(out, dimFmt("Token (store it now, it authenticates as this user):"))
		fmt.Fprintln(out, u.Token)
		return nil
	},
}
