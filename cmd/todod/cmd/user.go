package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/store"
)

func init() {
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().Bool("admin", false, "Grant admin rights")

	userCmd.AddCommand(userListCmd, userAddCmd, userDisableCmd, userEnableCmd, userRemoveCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users directly in the database",
	Long: `Manage users directly in the database, bypassing the API.

These commands act as a built-in operator with admin rights and are meant
for the server host. Remote administration goes through todoctl.`,
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.store.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users. Run 'todod setup <username>' first.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tADMIN\tSTATUS")
		for _, u := range users {
			status := okFmt("active")
			if u.Disabled {
				status = warnFmt("disabled")
			}
			name := u.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, name, u.Admin, status)
		}
		return w.Flush()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user and print its token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("name")
		admin, _ := cmd.Flags().GetBool("admin")
		u, err := a.store.CreateUser(cmd.Context(), 0, store.NewUser{Username: args[0], Name: name, Admin: admin}, a.issuer.Sign)
		if err != nil {
			return err
		}
		a.recorder.Record(audit.NewMutation(audit.EventUserCreate, operator.Username, "", "users", u.ID, ""))
		a.recorder.Record(audit.NewTokenIssued(operator.Username, u.Username, ""))

		fmt.Fprintf(cmd.OutOrStdout(), "%s created user %s (id %d, admin %t)\n", okFmt("✓"), u.Username, u.ID, u.Admin)
		fmt.Fprintln(cmd.OutOrStdout(), u.Token)
		return nil
	},
}

var userDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable a user; its token stops working",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDisabled(cmd, args[0], true)
	},
}

var userEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Re-enable a disabled user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDisabled(cmd, args[0], false)
	},
}

func setDisabled(cmd *cobra.Command, username string, disabled bool) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	u, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}
	if _, err := a.store.UpdateUser(ctx, operator, u.ID, store.UserPatch{Disabled: &disabled}, a.issuer.Sign); err != nil {
		return err
	}
	a.recorder.Record(audit.NewMutation(audit.EventUserUpdate, operator.Username, "", "users", u.ID, ""))

	state := "enabled"
	if disabled {
		state = "disabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", okFmt("✓"), username, state)
	return nil
}

var userRemoveCmd = &cobra.Command{
	Use:     "remove <username>",
	Aliases: []string{"rm"},
	Short:   "Delete a user with its lists and items",
	Args:    cobra.ExactArgs(1),
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
		if err := a.store.DeleteUser(ctx, operator, u.ID); err != nil {
			return err
		}
		a.recorder.Record(audit.NewMutation(audit.EventUserDelete, operator.Username, "", "users", u.ID, ""))

		fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", okFmt("✓"), u.Username)
		return nil
	},
}
