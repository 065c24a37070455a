package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/client"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
)

func init() {
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().Bool("admin", false, "Grant admin rights")

	userEditCmd.Flags().String("username", "", "New username")
	userEditCmd.Flags().String("name", "", "New display name")
	userEditCmd.Flags().Bool("admin", false, "Grant or revoke admin rights")
	userEditCmd.Flags().Bool("disabled", false, "Disable or enable the user")

	userCmd.AddCommand(userLsCmd, userAddCmd, userEditCmd, userTokenCmd, userRmCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users (admin only)",
	Long: `Manage users. Every command requires an admin token, except that
'user add' works without a token while the server has no users.`,
}

var userLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List users",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := newClient().ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := formatOutput(out, users); done {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tADMIN\tSTATUS")
		for _, u := range users {
			status := okFmt("active")
			if u.Disabled {
				status = errFmt("disabled")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Name, boolMark(u.Admin), status)
		}
		return w.Flush()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user and print its token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		admin, _ := cmd.Flags().GetBool("admin")

		u, err := newClient().CreateUser(cmd.Context(), client.NewUser{Username: args[0], Name: name, Admin: admin})
		if err != nil {
			return err
		}
		return printUserToken(cmd, u, "created user")
	},
}

var userEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a user",
	Long: `Change a user. Only flags given on the command line are sent.

Changing the username, name or admin flag reissues the user's token.
Admins cannot change their own admin or disabled flag.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}

		var patch client.UserPatch
		flags := cmd.Flags()
		if flags.Changed("username") {
			v, _ := flags.GetString("username")
			patch.Username = &v
		}
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("admin") {
			v, _ := flags.GetBool("admin")
			patch.Admin = &v
		}
		if flags.Changed("disabled") {
			v, _ := flags.GetBool("disabled")
			patch.Disabled = &v
		}
		if patch == (client.UserPatch{}) {
			return clierror.InvalidRequest("nothing to change").WithHint("Pass --username, --name, --admin or --disabled")
		}

		u, err := newClient().UpdateUser(cmd.Context(), id, patch)
		if err != nil {
			return err
		}
		if done, err := formatOutput(cmd.OutOrStdout(), u); done {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated user %s\n", okFmt("✓"), u.Username)
		return nil
	},
}

var userTokenCmd = &cobra.Command{
	Use:   "refresh-token <id>",
	Short: "Issue a new token, revoking the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		u, err := newClient().RefreshToken(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printUserToken(cmd, u, "reissued token for")
	},
}

func printUserToken(cmd *cobra.Command, u *client.User, what string) error {
	out := cmd.OutOrStdout()
	if done, err := formatOutput(out, u); done {
		return err
	}
	fmt.Fprintf(out, "%s %s %s (id %d)\n", okFmt("✓"), what, u.Username, u.ID)
	fmt.Fprintln(out, u.Token)
	return nil
}

var userRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a user with its lists and items",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		if err := newClient().DeleteUser(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted user %d\n", okFmt("✓"), id)
		return nil
	},
}
