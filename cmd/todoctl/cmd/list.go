package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/client"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
	"github.com/gobeyondidentity/puretodo/pkg/timeutil"
)

func init() {
	listAddCmd.Flags().Bool("shared", false, "Make the list visible to every user")
	listAddCmd.Flags().Int("priority", 0, "Sort priority; higher lists first")

	listEditCmd.Flags().String("name", "", "New name")
	listEditCmd.Flags().Bool("shared", false, "Share or unshare the list")
	listEditCmd.Flags().Int("priority", 0, "New sort priority")

	listCmd.AddCommand(listLsCmd, listShowCmd, listAddCmd, listEditCmd, listRmCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage todo lists",
	Long: `Manage todo lists.

You see your own lists and lists other users have shared, and can change
either. Only the creator of a list can delete it.`,
}

var listLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List visible lists",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lists, err := newClient().ListLists(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := formatOutput(out, lists); done {
			return err
		}
		if len(lists) == 0 {
			fmt.Fprintln(out, "No lists. Create one with 'todoctl list add <name>'.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRIORITY\tSHARED\tMODIFIED")
		for _, l := range lists {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", l.ID, l.Name, l.Priority, boolMark(l.Shared), timeutil.Since(l.Modified))
		}
		return w.Flush()
	},
}

var listShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a list with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("list", args[0])
		if err != nil {
			return err
		}
		c := newClient()
		l, err := c.GetList(cmd.Context(), id)
		if err != nil {
			return err
		}
		items, err := c.ListItems(cmd.Context(), client.ItemFilter{ListID: &id})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		view := struct {
			client.List `yaml:",inline"`
			Items       []client.Item `json:"items" yaml:"items"`
		}{*l, items}
		if done, err := formatOutput(out, view); done {
			return err
		}

		shared := ""
		if l.Shared {
			shared = " (shared)"
		}
		fmt.Fprintf(out, "%s%s\n\n", l.Name, shared)
		writeItems(out, items)
		return nil
	},
}

var listAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shared, _ := cmd.Flags().GetBool("shared")
		priority, _ := cmd.Flags().GetInt("priority")

		l, err := newClient().CreateList(cmd.Context(), client.NewList{Name: args[0], Shared: shared, Priority: priority})
		if err != nil {
			return err
		}
		if done, err := formatOutput(cmd.OutOrStdout(), l); done {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s created list %q (id %d)\n", okFmt("✓"), l.Name, l.ID)
		return nil
	},
}

var listEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Rename, reprioritize or (un)share a list",
	Long: `Change a list. Only flags given on the command line are sent.

Examples:
  todoctl list edit 3 --name Food
  todoctl list edit 3 --shared=false --priority 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("list", args[0])
		if err != nil {
			return err
		}

		var patch client.ListPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("shared") {
			v, _ := flags.GetBool("shared")
			patch.Shared = &v
		}
		if flags.Changed("priority") {
			v, _ := flags.GetInt("priority")
			patch.Priority = &v
		}
		if patch == (client.ListPatch{}) {
			return clierror.InvalidRequest("nothing to change").WithHint("Pass --name, --shared or --priority")
		}

		l, err := newClient().UpdateList(cmd.Context(), id, patch)
		if err != nil {
			return err
		}
		if done, err := formatOutput(cmd.OutOrStdout(), l); done {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated list %d\n", okFmt("✓"), l.ID)
		return nil
	},
}

var listRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a list and all its items",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("list", args[0])
		if err != nil {
			return err
		}
		if err := newClient().DeleteList(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted list %d\n", okFmt("✓"), id)
		return nil
	},
}
