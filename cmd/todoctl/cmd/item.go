package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/pkg/client"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
)

func init() {
	itemLsCmd.Flags().Int64("list", 0, "Only items of this list")
	itemLsCmd.Flags().Bool("finished", false, "Only finished items")
	itemLsCmd.Flags().Bool("open", false, "Only unfinished items")
	itemLsCmd.MarkFlagsMutuallyExclusive("finished", "open")

	itemAddCmd.Flags().Int("priority", 0, "Position in the list; 1 is the bottom (default: top)")

	itemEditCmd.Flags().String("title", "", "New title")
	itemEditCmd.Flags().Int("priority", 0, "New position in the list")
	itemEditCmd.Flags().Int64("list", 0, "Move to another list")

	itemCmd.AddCommand(itemLsCmd, itemAddCmd, itemEditCmd, itemDoneCmd, itemUndoCmd, itemRmCmd, itemClearCmd)
	rootCmd.AddCommand(itemCmd)
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage todo items",
	Long: `Manage the items of todo lists.

Unfinished items of a list are ranked 1..N, N being the top. Adding an
item puts it on top; finishing, moving or deleting one closes the gap.`,
}

func writeItems(out io.Writer, items []client.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLIST\tPRIORITY\tDONE\tTITLE")
	for _, it := range items {
		prio := fmt.Sprint(it.Priority)
		if it.Finished {
			prio = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", it.ID, it.ListID, prio, boolMark(it.Finished), it.Title)
	}
	w.Flush()
}

var itemLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List items",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter client.ItemFilter
		flags := cmd.Flags()
		if flags.Changed("list") {
			id, _ := flags.GetInt64("list")
			filter.ListID = &id
		}
		if finished, _ := flags.GetBool("finished"); finished {
			filter.Finished = &finished
		}
		if open, _ := flags.GetBool("open"); open {
			finished := false
			filter.Finished = &finished
		}

		items, err := newClient().ListItems(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if done, err := formatOutput(cmd.OutOrStdout(), items); done {
			return err
		}
		writeItems(cmd.OutOrStdout(), items)
		return nil
	},
}

var itemAddCmd = &cobra.Command{
	Use:   "add <list-id> <title>",
	Short: "Add an item to a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := parseID("list", args[0])
		if err != nil {
			return err
		}
		in := client.NewItem{ListID: listID, Title: args[1]}
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetInt("priority")
			in.Priority = &p
		}

		it, err := newClient().CreateItem(cmd.Context(), in)
		if err != nil {
			return err
		}
		if done, err := formatOutput(cmd.OutOrStdout(), it); done {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s added item %d at priority %d\n", okFmt("✓"), it.ID, it.Priority)
		return nil
	},
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Retitle, reprioritize or move an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("item", args[0])
		if err != nil {
			return err
		}

		var patch client.ItemPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			v, _ := flags.GetString("title")
			patch.Title = &v
		}
		if flags.Changed("priority") {
			v, _ := flags.GetInt("priority")
			patch.Priority = &v
		}
		if flags.Changed("list") {
			v, _ := flags.GetInt64("list")
			patch.ListID = &v
		}
		if patch == (client.ItemPatch{}) {
			return clierror.InvalidRequest("nothing to change").WithHint("Pass --title, --priority or --list")
		}
		return updateItem(cmd, id, patch, "updated")
	},
}

var itemDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an item finished",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFinished(cmd, args[0], true)
	},
}

var itemUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark an item unfinished; it goes back on top",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFinished(cmd, args[0], false)
	},
}

func setFinished(cmd *cobra.Command, arg string, finished bool) error {
	id, err := parseID("item", arg)
	if err != nil {
		return err
	}
	verb := "finished"
	if !finished {
		verb = "reopened"
	}
	return updateItem(cmd, id, client.ItemPatch{Finished: &finished}, verb)
}

func updateItem(cmd *cobra.Command, id int64, patch client.ItemPatch, verb string) error {
	it, err := newClient().UpdateItem(cmd.Context(), id, patch)
	if err != nil {
		return err
	}
	if done, err := formatOutput(cmd.OutOrStdout(), it); done {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s item %d\n", okFmt("✓"), verb, it.ID)
	return nil
}

var itemRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete an item",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("item", args[0])
		if err != nil {
			return err
		}
		if err := newClient().DeleteItem(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted item %d\n", okFmt("✓"), id)
		return nil
	},
}

var itemClearCmd = &cobra.Command{
	Use:   "clear <list-id>",
	Short: "Delete every finished item of a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := parseID("list", args[0])
		if err != nil {
			return err
		}
		if err := newClient().ClearFinished(cmd.Context(), listID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s cleared finished items of list %d\n", okFmt("✓"), listID)
		return nil
	},
}
