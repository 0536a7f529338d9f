package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	editTitle       string
	editDescription string
	editStatus      string
	editPriority    string
	editDueDate     string
	editReplace     bool
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Update a task",
	Long: `Update fields of a task. Only the flags you pass are changed; the
update is applied locally right away and reconciled with the server copy.
With --replace the request is sent as a full update (PUT) instead of a
partial one (PATCH).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		patch := internal.TaskPatch{}
		changed := false
		if cmd.Flags().Changed("title") {
			patch.Title = &editTitle
			changed = true
		}
		if cmd.Flags().Changed("desc") {
			patch.Description = &editDescription
			changed = true
		}
		if cmd.Flags().Changed("status") {
			if err := internal.ValidateStatus(editStatus); err != nil {
				return err
			}
			patch.Status = &editStatus
			changed = true
		}
		if cmd.Flags().Changed("priority") {
			if err := internal.ValidatePriority(editPriority); err != nil {
				return err
			}
			patch.Priority = &editPriority
			changed = true
		}
		if cmd.Flags().Changed("due") {
			patch.DueDate = &editDueDate
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change (pass --title, --desc, --status, --priority or --due)")
		}

		id := args[0]
		if editReplace {
			err = env.tasks.Update(cmd.Context(), id, patch)
		} else {
			err = env.tasks.Patch(cmd.Context(), id, patch)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Updated task %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editDescription, "desc", "", "New description")
	editCmd.Flags().StringVar(&editStatus, "status", "", "New status")
	editCmd.Flags().StringVar(&editPriority, "priority", "", "New priority")
	editCmd.Flags().StringVar(&editDueDate, "due", "", "New due date")
	editCmd.Flags().BoolVar(&editReplace, "replace", false, "Send a full update (PUT) instead of a partial one")
}
