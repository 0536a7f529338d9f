package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		status := internal.StatusCompleted
		if err := env.tasks.Patch(cmd.Context(), args[0], internal.TaskPatch{Status: &status}); err != nil {
			return err
		}

		fmt.Printf("Completed task %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
