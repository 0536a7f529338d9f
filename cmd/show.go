package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a single task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		task, err := env.tasks.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render(task.Title))
		fmt.Printf("ID:       %s\n", task.ID)
		fmt.Printf("Status:   %s\n", renderStatus(task.Status))
		fmt.Printf("Priority: %s\n", renderPriority(task.Priority))
		if task.DueDate != "" {
			fmt.Printf("Due:      %s\n", renderDue(task.DueDate))
		}
		if task.Description != "" {
			fmt.Printf("\n%s\n", task.Description)
		}
		fmt.Printf("\n%s\n", dateStyle.Render(fmt.Sprintf("created %s, updated %s", task.CreatedAt, task.UpdatedAt)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
