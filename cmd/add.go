package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	addDescription string
	addStatus      string
	addPriority    string
	addDueDate     string
)

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "Create a task",
	Long: `Create a task on the backend. The server assigns the id; the task
appears in the local list only after the server confirms.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title required")
		}
		if addStatus != "" {
			if err := internal.ValidateStatus(addStatus); err != nil {
				return err
			}
		}
		if addPriority != "" {
			if err := internal.ValidatePriority(addPriority); err != nil {
				return err
			}
		}

		task, err := env.tasks.Create(cmd.Context(), internal.TaskCreate{
			Title:       title,
			Description: addDescription,
			Status:      addStatus,
			Priority:    addPriority,
			DueDate:     addDueDate,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created task %s\n", task.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addDescription, "desc", "", "Task description")
	addCmd.Flags().StringVar(&addStatus, "status", "", "Initial status (default pending)")
	addCmd.Flags().StringVar(&addPriority, "priority", "", "Priority (default medium)")
	addCmd.Flags().StringVar(&addDueDate, "due", "", "Due date (RFC 3339 or YYYY-MM-DD)")
}
