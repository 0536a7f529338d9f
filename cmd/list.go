package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	listStatus   string
	listPriority string
	listLimit    int
	listOffset   int
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	highStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mediumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	lowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tasks",
	Long: `List tasks from the backend, optionally filtered by status and
priority. When the backend is unreachable the last successfully fetched list
is shown from the local cache instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		if listStatus != "" {
			if err := internal.ValidateStatus(listStatus); err != nil {
				return err
			}
		}
		if listPriority != "" {
			if err := internal.ValidatePriority(listPriority); err != nil {
				return err
			}
		}

		filters := internal.TaskFilters{
			Status:   listStatus,
			Priority: listPriority,
			Limit:    listLimit,
			Offset:   listOffset,
		}

		if err := env.tasks.Fetch(cmd.Context(), filters); err != nil {
			if internal.IsNetworkError(err) && filters == (internal.TaskFilters{}) {
				cached, refreshed, cacheErr := env.cache.LoadTasks()
				if cacheErr == nil && len(cached) > 0 {
					internal.LogWarn("Backend unreachable, showing cached tasks")
					displayTasks(cached)
					fmt.Println(idStyle.Render(fmt.Sprintf("(cached data from %s, backend unreachable)", refreshed.Local().Format("2006-01-02 15:04"))))
					return nil
				}
			}
			return err
		}

		tasks := env.tasks.Tasks()
		// Only an unfiltered fetch is representative enough to cache.
		if filters == (internal.TaskFilters{}) {
			if err := env.cache.SaveTasks(tasks); err != nil {
				internal.LogWarn("Failed to refresh task cache: %v", err)
			}
		}

		displayTasks(tasks)
		return nil
	},
}

func displayTasks(tasks []internal.Task) {
	if len(tasks) == 0 {
		fmt.Println(headerStyle.Render("No tasks found"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("%d task(s)", len(tasks)))
	fmt.Println(header)
	fmt.Println()

	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Priority")+"\t"+titleStyle.Render("Due")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

	for _, task := range tasks {
		title := task.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}

		shortID := task.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID),
			title,
			renderStatus(task.Status),
			renderPriority(task.Priority),
			renderDue(task.DueDate),
		)
	}

	_ = w.Flush()
	fmt.Println()
}

func renderStatus(status string) string {
	switch status {
	case internal.StatusCompleted:
		return doneStyle.Render(status)
	case internal.StatusInProgress:
		return progressStyle.Render(status)
	default:
		return pendingStyle.Render(status)
	}
}

func renderPriority(priority string) string {
	switch priority {
	case internal.PriorityHigh:
		return highStyle.Render(priority)
	case internal.PriorityLow:
		return lowStyle.Render(priority)
	default:
		return mediumStyle.Render(priority)
	}
}

func renderDue(due string) string {
	if due == "" {
		return dateStyle.Render("—")
	}
	if t, err := time.Parse(time.RFC3339, due); err == nil {
		return dateStyle.Render(t.Format("2006-01-02"))
	}
	return dateStyle.Render(due)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending, in-progress, completed)")
	listCmd.Flags().StringVar(&listPriority, "priority", "", "Filter by priority (low, medium, high)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of tasks to fetch")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of tasks to skip")
}
