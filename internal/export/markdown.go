package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/taskdeck/taskdeck/internal"
)

// MarkdownExporter exports tasks as a Markdown checklist grouped by status
type MarkdownExporter struct{}

// Export exports the task list to Markdown format
func (e *MarkdownExporter) Export(tasks []internal.Task, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Tasks\n\n")
	_, _ = fmt.Fprintf(w, "**Total:** %d\n\n", len(tasks))

	sections := []struct {
		status string
		title  string
	}{
		{internal.StatusPending, "Pending"},
		{internal.StatusInProgress, "In Progress"},
		{internal.StatusCompleted, "Completed"},
	}

	for _, section := range sections {
		var matching []internal.Task
		for _, t := range tasks {
			if t.Status == section.status {
				matching = append(matching, t)
			}
		}
		if len(matching) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "## %s\n\n", section.title)
		for _, t := range matching {
			check := " "
			if t.Status == internal.StatusCompleted {
				check = "x"
			}
			line := fmt.Sprintf("- [%s] %s (%s)", check, escapeMarkdown(t.Title), t.Priority)
			if t.DueDate != "" {
				line += fmt.Sprintf(" (due %s)", t.DueDate)
			}
			_, _ = fmt.Fprintln(w, line)
			if t.Description != "" {
				_, _ = fmt.Fprintf(w, "  %s\n", escapeMarkdown(t.Description))
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	return nil
}

// escapeMarkdown escapes characters that would break list formatting
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
