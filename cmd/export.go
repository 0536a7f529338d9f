package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
	"github.com/taskdeck/taskdeck/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your tasks",
	Long: `Export the full task list in one of several formats (json, jsonl,
yaml, md). Writes to stdout unless --output is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(cmd.Context(), env); err != nil {
			return err
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		if err := env.tasks.Fetch(cmd.Context(), internal.TaskFilters{}); err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		tasks := env.tasks.Tasks()

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := exporter.Export(tasks, out); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			fmt.Fprintf(os.Stderr, "Exported %d task(s) to %s\n", len(tasks), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format (json, jsonl, yaml, md)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
