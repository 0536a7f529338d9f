package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/taskdeck/taskdeck/internal"
)

// JSONLExporter exports tasks in JSONL format (one task per line)
type JSONLExporter struct{}

// Export exports the task list to JSONL format
func (e *JSONLExporter) Export(tasks []internal.Task, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, task := range tasks {
		if err := enc.Encode(task); err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
