package export

import (
	"encoding/json"
	"io"

	"github.com/taskdeck/taskdeck/internal"
)

// JSONExporter exports tasks in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports the task list to JSON format
func (e *JSONExporter) Export(tasks []internal.Task, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(tasks)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
