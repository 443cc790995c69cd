package common

import (
	"encoding/json"
	"os"
)

// ToolReport is the machine-readable outcome of one tool invocation,
// printed when --ci is set so pipelines can assert on seeding results
// without scraping the interactive view.
type ToolReport struct {
	OK      bool     `json:"ok"`
	Task    string   `json:"task"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func EmitReport(ok bool, task string, details []string, err error) {
	report := ToolReport{OK: ok, Task: task, Details: details}
	if err != nil {
		report.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
