// Package nilreport reads the diagnostics emitted by an external
// nullability checker and maps them onto source spans. Matching is
// span-based: a diagnostic belongs to the node whose byte offsets are
// exactly the recorded ones, so two expressions sharing a line can never
// be confused.
package nilreport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nilaware/nilify/internal/rules"
)

// Diagnostic is one possibly-nil finding from the external checker.
type Diagnostic struct {
	File  string `json:"file"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Report groups possibly-nil spans by cleaned file path.
type Report map[string][]rules.Span

// Load reads a JSON report file.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading nil report: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of diagnostics.
func Parse(data []byte) (Report, error) {
	var diags []Diagnostic
	if err := json.Unmarshal(data, &diags); err != nil {
		return nil, fmt.Errorf("decoding nil report: %w", err)
	}
	report := make(Report)
	for _, d := range diags {
		if d.End < d.Start {
			return nil, fmt.Errorf("invalid span [%d, %d) for %s", d.Start, d.End, d.File)
		}
		key := filepath.Clean(d.File)
		report[key] = append(report[key], rules.Span{Start: d.Start, End: d.End})
	}
	return report, nil
}

// Spans returns the possibly-nil spans recorded for filename.
func (r Report) Spans(filename string) []rules.Span {
	return r[filepath.Clean(filename)]
}
