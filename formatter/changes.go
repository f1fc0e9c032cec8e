package formatter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	tt "github.com/nilaware/nilify/internal/types"
)

var (
	ruleStyle = color.New(color.FgYellow, color.Bold)
	fileStyle = color.New(color.FgCyan, color.Bold)
	lineStyle = color.New(color.FgHiBlue, color.Bold)
	oldStyle  = color.New(color.FgRed)
	newStyle  = color.New(color.FgGreen, color.Bold)
)

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a
// `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &SourceCode{Lines: strings.Split(string(content), "\n")}, nil
}

// GenerateFormattedChanges formats the rewrites planned for one file
// into a human-readable report: rule, location, the affected source line
// and the replacement text.
func GenerateFormattedChanges(changes []tt.Change, snippet *SourceCode) string {
	sorted := make([]tt.Change, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Line != sorted[j].Start.Line {
			return sorted[i].Start.Line < sorted[j].Start.Line
		}
		return sorted[i].Start.Column < sorted[j].Start.Column
	})

	var builder strings.Builder
	for _, change := range sorted {
		builder.WriteString(buildChange(change, snippet))
	}
	return builder.String()
}

func buildChange(change tt.Change, snippet *SourceCode) string {
	var builder strings.Builder

	builder.WriteString(ruleStyle.Sprintf("rule: %s\n", change.Rule))
	builder.WriteString(lineStyle.Sprint(" --> "))
	builder.WriteString(fileStyle.Sprintf("%s:%d:%d\n", change.Filename, change.Start.Line, change.Start.Column))

	lineNum := change.Start.Line
	if snippet != nil && lineNum >= 1 && lineNum <= len(snippet.Lines) {
		srcLine := snippet.Lines[lineNum-1]
		numWidth := len(fmt.Sprintf("%d", lineNum))
		padding := strings.Repeat(" ", numWidth+1)

		builder.WriteString(lineStyle.Sprintf("%s|\n", padding))
		builder.WriteString(lineStyle.Sprintf("%d | ", lineNum))
		builder.WriteString(srcLine + "\n")
		builder.WriteString(lineStyle.Sprintf("%s| ", padding))
		builder.WriteString(underline(change, srcLine))
		builder.WriteString("\n")
	}

	builder.WriteString(oldStyle.Sprintf("- %s\n", firstLine(change.Old)))
	builder.WriteString(newStyle.Sprintf("+ %s\n\n", firstLine(change.New)))
	return builder.String()
}

// underline marks the rewritten span inside its source line. Multi-line
// spans are underlined to the end of the first line.
func underline(change tt.Change, srcLine string) string {
	start := change.Start.Column - 1
	if start < 0 || start > len(srcLine) {
		return ""
	}
	end := len(srcLine)
	if change.End.Line == change.Start.Line && change.End.Column-1 <= len(srcLine) {
		end = change.End.Column - 1
	}
	if end <= start {
		end = start + 1
	}
	pad := strings.Repeat(" ", start)
	return pad + oldStyle.Sprint(strings.Repeat("^", end-start))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
