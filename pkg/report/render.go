package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

// Format is an output format of Render.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", errors.Errorf("unsupported output format: %s", s)
	}
}

// Render writes reports to w in format.
func Render(w io.Writer, format Format, reports []*Report) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"reports": reports})
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(map[string]any{"reports": reports})
	case FormatText:
		return renderText(w, reports)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

// JSON encodes a single report.
func JSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report")
	}
	return data, nil
}

func renderText(w io.Writer, reports []*Report) error {
	errorCount, warningCount := 0, 0
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		status := color.GreenString(string(r.OverallStatus))
		if !r.Passed() {
			status = color.RedString(string(r.OverallStatus))
		}
		fmt.Fprintf(w, "%s %s\n", status, r.Summary)
		if r.Statement != "" {
			fmt.Fprintf(w, "\tSQL: %s\n", color.CyanString(truncate(r.Statement, 80)))
		}

		for _, stage := range r.Stages {
			fmt.Fprintf(w, "\t%-12s %s\n", stage.Stage, stageColor(stage.Status).Sprint(stage.Status))
		}
		for _, issue := range r.Issues {
			position := ""
			if issue.StartPosition != nil {
				position = fmt.Sprintf(" at line %d, column %d", issue.StartPosition.Line, issue.StartPosition.Column)
			}
			source := ""
			if issue.Advisory {
				source = " (advisory)"
			}
			fmt.Fprintf(w, "\t[%s] %s: %s%s%s\n", severityColor(issue.Severity).Sprint(issue.Severity), issue.Kind, issue.Message, position, source)
		}
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "\t- %s\n", rec)
		}
		errorCount += r.Count(types.Severity_ERROR)
		warningCount += r.Count(types.Severity_WARNING)
	}

	fmt.Fprintf(w, "\nSummary: %d statement(s), %d error(s), %d warning(s)\n", len(reports), errorCount, warningCount)
	return nil
}

func severityColor(s types.Severity) *color.Color {
	switch s {
	case types.Severity_ERROR:
		return color.New(color.FgRed, color.Bold)
	case types.Severity_WARNING:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func stageColor(s types.StageStatus) *color.Color {
	switch s {
	case types.StageStatus_PASSED:
		return color.New(color.FgGreen)
	case types.StageStatus_FAILED, types.StageStatus_ERROR:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}
