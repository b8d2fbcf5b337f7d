// Package report reduces the stage results of one validation run into a report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

// Status is the overall verdict of a run.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// StageResult is the outcome of one pipeline stage.
type StageResult struct {
	Stage  types.Stage       `json:"stage" yaml:"stage"`
	Status types.StageStatus `json:"status" yaml:"status"`
	Issues []types.Issue     `json:"issues" yaml:"issues"`
}

// Input is everything the aggregator needs from a run.
type Input struct {
	Kind              types.StatementKind
	Table             string
	Database          string
	Statement         string
	SyntaxValid       bool
	StandardCompliant bool
	Stages            []StageResult
	// Now defaults to time.Now.
	Now func() time.Time
}

// Report is the result of validating one statement.
type Report struct {
	ID                string              `json:"id" yaml:"id"`
	DDLType           types.StatementKind `json:"ddl_type" yaml:"ddl_type"`
	TableName         string              `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	Database          string              `json:"database,omitempty" yaml:"database,omitempty"`
	Statement         string              `json:"statement,omitempty" yaml:"statement,omitempty"`
	OverallStatus     Status              `json:"overall_status" yaml:"overall_status"`
	TotalIssues       int                 `json:"total_issues" yaml:"total_issues"`
	SyntaxValid       bool                `json:"syntax_valid" yaml:"syntax_valid"`
	StandardCompliant bool                `json:"standard_compliant" yaml:"standard_compliant"`
	Stages            []StageResult       `json:"stages" yaml:"stages"`
	Issues            []types.Issue       `json:"issues" yaml:"issues"`
	Recommendations   []string            `json:"recommendations" yaml:"recommendations"`
	Summary           string              `json:"summary" yaml:"summary"`
	ValidatedAt       string              `json:"validated_at" yaml:"validated_at"`
}

// Passed reports whether the run found no issues at all.
func (r *Report) Passed() bool {
	return r.OverallStatus == StatusPass
}

// Count returns the number of issues with severity.
func (r *Report) Count(severity types.Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Stage returns the result of stage, or nil if it is not part of the report.
func (r *Report) Stage(stage types.Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			return &r.Stages[i]
		}
	}
	return nil
}

var recommendations = map[types.Stage]string{
	types.Stage_SYNTAX:      "Fix the syntax errors before running any other check.",
	types.Stage_STANDARDS:   "Align object names and definitions with the schema standards.",
	types.Stage_CONN_TEST:   "Verify database connectivity and credentials, then re-run the schema checks.",
	types.Stage_SCHEMA:      "Reconcile the statement with the current schema (tables, columns, indexes, foreign keys).",
	types.Stage_PERFORMANCE: "Review the performance impact; schedule table rewrites off-peak and keep indexes narrow.",
	types.Stage_SAFETY:      "Back up affected data and confirm dependent objects before destructive changes.",
}

// Aggregate builds the report of a run. Every issue counts toward
// total_issues, so a single warning is enough to fail the run.
func Aggregate(in Input) *Report {
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}

	r := &Report{
		ID:                newID(),
		DDLType:           in.Kind,
		TableName:         in.Table,
		Database:          in.Database,
		Statement:         in.Statement,
		SyntaxValid:       in.SyntaxValid,
		StandardCompliant: in.StandardCompliant,
		Stages:            in.Stages,
		Issues:            []types.Issue{},
		Recommendations:   []string{},
		ValidatedAt:       now().UTC().Format(time.RFC3339),
	}

	for _, stage := range in.Stages {
		r.Issues = append(r.Issues, stage.Issues...)
		if len(stage.Issues) > 0 {
			if rec, ok := recommendations[stage.Stage]; ok {
				r.Recommendations = append(r.Recommendations, rec)
			}
		}
	}
	r.TotalIssues = len(r.Issues)
	r.OverallStatus = StatusFail
	if r.TotalIssues == 0 {
		r.OverallStatus = StatusPass
	}
	r.Summary = summarize(r)
	return r
}

func summarize(r *Report) string {
	target := r.DDLType.String()
	if r.TableName != "" {
		target = fmt.Sprintf("%s on `%s`", target, r.TableName)
	}
	if r.OverallStatus == StatusPass {
		return fmt.Sprintf("%s passed all checks.", target)
	}

	var failed []string
	for _, stage := range r.Stages {
		if len(stage.Issues) > 0 {
			failed = append(failed, stage.Stage.String())
		}
	}
	return fmt.Sprintf("%s failed with %d issue(s) (%d error(s), %d warning(s)) in %s.",
		target, r.TotalIssues, r.Count(types.Severity_ERROR), r.Count(types.Severity_WARNING), strings.Join(failed, ", "))
}

func newID() string {
	if v7, err := uuid.NewV7(); err == nil {
		return v7.String()
	}
	return uuid.New().String()
}
