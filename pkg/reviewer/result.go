package reviewer

import (
	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/report"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// RunState is the mutable record of one validation run. It is owned by a
// single Validate call and never shared.
type RunState struct {
	Statement         string
	Text              string
	Kind              types.StatementKind
	Table             string
	Database          string
	ServerVersion     string
	SyntaxValid       bool
	StandardCompliant bool
	ConnectionLost    bool

	results []report.StageResult
	catalog *catalog.Introspector
}

func newRunState(statement, text string, stages []types.Stage) *RunState {
	state := &RunState{
		Statement: statement,
		Text:      text,
	}
	for _, stage := range stages {
		state.results = append(state.results, report.StageResult{
			Stage:  stage,
			Status: types.StageStatus_PENDING,
			Issues: []types.Issue{},
		})
	}
	return state
}

// Result returns the record of stage.
func (s *RunState) Result(stage types.Stage) *report.StageResult {
	for i := range s.results {
		if s.results[i].Stage == stage {
			return &s.results[i]
		}
	}
	return nil
}

func (s *RunState) record(stage types.Stage, status types.StageStatus, issues ...types.Issue) {
	result := s.Result(stage)
	for _, issue := range issues {
		issue.Stage = stage
		result.Issues = append(result.Issues, issue)
	}
	result.Status = status
}

func (s *RunState) skip(stage types.Stage) {
	s.Result(stage).Status = types.StageStatus_SKIPPED
}

func statusOf(issues []types.Issue) types.StageStatus {
	if len(issues) == 0 {
		return types.StageStatus_PASSED
	}
	return types.StageStatus_FAILED
}
