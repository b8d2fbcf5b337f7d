// Package reviewer runs the DDL validation pipeline.
//
// A statement goes through SYNTAX, STANDARDS, CONN_TEST, SCHEMA, PERFORMANCE
// and SAFETY in that order, and REPORT always runs last. A statement with a
// syntax error skips straight to REPORT.
//
// # Quick Start
//
//	pool, err := db.Open(ctx, dsn, 10*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cursor, err := db.NewCursor(ctx, pool, 30*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cursor.Close()
//
//	r := reviewer.New()
//	rep := r.Validate(ctx, reviewer.ValidationRequest{
//	    Statement: "DROP TABLE users;",
//	    Cursor:    cursor,
//	})
//	fmt.Println(rep.OverallStatus, rep.Summary)
//
// Without a cursor the CONN_TEST and SCHEMA stages are skipped.
package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/config"
	"github.com/nsxbet/ddl-validator/pkg/db"
	"github.com/nsxbet/ddl-validator/pkg/dml"
	"github.com/nsxbet/ddl-validator/pkg/logger"
	"github.com/nsxbet/ddl-validator/pkg/mysqlparser"
	"github.com/nsxbet/ddl-validator/pkg/report"
	"github.com/nsxbet/ddl-validator/pkg/rules"
	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
	"github.com/nsxbet/ddl-validator/pkg/validator"
)

// Reviewer validates statements. It holds no per-run state and is safe for
// concurrent use as long as every request brings its own cursor.
type Reviewer struct {
	config            *config.Config
	advisory          advisor.Client
	knowledge         advisor.KnowledgeSearch
	extractor         dml.Extractor
	logger            *slog.Logger
	isConnectionError func(error) bool
}

// ValidationRequest is one statement to validate.
type ValidationRequest struct {
	Statement string
	// Cursor is exclusive to this request. Nil skips CONN_TEST and SCHEMA.
	Cursor catalog.Cursor
	// Database names the target in the report. When empty the current
	// database reported by CONN_TEST is used.
	Database string
}

// New creates a Reviewer with the default configuration.
func New(opts ...Option) *Reviewer {
	r := &Reviewer{
		config:            config.DefaultConfig("default"),
		extractor:         dml.RegexExtractor{},
		logger:            slog.Default(),
		isConnectionError: db.IsConnectionError,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate runs the pipeline over one statement. It never fails: stage
// errors and panics end up as issues of the returned report.
func (r *Reviewer) Validate(ctx context.Context, req ValidationRequest) *report.Report {
	text := strings.TrimSpace(req.Statement)
	if stripped, err := mysqlparser.StripComments(req.Statement); err == nil && strings.TrimSpace(stripped) != "" {
		text = strings.TrimSpace(stripped)
	}

	state := newRunState(strings.TrimSpace(req.Statement), text, types.Stages)
	state.Kind = statement.Classify(text)
	state.Database = req.Database
	if !state.Kind.IsDML() {
		state.Table = statement.TargetTable(text)
	}
	if req.Cursor != nil {
		state.catalog = catalog.NewIntrospector(req.Cursor, r.logger, catalog.WithConnectionErrorClassifier(r.isConnectionError))
	}

	r.logger.Debug("validating statement", "kind", state.Kind, "table", state.Table)
	for _, stage := range types.Stages {
		if stage == types.Stage_REPORT {
			break
		}
		if reason := r.skipReason(stage, state, req.Cursor == nil); reason != "" {
			r.logger.Debug("stage skipped", "stage", stage, "reason", reason)
			state.skip(stage)
			continue
		}
		r.runStage(ctx, stage, state)
	}

	state.record(types.Stage_REPORT, types.StageStatus_PASSED)
	return report.Aggregate(report.Input{
		Kind:              state.Kind,
		Table:             state.Table,
		Database:          state.Database,
		Statement:         state.Statement,
		SyntaxValid:       state.SyntaxValid,
		StandardCompliant: state.StandardCompliant,
		Stages:            state.results,
	})
}

// ValidateScript splits script into statements and validates each of them
// with the same cursor, one after another.
func (r *Reviewer) ValidateScript(ctx context.Context, script string, cursor catalog.Cursor, database string) ([]*report.Report, error) {
	list, err := mysqlparser.SplitSQL(script)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split script")
	}
	var reports []*report.Report
	for _, sql := range list {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		reports = append(reports, r.Validate(ctx, ValidationRequest{
			Statement: sql.Text,
			Cursor:    cursor,
			Database:  database,
		}))
	}
	return reports, nil
}

func (r *Reviewer) skipReason(stage types.Stage, state *RunState, noCursor bool) string {
	if stage != types.Stage_SYNTAX && !state.SyntaxValid {
		return "syntax invalid"
	}
	if stage.RequiresDatabase() {
		if noCursor {
			return "no database cursor"
		}
		if state.ConnectionLost {
			return "connection lost"
		}
	}
	return ""
}

// runStage executes one stage and records its outcome. Panics are recovered
// and recorded like errors.
func (r *Reviewer) runStage(ctx context.Context, stage types.Stage, state *RunState) {
	var (
		issues []types.Issue
		err    error
	)
	func() {
		defer func() {
			if panicErr := recover(); panicErr != nil {
				perr, ok := panicErr.(error)
				if !ok {
					perr = errors.Errorf("%v", panicErr)
				}
				err = errors.Errorf("stage %s PANIC RECOVER: %v", stage, perr)
				r.logger.Error("stage PANIC RECOVER", "stage", stage, logger.Error(perr), logger.Stack(string(debug.Stack())))
			}
		}()
		issues, err = r.execute(ctx, stage, state)
	}()

	if err == nil {
		state.record(stage, statusOf(issues), issues...)
		return
	}

	if stage.RequiresDatabase() && r.isConnectionError(err) {
		r.logger.Warn("database connection failed, skipping database checks", "stage", stage, logger.Error(err))
		state.ConnectionLost = true
		state.record(stage, types.StageStatus_ERROR, append(issues, types.Issue{
			Kind:     types.IssueKindConnectionFailure,
			Severity: types.Severity_WARNING,
			Message:  fmt.Sprintf("Database connection failed during %s; schema checks were skipped: %v", stage, err),
		})...)
		return
	}

	r.logger.Error("stage failed", "stage", stage, logger.Error(err))
	if stage == types.Stage_SYNTAX {
		state.SyntaxValid = false
	}
	if stage == types.Stage_STANDARDS {
		state.StandardCompliant = false
	}
	state.record(stage, types.StageStatus_ERROR, append(issues, types.Issue{
		Kind:     types.IssueKindStageExecutionError,
		Severity: types.Severity_ERROR,
		Message:  fmt.Sprintf("%s stage failed: %v", stage, err),
	})...)
}

func (r *Reviewer) execute(ctx context.Context, stage types.Stage, state *RunState) ([]types.Issue, error) {
	switch stage {
	case types.Stage_SYNTAX:
		checker := rules.NewSyntaxChecker(r.advisory, r.config.Syntax.ParserCheck, r.logger)
		result := checker.Check(ctx, state.Kind, state.Text)
		state.SyntaxValid = result.Valid
		return result.Issues, nil

	case types.Stage_STANDARDS:
		checker := rules.NewStandardsChecker(r.config.Standards, r.knowledge, r.advisory, r.logger)
		issues, err := checker.Check(ctx, state.Kind, state.Text)
		state.StandardCompliant = err == nil && len(issues) == 0
		return issues, err

	case types.Stage_CONN_TEST:
		version, database, err := state.catalog.ServerInfo(ctx)
		if err != nil {
			return nil, err
		}
		state.ServerVersion = version
		if state.Database == "" {
			state.Database = database
		}
		r.logger.Debug("connected", "version", version, "database", database)
		return nil, nil

	case types.Stage_SCHEMA:
		if state.Kind.IsDML() {
			resolver := dml.NewResolver(state.catalog, dml.WithExtractor(r.extractor), dml.WithLogger(r.logger))
			return resolver.ValidateStatement(ctx, state.Kind, state.Text)
		}
		return validator.New(state.catalog, r.logger).Validate(ctx, state.Kind, state.Text)

	case types.Stage_PERFORMANCE:
		return rules.CheckPerformance(state.Kind, state.Text, r.limits()), nil

	case types.Stage_SAFETY:
		return rules.CheckSafety(state.Kind, state.Text), nil

	default:
		return nil, errors.Errorf("unknown stage %s", stage)
	}
}

func (r *Reviewer) limits() rules.Limits {
	limits := rules.DefaultLimits()
	if n := r.config.Performance.MaxLobColumns; n > 0 {
		limits.MaxLobColumns = n
	}
	if n := r.config.Performance.MaxIndexColumns; n > 0 {
		limits.MaxIndexColumns = n
	}
	return limits
}
