// Package pkg provides pre-deployment validation of MySQL DDL statements for Go applications.
//
// A statement runs through a fixed pipeline of stages:
//
//	SYNTAX -> STANDARDS -> CONN_TEST -> SCHEMA -> PERFORMANCE -> SAFETY -> REPORT
//
// Every stage appends issues to the run, and the REPORT stage aggregates them
// into a single verdict. Schema checks run against a live database when a
// cursor is supplied and are skipped otherwise.
//
// # Package Structure
//
// The pkg directory contains several specialized packages:
//
//   - reviewer: High-level API running the pipeline (recommended starting point)
//   - rules: Syntax, standards, performance and safety checks
//   - validator: Schema checks of DDL against the live catalog
//   - dml: Column resolution for SELECT, UPDATE and DELETE statements
//   - catalog: Cursor abstraction and cached schema introspection
//   - db: MySQL connection pool and cursor
//   - secrets: Database credentials from AWS Secrets Manager
//   - advisor: Advisory (LLM) client and standards knowledge search
//   - report: Report aggregation, rendering and archiving
//   - statement: Statement classification and target extraction
//   - mysqlparser: ANTLR-based MySQL script splitting and parsing
//   - config: Configuration loading and defaults
//   - logger: Logging setup
//   - types: Core type definitions
//
// # Getting Started
//
//	import (
//	    "github.com/nsxbet/ddl-validator/pkg/report"
//	    "github.com/nsxbet/ddl-validator/pkg/reviewer"
//	)
//
//	func main() {
//	    r := reviewer.New()
//	    rep := r.Validate(context.Background(), reviewer.ValidationRequest{
//	        Statement: "CREATE TABLE users (id INT PRIMARY KEY);",
//	    })
//	    report.Render(os.Stdout, report.FormatText, []*report.Report{rep})
//	}
//
// # Schema Validation
//
// Pass a catalog.Cursor to check the statement against the target database:
//
//	pool, _ := db.Open(ctx, dsn, 10*time.Second)
//	cursor, _ := db.NewCursor(ctx, pool, 30*time.Second)
//	rep := r.Validate(ctx, reviewer.ValidationRequest{Statement: ddl, Cursor: cursor})
//
// A connection failure is reported as a ConnectionFailure warning and the
// remaining database stages are skipped. Performance and safety checks still run.
//
// # Error Handling
//
// Validate never returns an error. Failures inside a stage, panics included,
// are recorded as StageExecutionError issues on that stage, so a report is
// always produced.
//
// # Documentation
//
// Examples: examples/library-usage/
package pkg
