// Package validator checks DDL statements against the live schema.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// SchemaValidator runs the SCHEMA stage checks for one statement.
//
// Only connection failures are returned as errors. Every other lookup failure
// has already degraded to "not found" inside the introspector.
type SchemaValidator struct {
	catalog *catalog.Introspector
	logger  *slog.Logger
}

// New creates a SchemaValidator over introspector.
func New(introspector *catalog.Introspector, logger *slog.Logger) *SchemaValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaValidator{catalog: introspector, logger: logger}
}

// Validate returns the schema issues of text, classified as kind.
func (v *SchemaValidator) Validate(ctx context.Context, kind types.StatementKind, text string) ([]types.Issue, error) {
	var (
		issues []types.Issue
		err    error
	)
	switch kind {
	case types.StatementKind_CREATE_TABLE:
		issues, err = v.createTable(ctx, text)
	case types.StatementKind_ALTER_TABLE:
		issues, err = v.alterTable(ctx, text)
	case types.StatementKind_CREATE_INDEX, types.StatementKind_CREATE_UNIQUE_INDEX:
		issues, err = v.createIndex(ctx, text)
	case types.StatementKind_DROP:
		issues, err = v.dropTable(ctx, text)
	case types.StatementKind_DROP_INDEX:
		issues, err = v.dropIndex(ctx, text)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "schema check of %s failed", kind)
	}
	for i := range issues {
		issues[i].Stage = types.Stage_SCHEMA
	}
	return issues, nil
}

func (v *SchemaValidator) createTable(ctx context.Context, text string) ([]types.Issue, error) {
	ct, ok := statement.ParseCreateTable(text)
	if !ok {
		return unparsable(types.StatementKind_CREATE_TABLE), nil
	}

	var issues []types.Issue
	exists, err := v.catalog.TableExists(ctx, ct.Table)
	if err != nil {
		return nil, err
	}
	if exists {
		msg := fmt.Sprintf("Table `%s` already exists; use CREATE TABLE IF NOT EXISTS", ct.Table)
		if ct.IfNotExists {
			msg = fmt.Sprintf("Table `%s` already exists; the statement is a no-op", ct.Table)
		}
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindTableAlreadyExists,
			Severity: types.Severity_WARNING,
			Message:  msg,
			Table:    ct.Table,
		})
	}

	for _, fk := range ct.ForeignKeys {
		if strings.EqualFold(fk.RefTable, ct.Table) {
			continue
		}
		found, err := v.catalog.TableExists(ctx, fk.RefTable)
		if err != nil {
			return nil, err
		}
		if !found {
			issues = append(issues, types.Issue{
				Kind:     types.IssueKindForeignKeyTargetMissing,
				Severity: types.Severity_ERROR,
				Message:  fmt.Sprintf("Foreign key references missing table `%s`", fk.RefTable),
				Table:    fk.RefTable,
			})
			continue
		}
		columns, err := v.catalog.Columns(ctx, fk.RefTable)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}
		for _, column := range fk.RefColumns {
			if !columns.Has(column) {
				issues = append(issues, types.Issue{
					Kind:     types.IssueKindForeignKeyColumnMissing,
					Severity: types.Severity_ERROR,
					Message:  fmt.Sprintf("Foreign key references missing column `%s`.`%s`", fk.RefTable, column),
					Table:    fk.RefTable,
					Column:   column,
				})
			}
		}
	}
	return issues, nil
}

func (v *SchemaValidator) alterTable(ctx context.Context, text string) ([]types.Issue, error) {
	at, ok := statement.ParseAlterTable(text)
	if !ok {
		return unparsable(types.StatementKind_ALTER_TABLE), nil
	}

	exists, err := v.catalog.TableExists(ctx, at.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []types.Issue{tableMissing(at.Table, types.Severity_ERROR, fmt.Sprintf("Table `%s` does not exist", at.Table))}, nil
	}
	if len(at.Actions) == 0 {
		return nil, nil
	}

	columns, err := v.catalog.Columns(ctx, at.Table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		v.logger.Debug("no column metadata, skipping column checks", "table", at.Table)
		return nil, nil
	}

	var issues []types.Issue
	for _, action := range at.Actions {
		switch action.Action {
		case "ADD":
			if columns.Has(action.Column) {
				issues = append(issues, types.Issue{
					Kind:     types.IssueKindColumnAlreadyExists,
					Severity: types.Severity_ERROR,
					Message:  fmt.Sprintf("Column `%s`.`%s` already exists", at.Table, action.Column),
					Table:    at.Table,
					Column:   action.Column,
				})
			}
		default:
			if !columns.Has(action.Column) {
				issues = append(issues, types.Issue{
					Kind:     types.IssueKindColumnMissing,
					Severity: types.Severity_ERROR,
					Message:  fmt.Sprintf("%s of missing column `%s`.`%s`", action.Action, at.Table, action.Column),
					Table:    at.Table,
					Column:   action.Column,
				})
			}
		}
	}
	return issues, nil
}

func (v *SchemaValidator) createIndex(ctx context.Context, text string) ([]types.Issue, error) {
	ci, ok := statement.ParseCreateIndex(text)
	if !ok {
		return unparsable(types.StatementKind_CREATE_INDEX), nil
	}

	exists, err := v.catalog.TableExists(ctx, ci.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []types.Issue{tableMissing(ci.Table, types.Severity_ERROR, fmt.Sprintf("Cannot create index on missing table `%s`", ci.Table))}, nil
	}

	var issues []types.Issue
	indexExists, err := v.catalog.IndexExists(ctx, ci.Table, ci.Index)
	if err != nil {
		return nil, err
	}
	if indexExists {
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindIndexAlreadyExists,
			Severity: types.Severity_ERROR,
			Message:  fmt.Sprintf("Index `%s` already exists on `%s`", ci.Index, ci.Table),
			Table:    ci.Table,
		})
	}

	columns, err := v.catalog.Columns(ctx, ci.Table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return issues, nil
	}
	for _, column := range ci.Columns {
		if !columns.Has(column) {
			issues = append(issues, types.Issue{
				Kind:     types.IssueKindColumnMissing,
				Severity: types.Severity_ERROR,
				Message:  fmt.Sprintf("Indexed column `%s`.`%s` does not exist", ci.Table, column),
				Table:    ci.Table,
				Column:   column,
			})
		}
	}
	return issues, nil
}

func (v *SchemaValidator) dropTable(ctx context.Context, text string) ([]types.Issue, error) {
	if !statement.IsDropTable(text) {
		v.logger.Debug("not a table drop, skipping schema checks")
		return nil, nil
	}
	dt, ok := statement.ParseDropTable(text)
	if !ok {
		return unparsable(types.StatementKind_DROP), nil
	}

	exists, err := v.catalog.TableExists(ctx, dt.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		if dt.IfExists {
			return nil, nil
		}
		return []types.Issue{tableMissing(dt.Table, types.Severity_WARNING,
			fmt.Sprintf("Table `%s` is already absent; use DROP TABLE IF EXISTS", dt.Table))}, nil
	}

	var issues []types.Issue
	rows, err := v.catalog.RowCount(ctx, dt.Table)
	if err != nil {
		return nil, err
	}
	if rows > 0 {
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindDataLossRisk,
			Severity: types.Severity_ERROR,
			Message:  fmt.Sprintf("Table `%s` holds %d rows that will be lost", dt.Table, rows),
			Table:    dt.Table,
		})
	}

	referencing, err := v.catalog.ReferencingTables(ctx, dt.Table)
	if err != nil {
		return nil, err
	}
	if len(referencing) > 0 {
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindTableReferenced,
			Severity: types.Severity_ERROR,
			Message:  fmt.Sprintf("Table `%s` is referenced by foreign keys of %s", dt.Table, strings.Join(referencing, ", ")),
			Table:    dt.Table,
		})
	}
	return issues, nil
}

func (v *SchemaValidator) dropIndex(ctx context.Context, text string) ([]types.Issue, error) {
	di, ok := statement.ParseDropIndex(text)
	if !ok {
		return unparsable(types.StatementKind_DROP_INDEX), nil
	}

	exists, err := v.catalog.TableExists(ctx, di.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []types.Issue{tableMissing(di.Table, types.Severity_ERROR, fmt.Sprintf("Table `%s` does not exist", di.Table))}, nil
	}
	indexExists, err := v.catalog.IndexExists(ctx, di.Table, di.Index)
	if err != nil {
		return nil, err
	}
	if indexExists {
		return nil, nil
	}
	return []types.Issue{{
		Kind:     types.IssueKindIndexMissing,
		Severity: types.Severity_ERROR,
		Message:  fmt.Sprintf("Index `%s` does not exist on `%s`", di.Index, di.Table),
		Table:    di.Table,
	}}, nil
}

func tableMissing(table string, severity types.Severity, msg string) types.Issue {
	return types.Issue{
		Kind:     types.IssueKindTableMissing,
		Severity: severity,
		Message:  msg,
		Table:    table,
	}
}

func unparsable(kind types.StatementKind) []types.Issue {
	return []types.Issue{{
		Kind:     types.IssueKindTargetUnparsable,
		Severity: types.Severity_ERROR,
		Message:  fmt.Sprintf("Could not extract the target name of the %s statement", kind),
	}}
}
