package types

// IssueKind identifies the rule that produced an issue.
type IssueKind string

const (
	IssueKindMissingTerminator        IssueKind = "MissingTerminator"
	IssueKindUnspecifiedVarcharLength IssueKind = "UnspecifiedVarcharLength"
	IssueKindAdvisorySyntaxError      IssueKind = "AdvisorySyntaxError"
	IssueKindParseError               IssueKind = "ParseError"
	IssueKindStandardsViolation       IssueKind = "StandardsViolation"

	IssueKindTableMissing            IssueKind = "TableMissing"
	IssueKindTableAlreadyExists      IssueKind = "TableAlreadyExists"
	IssueKindTableReferenced         IssueKind = "TableReferenced"
	IssueKindForeignKeyTargetMissing IssueKind = "ForeignKeyTargetMissing"
	IssueKindForeignKeyColumnMissing IssueKind = "ForeignKeyColumnMissing"
	IssueKindIndexAlreadyExists      IssueKind = "IndexAlreadyExists"
	IssueKindIndexMissing            IssueKind = "IndexMissing"
	IssueKindColumnAlreadyExists     IssueKind = "ColumnAlreadyExists"
	IssueKindColumnMissing           IssueKind = "ColumnMissing"
	IssueKindTargetUnparsable        IssueKind = "TargetUnparsable"
	IssueKindMissingColumn           IssueKind = "MissingColumn"

	IssueKindDataLossRisk             IssueKind = "DataLossRisk"
	IssueKindExcessiveLobColumns      IssueKind = "ExcessiveLobColumns"
	IssueKindWideCompositeIndex       IssueKind = "WideCompositeIndex"
	IssueKindMissingIndexOnForeignKey IssueKind = "MissingIndexOnForeignKey"
	IssueKindColumnRewriteCost        IssueKind = "ColumnRewriteCost"
	IssueKindCascadeMissing           IssueKind = "CascadeMissing"

	IssueKindStageExecutionError IssueKind = "StageExecutionError"
	IssueKindConnectionFailure   IssueKind = "ConnectionFailure"
)

// Issue is a single finding produced by a pipeline stage.
type Issue struct {
	Kind     IssueKind `json:"kind" yaml:"kind"`
	Severity Severity  `json:"severity" yaml:"severity"`
	Message  string    `json:"message" yaml:"message"`
	Table    string    `json:"table,omitempty" yaml:"table,omitempty"`
	Column   string    `json:"column,omitempty" yaml:"column,omitempty"`
	// Fragment is the statement excerpt the issue refers to, if any.
	Fragment string `json:"fragment,omitempty" yaml:"fragment,omitempty"`
	Stage    Stage  `json:"stage" yaml:"stage"`
	// Advisory marks issues sourced from the external advisory service.
	// They are not reproducible across runs.
	Advisory      bool      `json:"advisory,omitempty" yaml:"advisory,omitempty"`
	StartPosition *Position `json:"startPosition,omitempty" yaml:"startPosition,omitempty"`
}

// Position is a zero based line/column location in the statement text.
type Position struct {
	Line   int32 `json:"line" yaml:"line"`
	Column int32 `json:"column" yaml:"column"`
}
