package types

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// StatementKind is the category of a statement as decided by its leading keywords.
type StatementKind int32

const (
	StatementKind_UNKNOWN             StatementKind = 0
	StatementKind_CREATE_TABLE        StatementKind = 1
	StatementKind_ALTER_TABLE         StatementKind = 2
	StatementKind_CREATE_INDEX        StatementKind = 3
	StatementKind_CREATE_UNIQUE_INDEX StatementKind = 4
	StatementKind_DROP                StatementKind = 5
	StatementKind_DROP_INDEX          StatementKind = 6
	StatementKind_SELECT              StatementKind = 7
	StatementKind_UPDATE              StatementKind = 8
	StatementKind_DELETE              StatementKind = 9
)

var statementKindNames = map[StatementKind]string{
	StatementKind_UNKNOWN:             "UNKNOWN",
	StatementKind_CREATE_TABLE:        "CREATE_TABLE",
	StatementKind_ALTER_TABLE:         "ALTER_TABLE",
	StatementKind_CREATE_INDEX:        "CREATE_INDEX",
	StatementKind_CREATE_UNIQUE_INDEX: "CREATE_UNIQUE_INDEX",
	StatementKind_DROP:                "DROP",
	StatementKind_DROP_INDEX:          "DROP_INDEX",
	StatementKind_SELECT:              "SELECT",
	StatementKind_UPDATE:              "UPDATE",
	StatementKind_DELETE:              "DELETE",
}

func (k StatementKind) String() string {
	if name, ok := statementKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsDML reports whether the kind is one of the DML kinds checked for column references.
func (k StatementKind) IsDML() bool {
	return k == StatementKind_SELECT || k == StatementKind_UPDATE || k == StatementKind_DELETE
}

func (k StatementKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k StatementKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler for StatementKind
func (k *StatementKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for kind, name := range statementKindNames {
		if strings.EqualFold(name, s) {
			*k = kind
			return nil
		}
	}
	return errors.Errorf("unknown statement kind %q", s)
}

// Severity is the severity of an issue.
type Severity int32

const (
	Severity_SEVERITY_UNSPECIFIED Severity = 0
	Severity_WARNING              Severity = 1
	Severity_ERROR                Severity = 2
)

func (s Severity) String() string {
	switch s {
	case Severity_WARNING:
		return "WARNING"
	case Severity_ERROR:
		return "ERROR"
	default:
		return "SEVERITY_UNSPECIFIED"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Severity
func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	return s.parse(str)
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return s.parse(str)
}

func (s *Severity) parse(str string) error {
	switch strings.ToUpper(str) {
	case "WARNING", "WARN":
		*s = Severity_WARNING
	case "ERROR":
		*s = Severity_ERROR
	default:
		return errors.Errorf("unknown severity %q", str)
	}
	return nil
}

// Stage is one step of the validation pipeline.
type Stage int32

const (
	Stage_SYNTAX      Stage = 0
	Stage_STANDARDS   Stage = 1
	Stage_CONN_TEST   Stage = 2
	Stage_SCHEMA      Stage = 3
	Stage_PERFORMANCE Stage = 4
	Stage_SAFETY      Stage = 5
	Stage_REPORT      Stage = 6
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	Stage_SYNTAX,
	Stage_STANDARDS,
	Stage_CONN_TEST,
	Stage_SCHEMA,
	Stage_PERFORMANCE,
	Stage_SAFETY,
	Stage_REPORT,
}

func (s Stage) String() string {
	switch s {
	case Stage_SYNTAX:
		return "SYNTAX"
	case Stage_STANDARDS:
		return "STANDARDS"
	case Stage_CONN_TEST:
		return "CONN_TEST"
	case Stage_SCHEMA:
		return "SCHEMA"
	case Stage_PERFORMANCE:
		return "PERFORMANCE"
	case Stage_SAFETY:
		return "SAFETY"
	case Stage_REPORT:
		return "REPORT"
	default:
		return "UNKNOWN"
	}
}

// RequiresDatabase reports whether the stage talks to the target database.
func (s Stage) RequiresDatabase() bool {
	return s == Stage_CONN_TEST || s == Stage_SCHEMA
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Stage) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// StageStatus is the outcome of a single stage.
type StageStatus int32

const (
	StageStatus_PENDING StageStatus = 0
	StageStatus_PASSED  StageStatus = 1
	StageStatus_FAILED  StageStatus = 2
	StageStatus_SKIPPED StageStatus = 3
	StageStatus_ERROR   StageStatus = 4
)

func (s StageStatus) String() string {
	switch s {
	case StageStatus_PASSED:
		return "PASSED"
	case StageStatus_FAILED:
		return "FAILED"
	case StageStatus_SKIPPED:
		return "SKIPPED"
	case StageStatus_ERROR:
		return "ERROR"
	default:
		return "PENDING"
	}
}

func (s StageStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s StageStatus) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
