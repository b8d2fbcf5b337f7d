package statement

import (
	"regexp"
	"strings"

	"github.com/nsxbet/ddl-validator/pkg/mysqlparser"
)

// ident matches an optionally schema qualified, optionally back-quoted name and
// captures the unqualified name.
const ident = "(?:`?[\\w$]+`?\\s*\\.\\s*)?`?([\\w$]+)`?"

// parenList captures a parenthesized list allowing one level of nesting, e.g. name(10).
const parenList = `\(((?:[^()]|\([^()]*\))*)\)`

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(IF\s+NOT\s+EXISTS\s+)?` + ident)
	alterTableRe  = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+` + ident)
	createIndexRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:UNIQUE\s+)?INDEX\s+` + ident + `\s+ON\s+` + ident + `\s*` + parenList)
	dropTableRe   = regexp.MustCompile(`(?is)^\s*DROP\s+(?:TEMPORARY\s+)?TABLE\s+(IF\s+EXISTS\s+)?` + ident)
	dropIndexRe   = regexp.MustCompile(`(?is)^\s*DROP\s+INDEX\s+` + ident + `\s+ON\s+` + ident)
	foreignKeyRe  = regexp.MustCompile(`(?is)FOREIGN\s+KEY[^(]*` + parenList + `\s*REFERENCES\s+` + ident + `(?:\s*` + parenList + `)?`)

	addColumnRe    = regexp.MustCompile(`(?is)\bADD\s+(COLUMN\s+)?(?:IF\s+NOT\s+EXISTS\s+)?` + "`?([\\w$]+)`?")
	dropColumnRe   = regexp.MustCompile(`(?is)\bDROP\s+(COLUMN\s+)?(?:IF\s+EXISTS\s+)?` + "`?([\\w$]+)`?")
	modifyColumnRe = regexp.MustCompile(`(?is)\b(MODIFY|CHANGE)\s+(COLUMN\s+)?` + "`?([\\w$]+)`?")
	varcharRe      = regexp.MustCompile(`(?i)VARCHAR\s*\(`)
	varcharLenRe   = regexp.MustCompile(`(?i)^VARCHAR\s*\(\s*\d+\s*\)`)
)

// Words that follow ADD/DROP in an ALTER TABLE without naming a column.
var nonColumnWords = map[string]bool{
	"INDEX": true, "KEY": true, "UNIQUE": true, "PRIMARY": true, "CONSTRAINT": true,
	"FOREIGN": true, "FULLTEXT": true, "SPATIAL": true, "PARTITION": true, "CHECK": true,
	"DEFAULT": true, "COLUMN": true, "IF": true,
}

// CreateTable is the target of a CREATE TABLE statement.
type CreateTable struct {
	Table       string
	IfNotExists bool
	ForeignKeys []ForeignKey
}

// ForeignKey is a FOREIGN KEY ... REFERENCES clause.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// CreateIndex is the target of a CREATE [UNIQUE] INDEX statement.
type CreateIndex struct {
	Index   string
	Table   string
	Columns []string
}

// DropTable is the target of a DROP TABLE statement.
type DropTable struct {
	Table    string
	IfExists bool
}

// DropIndex is the target of a DROP INDEX statement.
type DropIndex struct {
	Index string
	Table string
}

// ColumnAction is one column level action of an ALTER TABLE statement.
type ColumnAction struct {
	// Action is ADD, DROP, MODIFY or CHANGE.
	Action string
	Column string
}

// AlterTable is the target of an ALTER TABLE statement.
type AlterTable struct {
	Table   string
	Actions []ColumnAction
}

// ParseCreateTable extracts the table and foreign keys of a CREATE TABLE statement.
func ParseCreateTable(text string) (*CreateTable, bool) {
	text = mysqlparser.BlankLiterals(text)
	m := createTableRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	result := &CreateTable{
		Table:       m[2],
		IfNotExists: m[1] != "",
	}
	for _, fk := range foreignKeyRe.FindAllStringSubmatch(text, -1) {
		result.ForeignKeys = append(result.ForeignKeys, ForeignKey{
			Columns:    SplitColumnList(fk[1]),
			RefTable:   fk[2],
			RefColumns: SplitColumnList(fk[3]),
		})
	}
	return result, true
}

// ParseAlterTable extracts the table and column actions of an ALTER TABLE statement.
// Words inside string literals and comments never count as actions.
func ParseAlterTable(text string) (*AlterTable, bool) {
	text = mysqlparser.BlankLiterals(text)
	m := alterTableRe.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, false
	}
	result := &AlterTable{Table: text[m[2]:m[3]]}
	body := text[m[1]:]

	for _, a := range addColumnRe.FindAllStringSubmatch(body, -1) {
		if a[1] == "" && nonColumnWords[strings.ToUpper(a[2])] {
			continue
		}
		result.Actions = append(result.Actions, ColumnAction{Action: "ADD", Column: a[2]})
	}
	for _, d := range dropColumnRe.FindAllStringSubmatch(body, -1) {
		if d[1] == "" && nonColumnWords[strings.ToUpper(d[2])] {
			continue
		}
		result.Actions = append(result.Actions, ColumnAction{Action: "DROP", Column: d[2]})
	}
	for _, c := range modifyColumnRe.FindAllStringSubmatch(body, -1) {
		result.Actions = append(result.Actions, ColumnAction{Action: strings.ToUpper(c[1]), Column: c[3]})
	}
	return result, true
}

// ParseCreateIndex extracts the index, table and column list of a CREATE [UNIQUE] INDEX statement.
func ParseCreateIndex(text string) (*CreateIndex, bool) {
	m := createIndexRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &CreateIndex{
		Index:   m[1],
		Table:   m[2],
		Columns: SplitColumnList(m[3]),
	}, true
}

// ParseDropTable extracts the table of a DROP TABLE statement.
func ParseDropTable(text string) (*DropTable, bool) {
	m := dropTableRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &DropTable{Table: m[2], IfExists: m[1] != ""}, true
}

// IsDropTable reports whether a DROP family statement drops a table.
func IsDropTable(text string) bool {
	words := leadingWords(text, 3)
	return hasPrefix(words, []string{"DROP", "TABLE"}) || hasPrefix(words, []string{"DROP", "TEMPORARY", "TABLE"})
}

// ParseDropIndex extracts the index and table of a DROP INDEX statement.
func ParseDropIndex(text string) (*DropIndex, bool) {
	m := dropIndexRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &DropIndex{Index: m[1], Table: m[2]}, true
}

// TargetTable returns the table a DDL statement operates on, or "" if it cannot be found.
func TargetTable(text string) string {
	if ct, ok := ParseCreateTable(text); ok {
		return ct.Table
	}
	if at, ok := ParseAlterTable(text); ok {
		return at.Table
	}
	if ci, ok := ParseCreateIndex(text); ok {
		return ci.Table
	}
	if di, ok := ParseDropIndex(text); ok {
		return di.Table
	}
	if dt, ok := ParseDropTable(text); ok {
		return dt.Table
	}
	return ""
}

// SplitColumnList splits an index or key column list into plain column names.
// Prefix lengths and ASC/DESC are dropped; expression parts are skipped.
func SplitColumnList(list string) []string {
	var columns []string
	depth := 0
	start := 0
	flush := func(part string) {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "(") {
			return
		}
		if i := strings.IndexAny(part, "( \t\n"); i >= 0 {
			part = part[:i]
		}
		columns = append(columns, strings.Trim(part, "`"))
	}
	for i, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				flush(list[start:i])
				start = i + 1
			}
		}
	}
	flush(list[start:])
	return columns
}

// CountColumnListItems counts the top level items of a parenthesized column list,
// expression parts included.
func CountColumnListItems(list string) int {
	if strings.TrimSpace(list) == "" {
		return 0
	}
	count, depth := 1, 0
	for _, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// IndexColumnList returns the raw column list of a CREATE INDEX statement.
func IndexColumnList(text string) (string, bool) {
	m := createIndexRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[3], true
}

// HasUnsizedVarchar reports whether some VARCHAR( is not followed by a length.
func HasUnsizedVarchar(text string) bool {
	for _, loc := range varcharRe.FindAllStringIndex(text, -1) {
		if !varcharLenRe.MatchString(text[loc[0]:]) {
			return true
		}
	}
	return false
}
