package dml

import (
	"regexp"
	"strings"
)

// TableRef is one table a statement reads or writes, with its alias if any.
type TableRef struct {
	Table string
	Alias string
}

// ColumnRef is one qualifier.column reference as written.
type ColumnRef struct {
	Qualifier string
	Column    string
}

// Extractor pulls table and column references out of one DML statement.
type Extractor interface {
	Tables(text string) []TableRef
	Columns(text string) []ColumnRef
}

// RegexExtractor is the default Extractor. It does not understand nested
// scopes: a subquery's aliases share the statement's alias map.
type RegexExtractor struct{}

var _ Extractor = RegexExtractor{}

var (
	tableRefRe  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|UPDATE)\s+(?:[\w$]+\s*\.\s*)?([\w$]+)`)
	aliasRe     = regexp.MustCompile(`(?i)^\s+(?:AS\s+)?([\w$]+)`)
	columnRefRe = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\s*\.\s*(\*|[\w$]+)`)
	literalRe   = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'|"(?:[^"\\]|\\.|"")*"`)
)

// Words that can follow a table reference without being its alias.
var reservedAfterTable = map[string]bool{
	"WHERE": true, "SET": true, "ON": true, "USING": true, "JOIN": true, "INNER": true,
	"LEFT": true, "RIGHT": true, "OUTER": true, "CROSS": true, "NATURAL": true, "STRAIGHT_JOIN": true,
	"GROUP": true, "ORDER": true, "HAVING": true, "LIMIT": true, "UNION": true, "WINDOW": true,
	"FOR": true, "LOCK": true, "INTO": true, "PARTITION": true, "FORCE": true, "USE": true,
	"IGNORE": true, "LOW_PRIORITY": true, "QUICK": true, "AS": true, "SELECT": true, "VALUES": true,
}

// Tables implements Extractor.
func (RegexExtractor) Tables(text string) []TableRef {
	text = normalize(text)
	var refs []TableRef
	for _, loc := range tableRefRe.FindAllStringSubmatchIndex(text, -1) {
		table := text[loc[2]:loc[3]]
		if reservedAfterTable[strings.ToUpper(table)] {
			continue
		}
		ref := TableRef{Table: strings.ToLower(table)}
		// Peek at the alias so a following JOIN still starts its own match.
		if m := aliasRe.FindStringSubmatch(text[loc[1]:]); m != nil && !reservedAfterTable[strings.ToUpper(m[1])] {
			ref.Alias = strings.ToLower(m[1])
		}
		refs = append(refs, ref)
	}
	return refs
}

// Columns implements Extractor.
func (RegexExtractor) Columns(text string) []ColumnRef {
	var refs []ColumnRef
	for _, m := range columnRefRe.FindAllStringSubmatch(normalize(text), -1) {
		refs = append(refs, ColumnRef{
			Qualifier: strings.ToLower(m[1]),
			Column:    strings.ToLower(m[2]),
		})
	}
	return refs
}

// normalize blanks string literals and removes identifier quotes.
func normalize(text string) string {
	text = literalRe.ReplaceAllString(text, "''")
	return strings.ReplaceAll(text, "`", "")
}
