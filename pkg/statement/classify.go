// Package statement classifies SQL statements and extracts the object names
// the schema checks need.
package statement

import (
	"strings"

	"github.com/nsxbet/ddl-validator/pkg/mysqlparser"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// ddlPrefixes is checked in order; CREATE UNIQUE INDEX must win over CREATE INDEX
// and DROP INDEX over the bare DROP family.
var ddlPrefixes = []struct {
	words []string
	kind  types.StatementKind
}{
	{[]string{"CREATE", "TABLE"}, types.StatementKind_CREATE_TABLE},
	{[]string{"ALTER", "TABLE"}, types.StatementKind_ALTER_TABLE},
	{[]string{"CREATE", "UNIQUE", "INDEX"}, types.StatementKind_CREATE_UNIQUE_INDEX},
	{[]string{"CREATE", "INDEX"}, types.StatementKind_CREATE_INDEX},
	{[]string{"DROP", "INDEX"}, types.StatementKind_DROP_INDEX},
	{[]string{"DROP"}, types.StatementKind_DROP},
}

var dmlKeywords = map[string]types.StatementKind{
	"SELECT":  types.StatementKind_SELECT,
	"UPDATE":  types.StatementKind_UPDATE,
	"DELETE":  types.StatementKind_DELETE,
	"INSERT":  types.StatementKind_UNKNOWN,
	"REPLACE": types.StatementKind_UNKNOWN,
	"MERGE":   types.StatementKind_UNKNOWN,
}

// Classify returns the kind of a single statement from its leading keywords.
// Statements that are not DDL are classified by their first DML keyword.
func Classify(text string) types.StatementKind {
	words := leadingWords(text, 3)
	for _, prefix := range ddlPrefixes {
		if hasPrefix(words, prefix.words) {
			return prefix.kind
		}
	}
	return DMLKind(text)
}

// DMLKind returns SELECT, UPDATE or DELETE for the first DML keyword token of
// text, and UNKNOWN for anything else, including INSERT.
func DMLKind(text string) types.StatementKind {
	// Tokens recovered before a lexer error still classify.
	tokens, _ := mysqlparser.Tokenize(text)
	for _, token := range tokens {
		if !token.Word {
			continue
		}
		if kind, ok := dmlKeywords[strings.ToUpper(token.Text)]; ok {
			return kind
		}
	}
	return types.StatementKind_UNKNOWN
}

func leadingWords(text string, n int) []string {
	var words []string
	tokens, _ := mysqlparser.Tokenize(text)
	for _, token := range tokens {
		if !token.Word {
			return words
		}
		words = append(words, strings.ToUpper(token.Text))
		if len(words) == n {
			return words
		}
	}
	return words
}

func hasPrefix(words, prefix []string) bool {
	if len(words) < len(prefix) {
		return false
	}
	for i, w := range prefix {
		if words[i] != w {
			return false
		}
	}
	return true
}
