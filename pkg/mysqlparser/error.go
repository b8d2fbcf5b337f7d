package mysqlparser

import (
	"fmt"

	"github.com/antlr4-go/antlr/v4"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

// SyntaxError is a lexer or parser error with its zero based position.
type SyntaxError struct {
	Position   *types.Position
	Message    string
	RawMessage string
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	return e.Message
}

// ParseErrorListener keeps the first error reported by the lexer or parser.
// Ambiguity reports fall through to the embedded no-op listener.
type ParseErrorListener struct {
	*antlr.DefaultErrorListener
	BaseLine  int
	Err       *SyntaxError
	Statement string
}

// SyntaxError records the error if none was recorded yet.
func (l *ParseErrorListener) SyntaxError(
	_ antlr.Recognizer,
	offendingSymbol any,
	line, column int,
	message string,
	_ antlr.RecognitionException,
) {
	if l.Err != nil {
		return
	}

	near := ""
	if token, ok := offendingSymbol.(*antlr.CommonToken); ok && token.GetTokenType() != antlr.TokenEOF {
		near = fmt.Sprintf(" near %q", token.GetText())
	}

	// antlr lines are one based.
	line = line - 1 + l.BaseLine
	l.Err = &SyntaxError{
		Position: &types.Position{
			Line:   int32(line),
			Column: int32(column),
		},
		RawMessage: message,
		Message:    fmt.Sprintf("syntax error at line %d:%d%s: %s", line+1, column, near, message),
	}
}
