package items

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
)

const codeStyle = "monokai"

// Code is a syntax highlighted snippet.
type Code struct {
	rendered
	language string
}

// Lexer returns the lexer for filename, or nil when the language is not
// known.
func Lexer(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil || lexer.Config().Name == "plaintext" {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// NewCode highlights code using the lexer picked from filename. Unknown
// languages are rendered as plain text.
func NewCode(filename, code string) (*Code, error) {
	code = strings.TrimRight(code, "\n")
	lexer := Lexer(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenise %s: %w", filename, err)
	}
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get(codeStyle)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return nil, fmt.Errorf("failed to highlight %s: %w", filename, err)
	}
	return &Code{
		rendered: newRendered(code, trimEmptyTail(buf.String())),
		language: lexer.Config().Name,
	}, nil
}

// trimEmptyTail drops trailing lines that hold nothing but escape
// sequences, such as the final reset emitted by terminal formatters.
func trimEmptyTail(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 1 && ansi.Strip(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Language returns the name of the lexer used.
func (c *Code) Language() string {
	return c.language
}
