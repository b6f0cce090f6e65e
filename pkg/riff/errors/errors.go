// Package errors provides structured error types for the Riff language.
//
// This package defines RiffError, a single error type that represents both
// structural errors found by the validator and runtime errors raised while a
// program executes. Messages come from a code catalog so that tools can match
// on codes instead of message text.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassSyntax     ErrorClass = "syntax"     // Unbalanced braces/brackets (validator)
	ClassMacro      ErrorClass = "macro"      // Malformed or unknown macros
	ClassType       ErrorClass = "type"       // Operation on the wrong kind of value
	ClassFormat     ErrorClass = "format"     // Literals and expression characters
	ClassBlock      ErrorClass = "block"      // Loop/condition headers and block bodies
	ClassStatement  ErrorClass = "statement"  // Send statements
	ClassArithmetic ErrorClass = "arithmetic" // Postfix evaluation
)

// RiffError represents any error from validation or execution.
type RiffError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based line (0 if unknown)
	Column  int            `json:"column"` // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RiffError) Error() string {
	return e.String()
}

// String returns a single-line representation of the error.
func (e *RiffError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns the user-facing diagnostic. Structural errors use the
// compiler-style "file:line:col: error:" prefix, runtime errors are headed
// with "Runtime error".
func (e *RiffError) PrettyString() string {
	var sb strings.Builder

	if e.Class == ClassSyntax {
		file := e.File
		if file == "" {
			file = "<input>"
		}
		sb.WriteString(fmt.Sprintf("%s:%d:%d: error: %s", file, e.Line, e.Column, e.Message))
		for _, hint := range e.Hints {
			sb.WriteString("\n  ")
			sb.WriteString(hint)
		}
		return sb.String()
	}

	sb.WriteString("Runtime error")
	switch {
	case e.File != "" && e.Line > 0:
		sb.WriteString(fmt.Sprintf(" in %s: line %d, column %d", e.File, e.Line, e.Column))
	case e.Line > 0:
		sb.WriteString(fmt.Sprintf(": line %d, column %d", e.Line, e.Column))
	case e.File != "":
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	sb.WriteString("\n  ")
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  hint: ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *RiffError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *RiffError) WithFile(file string) *RiffError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *RiffError) WithPosition(line, column int) *RiffError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// InExpression returns a copy of the error whose message names the
// expression being evaluated.
func (e *RiffError) InExpression(expr string) *RiffError {
	copy := *e
	copy.Message = fmt.Sprintf("In expression '%s': %s", expr, e.Message)
	return &copy
}

// IsSyntaxError returns true for structural errors reported by the validator.
func (e *RiffError) IsSyntaxError() bool {
	return e.Class == ClassSyntax
}

// IsRuntimeError returns true for errors raised during execution.
func (e *RiffError) IsRuntimeError() bool {
	return e.Class != ClassSyntax
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Structural errors (SYNTAX-0xxx)
	"SYNTAX-0001": {
		Class:    ClassSyntax,
		Template: "unmatched '}'",
		Hints:    []string{"Unexpected closing brace"},
	},
	"SYNTAX-0002": {
		Class:    ClassSyntax,
		Template: "unmatched ']'",
		Hints:    []string{"Unexpected closing bracket"},
	},
	"SYNTAX-0003": {
		Class:    ClassSyntax,
		Template: "unmatched '{'",
		Hints:    []string{"Opening brace at line {{.OpenLine}} never closed"},
	},
	"SYNTAX-0004": {
		Class:    ClassSyntax,
		Template: "unmatched '['",
		Hints:    []string{"Opening bracket at line {{.OpenLine}} never closed"},
	},

	// Macros (MACRO-0xxx)
	"MACRO-0001": {
		Class:    ClassMacro,
		Template: "Macro expression '{{.Expr}}' missing opening bracket '['",
	},
	"MACRO-0002": {
		Class:    ClassMacro,
		Template: "Macro ${{.Name}}[...] missing closing bracket ']'",
	},
	"MACRO-0003": {
		Class:    ClassMacro,
		Template: "Unknown macro: ${{.Name}} (line with expression: {{.Expr}})",
	},

	// Value kinds (TYPE-0xxx)
	"TYPE-0001": {
		Class:    ClassType,
		Template: "Cannot sum string '{{.Value}}': not a valid number",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "Cannot get length of integer '{{.Value}}'",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "Unsupported augmented op '{{.Op}}' on types {{.Left}} and {{.Right}}",
		Hints:    []string{"only integer op integer, list + integer and text + integer can be augmented"},
	},

	// Literals and expression text (FORMAT-0xxx)
	"FORMAT-0001": {
		Class:    ClassFormat,
		Template: "Invalid list element '{{.Element}}': expected integer or quoted string",
	},
	"FORMAT-0002": {
		Class:    ClassFormat,
		Template: "Invalid list literal '{{.Expr}}': expected format: ,[ item, item, ... ]",
	},
	"FORMAT-0003": {
		Class:    ClassFormat,
		Template: "Unexpected character '{{.Char}}' in expression at position {{.Pos}}",
	},
	"FORMAT-0004": {
		Class:    ClassFormat,
		Template: "unterminated string",
	},
	"FORMAT-0005": {
		Class:    ClassFormat,
		Template: "Failed to parse number '{{.Literal}}'",
	},
	"FORMAT-0006": {
		Class:    ClassFormat,
		Template: "Unclosed '[' in variable indexing for '{{.Name}}'",
	},

	// Blocks and control flow (BLOCK-0xxx)
	"BLOCK-0001": {
		Class:    ClassBlock,
		Template: "Expected '{' after loop count",
	},
	"BLOCK-0002": {
		Class:    ClassBlock,
		Template: "Expected '{' after while condition",
	},
	"BLOCK-0003": {
		Class:    ClassBlock,
		Template: "Expected '{' after if condition",
	},
	"BLOCK-0004": {
		Class:    ClassBlock,
		Template: "unmatched '{' at line {{.OpenLine}}, never closed (current line: {{.CurrentLine}})",
	},

	// Send statements (STMT-0xxx)
	"STMT-0001": {
		Class:    ClassStatement,
		Template: "No '>' operator found in statement: {{.Statement}}",
	},
	"STMT-0002": {
		Class:    ClassStatement,
		Template: "Invalid statement: {{.Statement}}",
	},

	// Postfix evaluation (EVAL-0xxx)
	"EVAL-0001": {
		Class:    ClassArithmetic,
		Template: "Division by zero",
	},
	"EVAL-0002": {
		Class:    ClassArithmetic,
		Template: "Modulo by zero",
	},
	"EVAL-0003": {
		Class:    ClassArithmetic,
		Template: "Evaluation error: not enough operands for operator '{{.Op}}'",
	},
	"EVAL-0004": {
		Class:    ClassArithmetic,
		Template: "Evaluation error: empty expression result",
	},
	"EVAL-0005": {
		Class:    ClassArithmetic,
		Template: "Unknown operator: '{{.Op}}'",
	},
}

// New creates a RiffError from the catalog.
func New(code string, data map[string]any) *RiffError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &RiffError{
			Class:   ClassStatement,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &RiffError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a RiffError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *RiffError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// FindClosestMatch returns the candidate that best matches input, or "" when
// nothing is close. Candidates containing input as a subsequence win;
// otherwise a candidate within two edits is accepted.
func FindClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(input, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", -1
	for _, candidate := range candidates {
		dist := levenshteinDistance(strings.ToLower(input), strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			best, bestDistance = candidate, dist
		}
	}
	if bestDistance <= 0 || bestDistance > 2 {
		return ""
	}
	return best
}

// NewUnknownMacro creates an unknown-macro error. available maps macro names
// to a one-word description used both for matching and for the hint.
func NewUnknownMacro(name, expr string, available map[string]string) *RiffError {
	err := New("MACRO-0003", map[string]any{"Name": name, "Expr": expr})

	names := make([]string, 0, len(available))
	for n := range available {
		names = append(names, n)
	}
	sort.Strings(names)

	descriptions := make([]string, 0, len(names))
	byDescription := make(map[string]string, len(names))
	for _, n := range names {
		descriptions = append(descriptions, available[n])
		byDescription[available[n]] = n
	}

	if match := FindClosestMatch(name, descriptions); match != "" {
		err.Hints = append(err.Hints, fmt.Sprintf("Did you mean `$%s` (%s)?", byDescription[match], match))
		return err
	}

	listed := make([]string, 0, len(names))
	for _, n := range names {
		listed = append(listed, fmt.Sprintf("$%s (%s)", n, available[n]))
	}
	err.Hints = append(err.Hints, "available macros: "+strings.Join(listed, ", "))
	return err
}
