package validator

import (
	stderrors "errors"
	"testing"

	"github.com/sambeau/riff/pkg/riff/errors"
)

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain statement", "1 + 2 > .;"},
		{"nested blocks", "*3{ ?_=1{ \"one\" > . } !!{ _ > . } }"},
		{"list literal", ",[1, 2, ,[3]] > L; L[0] > ."},
		{"braces inside comment", "@ } ] { [\n1 > ."},
		{"balanced across lines", "*2{\n  *2{\n    _ > .\n  }\n}\n"},
		{"interleaved kinds", "{[}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.input, "test.riff"); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     string
		line     int
		column   int
		wantHint string
	}{
		{"lone closing brace", "} ", "SYNTAX-0001", 1, 1, "Unexpected closing brace"},
		{"lone closing bracket", "1 > a;\n  ]", "SYNTAX-0002", 2, 3, "Unexpected closing bracket"},
		{"one unmatched opener", "{ { } ", "SYNTAX-0003", 1, 1, "Opening brace at line 1 never closed"},
		{"innermost unclosed brace", "*2{\n  ?1{\n", "SYNTAX-0003", 2, 5, "Opening brace at line 2 never closed"},
		{"unclosed bracket", "x[0 > .", "SYNTAX-0004", 1, 2, "Opening bracket at line 1 never closed"},
		{"braces reported before brackets", "[ {", "SYNTAX-0003", 1, 3, "Opening brace at line 1 never closed"},
		{"closer after comment line", "@ {\n}", "SYNTAX-0001", 2, 1, "Unexpected closing brace"},
		{"brace in string still counts", "\"}\" > .", "SYNTAX-0001", 1, 2, "Unexpected closing brace"},
		{"unicode column", "\"é\" } ", "SYNTAX-0001", 1, 5, "Unexpected closing brace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input, "test.riff")
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tt.input)
			}
			var re *errors.RiffError
			if !stderrors.As(err, &re) {
				t.Fatalf("error is %T, want *errors.RiffError", err)
			}
			if re.Code != tt.code {
				t.Errorf("Code = %s, want %s", re.Code, tt.code)
			}
			if re.Line != tt.line || re.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", re.Line, re.Column, tt.line, tt.column)
			}
			if !re.IsSyntaxError() {
				t.Errorf("Class = %s, want syntax", re.Class)
			}
			if re.File != "test.riff" {
				t.Errorf("File = %q, want test.riff", re.File)
			}
			if len(re.Hints) != 1 || re.Hints[0] != tt.wantHint {
				t.Errorf("Hints = %v, want [%s]", re.Hints, tt.wantHint)
			}
		})
	}
}

func TestValidatePrettyString(t *testing.T) {
	err := Validate("1 > a;\n}", "prog.riff")
	var re *errors.RiffError
	if !stderrors.As(err, &re) {
		t.Fatalf("error is %T", err)
	}
	want := "prog.riff:2:1: error: unmatched '}'\n  Unexpected closing brace"
	if got := re.PrettyString(); got != want {
		t.Errorf("PrettyString() = %q, want %q", got, want)
	}
}

func TestValidateWithoutFilename(t *testing.T) {
	err := Validate("{", "")
	var re *errors.RiffError
	if !stderrors.As(err, &re) {
		t.Fatalf("error is %T", err)
	}
	if re.File != "" {
		t.Errorf("File = %q, want empty", re.File)
	}
}
