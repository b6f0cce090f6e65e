package repl

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sambeau/riff/pkg/riff/evaluator"
)

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"1 > .", false},
		{"*3{", true},
		{"*3{ _ > .", true},
		{"*3{ _ > . }", false},
		{"*2{\n  ?_=1{\n", true},
		{"*2{\n  ?_=1{ 1 > . }\n}", false},
		{",[1, 2", true},
		{",[1, 2]", false},
		{`"{" > .`, false},
		{`"[" > s; *2{`, true},
		{"@ {\n1 > .", false},
		{"} extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := needsMoreInput(tt.input); got != tt.expected {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSessionKeepsState(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)

	s.eval("10 > count;")
	s.eval("5+>count;")
	s.eval("count > .")

	if out.String() != "15\n" {
		t.Errorf("output = %q, want %q", out.String(), "15\n")
	}
}

func TestSessionReportsErrorsAndContinues(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)

	s.eval("1/0 > .")
	s.eval("}")
	s.eval("2 > .")

	got := out.String()
	if !strings.Contains(got, "Runtime error in <repl>: line 1, column 1") {
		t.Errorf("missing runtime error in %q", got)
	}
	if !strings.Contains(got, "<repl>:1:1: error: unmatched '}'") {
		t.Errorf("missing structural error in %q", got)
	}
	if !strings.HasSuffix(got, "2\n") {
		t.Errorf("session did not continue after errors: %q", got)
	}
}

func TestHandleReplCommand(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out)
	s.eval(`5 > b; "hi" > a; ,[1,"x"] > c;`)

	out.Reset()
	if !handleReplCommand(":env", s) {
		t.Fatal(":env not handled")
	}
	want := "  a: TEXT = \"hi\"\n  b: INTEGER = 5\n  c: LIST = ,[1,\"x\"]\n"
	if out.String() != want {
		t.Errorf(":env output = %q, want %q", out.String(), want)
	}

	out.Reset()
	handleReplCommand(":clear", s)
	if s.env.Len() != 0 {
		t.Errorf("after :clear Len() = %d", s.env.Len())
	}
	out.Reset()
	handleReplCommand(":env", s)
	if out.String() != "(no variables)\n" {
		t.Errorf(":env after clear = %q", out.String())
	}

	out.Reset()
	s.eval("7 > .")
	if out.String() != "7\n" {
		t.Errorf("output after :clear = %q, logger lost", out.String())
	}

	out.Reset()
	if handleReplCommand(":nope", s) {
		t.Error(":nope reported as handled")
	}
	if !strings.Contains(out.String(), "Unknown command: :nope") {
		t.Errorf("unknown command output = %q", out.String())
	}

	out.Reset()
	handleReplCommand(":help", s)
	if !strings.Contains(out.String(), ":env") {
		t.Errorf(":help output = %q", out.String())
	}
}

func TestPrintEnvironmentTruncates(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"short", "héllo", `"héllo"`},
		{"long ascii", strings.Repeat("a", 70), `"` + strings.Repeat("a", 56) + "..."},
		{"wide runes", strings.Repeat("日", 40), `"` + strings.Repeat("日", 28) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := evaluator.NewEnvironment()
			env.Set("v", &evaluator.Text{Value: tt.value})

			var out bytes.Buffer
			printEnvironment(env, &out)

			got := out.String()
			if !utf8.ValidString(got) {
				t.Fatalf("output is not valid UTF-8: %q", got)
			}
			if want := "  v: TEXT = " + tt.want + "\n"; got != want {
				t.Errorf("output = %q, want %q", got, want)
			}
		})
	}
}

func TestFilterCompletions(t *testing.T) {
	names := []string{"count", "total"}
	tests := []struct {
		line     string
		expected []string
	}{
		{"", nil},
		{"1 > ", nil},
		{"$", []string{"$s[", "$l["}},
		{"1 > co", []string{"1 > count"}},
		{"!", []string{"!?", "!!"}},
		{"count", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := filterCompletions(tt.line, names)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("filterCompletions(%q) = %q, want %q", tt.line, got, tt.expected)
			}
		})
	}
}
