// Package compiler turns a Riff program into a native executable by
// generating a small Go main package around riff.Main and building it with
// the Go toolchain.
package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

// RuntimeModule is the module path generated programs import.
const RuntimeModule = "github.com/sambeau/riff"

var mainTemplate = template.Must(template.New("main").Parse(`// Code generated by rc. DO NOT EDIT.
// Source: {{.Name}}

package main

import "{{.Module}}/pkg/riff/riff"

const source = {{printf "%q" .Source}}

func main() {
	riff.Main(source)
}
`))

var modTemplate = template.Must(template.New("gomod").Parse(`module riffprog/{{.Stem}}

go 1.24

require {{.Module}} {{.Version}}
{{if .Runtime}}
replace {{.Module}} => {{.Runtime}}
{{end}}`))

// GenerateMain returns the gofmt'd source of a main package that runs source.
// name is recorded in the header comment only.
func GenerateMain(name, source string) ([]byte, error) {
	var buf bytes.Buffer
	err := mainTemplate.Execute(&buf, map[string]string{
		"Name":   name,
		"Module": RuntimeModule,
		"Source": source,
	})
	if err != nil {
		return nil, fmt.Errorf("generating main: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated main: %w", err)
	}
	return out, nil
}

// GenerateGoMod returns a go.mod requiring the runtime module at version. A
// non-empty runtime adds a replace directive pointing at that directory, and
// version then defaults to v0.0.0.
func GenerateGoMod(stem, version, runtime string) []byte {
	if version == "" {
		version = "v0.0.0"
	}
	var buf bytes.Buffer
	modTemplate.Execute(&buf, map[string]string{
		"Stem":    ModuleStem(stem),
		"Module":  RuntimeModule,
		"Version": version,
		"Runtime": filepath.ToSlash(runtime),
	})
	return buf.Bytes()
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ModuleStem makes stem usable as a module path element.
func ModuleStem(stem string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "program"
	}
	return sb.String()
}
