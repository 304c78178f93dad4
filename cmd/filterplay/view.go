package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hack-pad/hackpadfs"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/filterplay/diag"
)

var (
	success = color.New(color.FgGreen, color.Bold).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	caution = color.New(color.FgYellow, color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

type diagnosticView struct {
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

type resultView struct {
	Status      string           `json:"status" yaml:"status"`
	Diagnostics []diagnosticView `json:"diagnostics" yaml:"diagnostics"`
}

func newResultView(r diag.Result) resultView {
	v := resultView{Status: r.String(), Diagnostics: []diagnosticView{}}
	for _, e := range r.Diagnostics() {
		v.Diagnostics = append(v.Diagnostics, diagnosticView{
			Line:    e.LineNumber,
			Column:  e.CharacterIndex,
			Type:    string(e.Type),
			Message: e.Message,
		})
	}
	return v
}

// renderResult prints r in the selected output format.
func (c *cli) renderResult(r diag.Result) error {
	switch c.output {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(newResultView(r))
	case "yaml":
		return yaml.NewEncoder(c.out).Encode(newResultView(r))
	case "":
	default:
		return fmt.Errorf("invalid output format %q", c.output)
	}

	for _, e := range r.Diagnostics() {
		fmt.Fprintln(c.out, formatDiagnostic(e))
	}
	if r.Succeeded() {
		fmt.Fprintln(c.out, success("Compiled!"), pluralize(len(r.Warnings()), "warning"))
	} else {
		fmt.Fprintln(c.out, failure("Failed!"), pluralize(len(r.Errors()), "error"))
	}
	return nil
}

func formatDiagnostic(e diag.KernelError) string {
	label := string(e.Type)
	switch {
	case e.IsWarning():
		label = caution(label)
	case strings.EqualFold(label, string(diag.SeverityNote)):
		label = faint(label)
	default:
		label = failure(label)
	}
	loc := "-"
	if e.HasLocation() {
		loc = fmt.Sprintf("%d:%d", e.LineNumber, e.CharacterIndex)
	}
	return fmt.Sprintf("%s %s: %s", faint(loc), label, e.Message)
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func writeFile(fsys hackpadfs.FS, name string, data []byte) error {
	return hackpadfs.WriteFullFile(fsys, name, data, 0o644)
}
