package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/filterplay/diag"
)

func run(t *testing.T, fsys hackpadfs.FS, configure func(*cli), args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	c := newCLI(&out, fsys)
	if configure != nil {
		configure(c)
	}
	cmd := newRootCommand(c)
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func memFS(t *testing.T) hackpadfs.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	return fsys
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand(newCLI(&bytes.Buffer{}, memFS(t)))
	assert.Equal(t, "filterplay", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
	assert.NotNil(t, cmd.PersistentFlags().ShorthandLookup("o"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"new", "compile", "watch", "describe", "export"}, names)
}

func TestNewAndDescribe(t *testing.T) {
	fsys := memFS(t)
	out, err := run(t, fsys, nil, "new", "blur", "--type", "metal")
	require.NoError(t, err)
	assert.Contains(t, out, "Created metal project blur")

	out, err = run(t, fsys, nil, "describe", "blur", "-o", "json")
	require.NoError(t, err)
	var d description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "blur", d.Name)
	assert.Equal(t, "metal", d.Language)
	require.Len(t, d.Arguments, 3)
	assert.Equal(t, "gid", d.Arguments[2].Name)
	assert.Len(t, d.InputImages, 1)

	out, err = run(t, fsys, nil, "describe", "blur")
	require.NoError(t, err)
	var y map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &y))
	assert.Equal(t, "metal", y["type"])

	_, err = run(t, fsys, nil, "describe", "blur", "-o", "xml")
	assert.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := run(t, memFS(t), nil, "new", "x", "--type", "opengl")
	assert.Error(t, err)
}

func TestCompileExternalToolchain(t *testing.T) {
	fsys := memFS(t)
	_, err := run(t, fsys, nil, "new", "k", "--type", "metal")
	require.NoError(t, err)

	failing := func(c *cli) {
		c.settings.Metal.Command = `sh -c 'echo "{src}:3:5: error: use of undeclared identifier" 1>&2; exit 1'`
	}
	out, err := run(t, fsys, failing, "compile", "k")
	assert.ErrorIs(t, err, errCompileFailed)
	assert.Contains(t, out, "3:5 error: use of undeclared identifier")
	assert.Contains(t, out, "Failed! 1 error")

	out, err = run(t, fsys, failing, "compile", "k", "-o", "json")
	assert.ErrorIs(t, err, errCompileFailed)
	var v resultView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "failed", v.Status)
	assert.Equal(t, []diagnosticView{{Line: 3, Column: 5, Type: "error", Message: "use of undeclared identifier"}}, v.Diagnostics)

	passing := func(c *cli) { c.settings.Metal.Command = `sh -c 'cp {src} {out}'` }
	out, err = run(t, fsys, passing, "compile", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled! 0 warnings")

	out, err = run(t, fsys, passing, "export", "k", "--lang", "binary")
	require.NoError(t, err)
	assert.Contains(t, out, "kernel void untitled(")

	_, err = run(t, fsys, passing, "export", "k", "--lang", "glsl")
	assert.Error(t, err)
}

func TestFormatDiagnostic(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "2:4 warning: unused", formatDiagnostic(diag.Compile(2, 4, diag.SeverityWarning, "unused")))
	assert.Equal(t, "- error: Unknown error. Please check your code.", formatDiagnostic(diag.UnknownError()))
	assert.Equal(t, "1 error", pluralize(1, "error"))
	assert.Equal(t, "3 warnings", pluralize(3, "warning"))
}
