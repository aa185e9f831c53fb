package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	code = execute(root, args)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWrapsSections(t *testing.T) {
	path := writeFile(t, "guide.md", "# Guide\n\nIntro.\n\n## Install\n\nSteps.\n")

	code, out, errOut := runCLI(t, "", "run", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `<section id="install" class="doc-section" data-section-level="1">`)
	assert.Contains(t, errOut, "guide.md")
}

func TestRunWritesOutputFile(t *testing.T) {
	path := writeFile(t, "a.html", "<h1>A</h1><h2>B</h2>")
	dest := filepath.Join(t.TempDir(), "out.html")

	code, out, _ := runCLI(t, "", "run", "--toc", "--toc-selector", "body", "-o", dest, path)
	require.Equal(t, 0, code)
	assert.Empty(t, out)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(written), `<ul class="nest-contents nest-contents--h1">`)
}

func TestValidateExitStatus(t *testing.T) {
	good := writeFile(t, "good.html", "<h1>A</h1><h2>B</h2>")
	bad := writeFile(t, "bad.html", "<h1>A</h1><h4>B</h4>")

	code, out, errOut := runCLI(t, "", "validate", good, bad)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "good.html")
	assert.Contains(t, errOut, "Nonconsecutive heading level used (h1 → h4).")

	code, _, _ = runCLI(t, "", "validate", good)
	assert.Equal(t, 0, code)
}

func TestTocFromStdin(t *testing.T) {
	code, out, errOut := runCLI(t, "<h1>A</h1><h2>B</h2><h3>C</h3><h2>D</h2>", "toc", "-")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, `<ul class="nest-contents nest-contents--h1">`), out)
	assert.Contains(t, out, `<a href="#d" class="nest-contents__link">D</a>`)
	assert.NotContains(t, out, "<section")
}

func TestJSONReport(t *testing.T) {
	code, out, _ := runCLI(t, "## Low start\n", "--json", "--format", "md", "run", "-")
	assert.Equal(t, 1, code)

	var report struct {
		File   string `json:"file"`
		Result struct {
			WellStructured bool `json:"well_structured"`
			Diagnostics    []struct {
				Kind string `json:"kind"`
			} `json:"diagnostics"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "stdin.md", report.File)
	assert.False(t, report.Result.WellStructured)
	require.Len(t, report.Result.Diagnostics, 1)
	assert.Equal(t, "first_not_top_level", report.Result.Diagnostics[0].Kind)
}

func TestUsageErrors(t *testing.T) {
	code, _, errOut := runCLI(t, "", "run", "/does/not/exist.html")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "error:")

	code, _, _ = runCLI(t, "", "--start-level", "8", "validate", writeFile(t, "a.html", "<h1>a</h1>"))
	assert.Equal(t, 2, code)
}
