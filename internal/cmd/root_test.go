package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/goodread/internal/validation"
)

const (
	validReadme   = "# Package\n```starlark goodread\nx = 2\nx + 1 // 3\n```\n"
	invalidReadme = "# Package\n```starlark goodread\nx = 2\nx + 1 // 99\ny = 1\n```\n"
)

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "goodread [paths...]", cmd.Use)

	for _, name := range []string{"edit", "sync", "exit-first"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "e", cmd.Flags().Lookup("edit").Shorthand)
	assert.Equal(t, "s", cmd.Flags().Lookup("sync").Shorthand)
	assert.Equal(t, "x", cmd.Flags().Lookup("exit-first").Shorthand)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "history")
}

func TestHelpOutput(t *testing.T) {
	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "goodread")
	assert.Contains(t, stdout, "--exit-first")
}

func TestRunValidDocument(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", validReadme)

	stdout, _, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), readme)
	require.NoError(t, err)

	assert.Contains(t, stdout, " #  Package")
	assert.Contains(t, stdout, " ✔️  x + 1 // 3")
	assert.Contains(t, stdout, "Package: 2/2")
	assert.NotContains(t, stdout, "\x1b[", "buffers are never colorized")
}

func TestRunInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", invalidReadme)

	stdout, _, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), readme)
	require.ErrorIs(t, err, ErrInvalidDocuments)

	assert.Contains(t, stdout, " ❌  x + 1 // 99\nError: x + 1 != 99")
	assert.Contains(t, stdout, " ➖  y = 1")
	assert.Contains(t, stdout, "Package: 1/3")
}

func TestRunExitFirst(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", invalidReadme)

	stdout, _, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), "-x", readme)

	var halt *validation.HaltError
	require.True(t, errors.As(err, &halt), "err = %v", err)
	assert.Equal(t, readme, halt.Path)
	assert.Contains(t, stdout, "Scope (current execution scope):\n[x]")
	assert.NotContains(t, stdout, "Package: ", "no summary after a halt")
}

func TestRunUsesConfiguredDocuments(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.md", validReadme)
	second := writeFile(t, dir, "docs/b.md", strings.Replace(validReadme, "Package", "Guide", 1))
	configPath := writeFile(t, dir, "goodread.yml", "documents:\n  - "+first+"\n  - main: "+second+"\n")

	stdout, _, err := execute(t, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Package: 2/2")
	assert.Contains(t, stdout, "Guide: 2/2")
	assert.Less(t, strings.Index(stdout, "Package: 2/2"), strings.Index(stdout, "Guide: 2/2"))
}

func TestRunDirectoryArgument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/a.md", validReadme)
	writeFile(t, dir, "docs/b.md", strings.Replace(validReadme, "Package", "Guide", 1))

	stdout, _, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), filepath.Join(dir, "docs"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Package: 2/2")
	assert.Contains(t, stdout, "Guide: 2/2")
}

func TestRunConfigErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("entry without main", func(t *testing.T) {
		configPath := writeFile(t, dir, "missing-main.yml", "documents:\n  - edit: x.md\n")
		_, _, err := execute(t, "--config", configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing 'main'")
	})

	t.Run("invalid log level flag", func(t *testing.T) {
		_, _, err := execute(t, "--config", filepath.Join(dir, "absent.yml"), "--log-level", "loud", "README.md")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_level")
	})

	t.Run("edit and sync together", func(t *testing.T) {
		_, _, err := execute(t, "--config", filepath.Join(dir, "absent.yml"), "-e", "-s")
		assert.Error(t, err)
	})
}

func TestRunMissingDocument(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), filepath.Join(dir, "nope.md"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidDocuments))
}

func TestRunDebugLogging(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", "```starlark goodread\nprint(\"hi\")\n```\n")

	_, stderr, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), "--log-level", "debug", readme)
	require.NoError(t, err)
	assert.Contains(t, stderr, "[DEBUG] print: hi")
	assert.Contains(t, stderr, "tested 1 document, 0 invalid")
}

func TestRunLintWarning(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", "# Package\n```starlark goodread\nx = 1\n")

	_, stderr, err := execute(t, "--config", filepath.Join(dir, "goodread.yml"), readme)
	require.NoError(t, err)
	assert.Contains(t, stderr, "fence is never closed")
}

func TestRunWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	readme := writeFile(t, dir, "README.md", validReadme)
	logDir := filepath.Join(dir, "logs")
	configPath := writeFile(t, dir, "goodread.yml", "log_dir: "+logDir+"\n")

	_, _, err := execute(t, "--config", configPath, readme)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(logDir, "latest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "REPORT "+readme+": valid passed=2")
}

func TestRunSync(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "README.md", "stale\n")
	upstream := writeFile(t, dir, "upstream.md", validReadme)
	configPath := writeFile(t, dir, "goodread.yml", "documents:\n  - main: "+main+"\n    sync: "+upstream+"\n")

	_, _, err := execute(t, "--config", configPath, "--sync")
	require.NoError(t, err)

	got, err := os.ReadFile(main)
	require.NoError(t, err)
	assert.Equal(t, validReadme, string(got))
}

func TestRunSyncInvalid(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "README.md", "stale\n")
	upstream := writeFile(t, dir, "upstream.md", invalidReadme)
	configPath := writeFile(t, dir, "goodread.yml", "documents:\n  - main: "+main+"\n    sync: "+upstream+"\n")

	_, _, err := execute(t, "--config", configPath, "-s")
	require.ErrorIs(t, err, ErrInvalidDocuments)

	got, err := os.ReadFile(main)
	require.NoError(t, err)
	assert.Equal(t, "stale\n", string(got))
}

func TestRunEditOutOfSync(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "README.md", "local\n")
	upstream := writeFile(t, dir, "upstream.md", "remote\n")
	configPath := writeFile(t, dir, "goodread.yml",
		"documents:\n  - main: "+main+"\n    edit: https://example.com/edit\n    sync: "+upstream+"\n")

	_, _, err := execute(t, "--config", configPath, "--edit")
	require.Error(t, err)
	assert.Equal(t, "document 'https://example.com/edit' is out of sync", err.Error())
}
