package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLatestCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	_, err := run(t, "latest")
	assert.Error(t, err)

	want := filepath.Join(dir, "offers_harvested_20261019_101010.csv")
	require.NoError(t, os.WriteFile(want, []byte("source\n"), 0o644))

	out, err := run(t, "latest")
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(out))
}

func TestGenerateFailsClosedWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := run(t, "generate", "--provider", "openai", "write", "a", "headline")
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = run(t, "generate", "--provider", "gemini", "hi")
	assert.ErrorContains(t, err, "GOOGLE_API_KEY")
}

func TestGenerateRequiresPrompt(t *testing.T) {
	_, err := run(t, "generate")
	assert.Error(t, err)
}

func TestHarvestRejectsUnknownFormat(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	_, err := run(t, "harvest", "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported output format")
}
