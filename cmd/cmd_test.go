package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("BRAINFORGE_MODELS", filepath.Join(dir, "models"))
	t.Setenv("BRAINFORGE_MANIFEST", filepath.Join(dir, "manifest.sqlite"))
	return dir
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()

	cli := NewCLI()
	cli.SetArgs(args)
	return cli.ExecuteContext(context.Background())
}

func TestCreateSchreibtArtefakte(t *testing.T) {
	dir := setupEnv(t)

	require.NoError(t, runCLI(t, "create", "--seed", "7"))

	for _, name := range []string{"decision", "embedder"} {
		_, err := os.Stat(filepath.Join(dir, "models", name+".ngf"))
		assert.NoError(t, err, "Artefakt %s fehlt", name)
	}
}

func TestCreateUndVerifyMitSmoke(t *testing.T) {
	setupEnv(t)

	require.NoError(t, runCLI(t, "create", "embedder"))
	require.NoError(t, runCLI(t, "verify", "embedder", "--smoke"))
}

func TestVerifyOhneBuildSchlaegtFehl(t *testing.T) {
	setupEnv(t)

	err := runCLI(t, "verify", "decision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never built")
}

func TestCreateUnbekanntesModell(t *testing.T) {
	setupEnv(t)

	err := runCLI(t, "create", "decison")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "decision"`)
}

func TestDeleteEntferntArtefakt(t *testing.T) {
	dir := setupEnv(t)

	require.NoError(t, runCLI(t, "create", "decision"))
	require.NoError(t, runCLI(t, "delete", "decision"))

	_, err := os.Stat(filepath.Join(dir, "models", "decision.ngf"))
	assert.True(t, os.IsNotExist(err))

	err = runCLI(t, "verify", "decision")
	require.Error(t, err)
}
