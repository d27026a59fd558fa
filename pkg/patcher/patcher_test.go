package patcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/codeagent/pkg/config"
	"github.com/alantheprice/codeagent/pkg/utils"
	"github.com/alantheprice/codeagent/pkg/worker"
)

func patcherForTest(t *testing.T) (*Patcher, string) {
	t.Helper()
	backupDir := t.TempDir()
	cfg := &config.Config{BackupDir: backupDir, CreateBackups: true}
	logger := utils.NewLogger(t.TempDir(), true)
	t.Cleanup(func() { logger.Close() })
	return NewPatcher(cfg, logger), backupDir
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApplySingleEdit(t *testing.T) {
	p, _ := patcherForTest(t)
	path := writeTemp(t, "x = 1\ny = 2\n")

	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "x = 1", Replacement: "x = 10"},
	})

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "x = 10\ny = 2\n", readFile(t, path))
}

func TestApplyBackupFidelity(t *testing.T) {
	p, backupDir := patcherForTest(t)
	original := "x = 1\ny = 2\n"
	path := writeTemp(t, original)

	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "x = 1", Replacement: "x = 10"},
	})
	require.NoError(t, err)
	require.True(t, applied)

	backup := filepath.Join(backupDir, "target.py")
	assert.Equal(t, original, readFile(t, backup), "backup must equal pre-apply content byte-for-byte")
	assert.Equal(t, "x = 10\ny = 2\n", readFile(t, path))
}

func TestApplyAmbiguousMatchSkipped(t *testing.T) {
	p, _ := patcherForTest(t)
	original := "x = 1\ny = 2\n"
	path := writeTemp(t, original)

	// "=" occurs twice; the edit must be skipped and the file left untouched.
	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "=", Replacement: "EQ"},
	})

	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, original, readFile(t, path))
}

func TestApplyAbsentMatchSkipped(t *testing.T) {
	p, _ := patcherForTest(t)
	original := "x = 1\n"
	path := writeTemp(t, original)

	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "nothing here", Replacement: "nope"},
	})

	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, original, readFile(t, path))
}

func TestApplyMixedBatch(t *testing.T) {
	p, _ := patcherForTest(t)
	path := writeTemp(t, "a = 1\nb = 2\nc = 3\n")

	// The ambiguous and absent edits are skipped; the unambiguous ones apply.
	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "a = 1", Replacement: "a = 100"},
		{Operation: worker.OpReplace, Match: "=", Replacement: "EQ"},
		{Operation: worker.OpReplace, Match: "missing", Replacement: "x"},
		{Operation: worker.OpReplace, Match: "c = 3", Replacement: "c = 300"},
	})

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "a = 100\nb = 2\nc = 300\n", readFile(t, path))
}

func TestApplySequentialMutation(t *testing.T) {
	p, _ := patcherForTest(t)
	path := writeTemp(t, "count\ncount\n")

	// The first edit destroys one occurrence, making the second edit's match
	// unique. Ordering within a batch is part of the contract.
	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "count\ncount", Replacement: "total\ncount"},
		{Operation: worker.OpReplace, Match: "count", Replacement: "items"},
	})

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "total\nitems\n", readFile(t, path))
}

func TestApplyUnknownOperationSkipped(t *testing.T) {
	p, _ := patcherForTest(t)
	original := "x = 1\n"
	path := writeTemp(t, original)

	applied, err := p.Apply(path, []worker.EditOperation{
		{Operation: "insert", Match: "x = 1", Replacement: "y"},
	})

	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, original, readFile(t, path))
}

func TestApplyUnreadableFile(t *testing.T) {
	p, _ := patcherForTest(t)

	applied, err := p.Apply(filepath.Join(t.TempDir(), "missing.py"), []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "a", Replacement: "b"},
	})

	require.Error(t, err)
	assert.False(t, applied)
}

func TestBackupNeverOverwrites(t *testing.T) {
	p, backupDir := patcherForTest(t)
	path := writeTemp(t, "v1\n")

	first, err := p.CreateBackup(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2\n"), 0644))
	second, err := p.CreateBackup(path)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "v1\n", readFile(t, filepath.Join(backupDir, "target.py")))
	assert.Equal(t, "v2\n", readFile(t, filepath.Join(backupDir, "target_1.py")))
	assert.Equal(t, second, p.LatestBackup(path))
}

func TestPreviewDoesNotMutate(t *testing.T) {
	p, _ := patcherForTest(t)
	original := "x = 1\n"
	path := writeTemp(t, original)

	preview := p.Preview(path, []worker.EditOperation{
		{Operation: worker.OpReplace, Match: "x = 1", Replacement: "x = 2"},
	})

	assert.Contains(t, preview, "Edit 1")
	assert.Contains(t, preview, "x = 2")
	assert.Equal(t, original, readFile(t, path))
}
