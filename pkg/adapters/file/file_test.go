package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/adapters/file"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.NewStore(t.TempDir())
	err := store.Save(context.Background(), "../escape", domain.NewFlowState())
	assert.Error(t, err)

	_, err = store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "nope"))
	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(testutils.SampleJSON), 0o644))

	tree, err := file.NewLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Platform Decisions", tree.Title())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("phases: []\nnodes: []\n"), 0o644))
	_, err = file.NewLoader(bad).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	_, err = file.NewLoader(filepath.Join(dir, "missing.json")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
