package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/branchwise/internal/testutils"
	"github.com/aretw0/branchwise/pkg/adapters/remote"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_FetchesTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != remote.TreePath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testutils.SampleJSON))
	}))
	defer srv.Close()

	loader, err := remote.NewLoader(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+remote.TreePath, loader.URL())

	tree, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tree.PhaseCount())
}

func TestLoader_YAMLByContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("phases:\n  - {id: 1, type: tree, startNode: A}\nnodes:\n  - {id: A, phase: 1, type: info, title: Done}\n"))
	}))
	defer srv.Close()

	loader, err := remote.NewLoader(srv.URL + "/custom")
	require.NoError(t, err)
	tree, err := loader.Load(context.Background())
	require.NoError(t, err)
	_, ok := tree.Node("A")
	assert.True(t, ok)
}

func TestLoader_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte(`{"phases": []}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader, err := remote.NewLoader(srv.URL)
	require.NoError(t, err)
	_, err = loader.Load(context.Background())
	assert.ErrorContains(t, err, "500")

	loader, err = remote.NewLoader(srv.URL + "/broken")
	require.NoError(t, err)
	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTree)

	_, err = remote.NewLoader("ftp://example.com/tree")
	assert.Error(t, err)
	assert.True(t, remote.IsURL("https://x"))
	assert.False(t, remote.IsURL("tree.json"))
}

func TestLoader_RejectsOversizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat(" ", remote.MaxDocumentSize) + testutils.SampleJSON))
	}))
	defer srv.Close()

	loader, err := remote.NewLoader(srv.URL)
	require.NoError(t, err)
	_, err = loader.Load(context.Background())
	require.ErrorIs(t, err, remote.ErrDocumentTooLarge)
	assert.NotErrorIs(t, err, domain.ErrInvalidTree)
}
