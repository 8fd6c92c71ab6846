// Package file reads tree documents from and stores sessions on the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/schema"
)

// Loader implements ports.TreeLoader for a JSON or YAML document on disk.
// The format follows the file extension.
type Loader struct {
	Path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and validates the document.
func (l *Loader) Load(ctx context.Context) (*domain.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree document: %w", err)
	}
	tree, err := schema.Decode(data, schema.FormatFromPath(l.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return tree, nil
}
