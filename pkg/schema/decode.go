package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed tree.schema.json
var treeSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(treeSchema)

// Format is the encoding of a tree document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension. JSON is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// JSONSchema returns the embedded JSON Schema of tree documents.
func JSONSchema() []byte {
	return bytes.Clone(treeSchema)
}

// Decode parses, shape-checks and validates a tree document.
// Every failure matches domain.ErrInvalidTree.
func Decode(data []byte, format Format) (*domain.Tree, error) {
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	return domain.NewTree(doc)
}

// DecodeDocument parses and shape-checks a tree document without the
// structural validation.
func DecodeDocument(data []byte, format Format) (domain.Document, error) {
	raw := data
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrInvalidTree, err)
		}
		raw = converted
	}
	if !json.Valid(raw) {
		return domain.Document{}, fmt.Errorf("%w: malformed JSON document", domain.ErrInvalidTree)
	}

	if err := checkShape(raw); err != nil {
		return domain.Document{}, err
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrInvalidTree, err)
	}
	return doc, nil
}

func checkShape(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidTree, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &domain.ValidationError{}
	for _, re := range result.Errors() {
		verr.Add("%s", re.String())
	}
	return verr
}

// Encode renders a tree back to an indented JSON document.
func Encode(tree *domain.Tree) ([]byte, error) {
	return json.MarshalIndent(tree.Document(), "", "  ")
}
