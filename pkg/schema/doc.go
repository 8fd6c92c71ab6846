// Package schema decodes tree documents.
//
// A document is accepted as JSON or YAML. YAML is converted to JSON first,
// keeping mapping order so decision options stay in document order. The JSON
// form is checked against the embedded JSON Schema, decoded into a
// domain.Document and finally validated structurally by domain.NewTree.
//
//	tree, err := schema.Decode(data, schema.FormatYAML)
//	if errors.Is(err, domain.ErrInvalidTree) {
//	    for _, issue := range domain.Issues(err) {
//	        fmt.Println(issue)
//	    }
//	}
package schema
