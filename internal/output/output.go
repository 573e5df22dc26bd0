// Package output renders directory trees and writes merged documents.
package output

import (
	"encoding/json"

	"github.com/temirov/dirtree/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
)

// RenderTreeJSON returns the tree as indented JSON.
func RenderTreeJSON(node *types.TreeNode) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(node, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}
