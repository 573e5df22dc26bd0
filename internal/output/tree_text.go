package output

import (
	"strings"

	"github.com/temirov/dirtree/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	// treePrefixWidth is the rune width of every connector and padding unit.
	treePrefixWidth = 4

	directoryNameSuffix = "/"
	lineBreak           = "\n"
)

// RenderTreeText renders node and its subtree as an indented tree. Level 0 is the root, which
// is printed without a connector.
func RenderTreeText(node *types.TreeNode, level int) string {
	if node == nil {
		return ""
	}

	var builder strings.Builder
	if level > 0 {
		builder.WriteString(strings.Repeat(treeBranchPadding, level-1))
		builder.WriteString(treeBranchConnector)
	}
	builder.WriteString(node.Name)
	if level == 0 || node.IsDirectory() {
		builder.WriteString(directoryNameSuffix)
	}
	builder.WriteString(lineBreak)

	lastIndex := len(node.Children) - 1
	for childIndex, child := range node.Children {
		childBlock := RenderTreeText(child, level+1)
		if childIndex == lastIndex {
			childBlock = closeBranch(childBlock, level*treePrefixWidth)
		}
		builder.WriteString(childBlock)
	}
	return builder.String()
}

// closeBranch turns the connector of the block's first line at column into the terminal
// connector and blanks the trunk at column on every following line.
func closeBranch(block string, column int) string {
	lines := strings.Split(strings.TrimSuffix(block, lineBreak), lineBreak)
	for lineIndex, line := range lines {
		runes := []rune(line)
		if len(runes) < column+treePrefixWidth {
			continue
		}
		segment := string(runes[column : column+treePrefixWidth])
		switch {
		case lineIndex == 0:
			lines[lineIndex] = replaceRunes(runes, column, treeLastConnector)
		case segment == treeBranchPadding:
			lines[lineIndex] = replaceRunes(runes, column, treeLastPadding)
		}
	}
	return strings.Join(lines, lineBreak) + lineBreak
}

func replaceRunes(runes []rune, column int, replacement string) string {
	replaced := make([]rune, 0, len(runes))
	replaced = append(replaced, runes[:column]...)
	replaced = append(replaced, []rune(replacement)...)
	replaced = append(replaced, runes[column+treePrefixWidth:]...)
	return string(replaced)
}
