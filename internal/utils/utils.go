// Package utils contains general helper functions shared by the dirtree commands.
package utils

import (
	"os"
	"path/filepath"
)

// GitDirectoryName is the name of the Git repository directory.
const GitDirectoryName = ".git"

// IsGitRepository reports whether directory holds a .git entry. Worktrees and submodules
// use a .git file, so any entry counts.
func IsGitRepository(directory string) bool {
	_, statError := os.Stat(filepath.Join(directory, GitDirectoryName))
	return statError == nil
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the slash-separated path of fullPath relative to root.
// It returns "." when both resolve to the same directory and the cleaned fullPath when no
// relative form exists.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)
	if cleanPath == cleanAbsoluteRoot {
		return "."
	}
	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}
