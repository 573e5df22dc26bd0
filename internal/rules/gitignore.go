package rules

import (
	"fmt"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"

	"github.com/temirov/dirtree/internal/types"
)

// GitIgnoreFileName is the name of the Git ignore file honoured by GitignoreClassifier.
const GitIgnoreFileName = ".gitignore"

const errorLoadGitignoreFormat = "loading %s from %s: %w"

// GitignoreClassifier excludes entries matched by the .gitignore file of a traversal root.
type GitignoreClassifier struct {
	matcher gitignore.IgnoreMatcher
}

// NewGitignoreClassifier loads rootDirectoryPath/.gitignore. A missing file yields a
// classifier that includes everything.
func NewGitignoreClassifier(rootDirectoryPath string) (*GitignoreClassifier, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootDirectoryPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorLoadGitignoreFormat, GitIgnoreFileName, rootDirectoryPath, absoluteError)
	}
	gitIgnorePath := filepath.Join(absoluteRoot, GitIgnoreFileName)
	if _, statError := os.Stat(gitIgnorePath); statError != nil {
		if os.IsNotExist(statError) {
			return &GitignoreClassifier{}, nil
		}
		return nil, fmt.Errorf(errorLoadGitignoreFormat, GitIgnoreFileName, absoluteRoot, statError)
	}
	matcher, loadError := gitignore.NewGitIgnore(gitIgnorePath, absoluteRoot)
	if loadError != nil {
		return nil, fmt.Errorf(errorLoadGitignoreFormat, GitIgnoreFileName, absoluteRoot, loadError)
	}
	return &GitignoreClassifier{matcher: matcher}, nil
}

// Classify implements Classifier.
func (classifier *GitignoreClassifier) Classify(name string, path string, isDirectory bool) types.Classification {
	if classifier == nil || classifier.matcher == nil || path == "" {
		return types.Include
	}
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return types.Include
	}
	if classifier.matcher.Match(absolutePath, isDirectory) {
		return types.Exclude
	}
	return types.Include
}

var _ Classifier = (*GitignoreClassifier)(nil)
