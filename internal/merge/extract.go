package merge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidExtractionPattern reports an extraction expression that does not compile.
var ErrInvalidExtractionPattern = errors.New("invalid extraction pattern")

const (
	errorExtractionPatternFormat = "%w %q: %v"
	extractedPartSeparator       = "\n"
	firstCaptureGroup            = 1
)

// Extractor replaces file content with the matches of a regular expression.
type Extractor struct {
	expression *regexp.Regexp
}

// NewExtractor compiles pattern.
func NewExtractor(pattern string) (*Extractor, error) {
	expression, compileError := regexp.Compile(pattern)
	if compileError != nil {
		return nil, fmt.Errorf(errorExtractionPatternFormat, ErrInvalidExtractionPattern, pattern, compileError)
	}
	return &Extractor{expression: expression}, nil
}

// Extract returns every match of the expression in content joined by newlines. When the
// expression has a capture group only the first group of each match is kept.
func (extractor *Extractor) Extract(content string) string {
	matches := extractor.expression.FindAllStringSubmatch(content, -1)
	extractedParts := make([]string, 0, len(matches))
	useGroup := extractor.expression.NumSubexp() >= firstCaptureGroup
	for _, match := range matches {
		if useGroup {
			extractedParts = append(extractedParts, match[firstCaptureGroup])
			continue
		}
		extractedParts = append(extractedParts, match[0])
	}
	return strings.Join(extractedParts, extractedPartSeparator)
}
