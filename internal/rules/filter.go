package rules

import (
	"strings"

	"github.com/temirov/dirtree/internal/types"
)

const (
	commentPrefix       = "#"
	recursiveGlobPrefix = "**/"
	directoryRuleSuffix = "/"
)

// IgnoreLine is one parsed line of a gitignore-style rule list.
type IgnoreLine struct {
	Pattern       string
	DirectoryOnly bool
}

// ParseIgnoreLines trims every line, drops blank lines and comments, strips a trailing
// separator (recording the rule as directory-only) and a leading "**/".
func ParseIgnoreLines(lines []string) []IgnoreLine {
	var parsed []IgnoreLine
	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		ignoreLine := IgnoreLine{Pattern: trimmedLine}
		if strings.HasSuffix(ignoreLine.Pattern, directoryRuleSuffix) {
			ignoreLine.DirectoryOnly = true
			ignoreLine.Pattern = strings.TrimSuffix(ignoreLine.Pattern, directoryRuleSuffix)
		}
		ignoreLine.Pattern = strings.TrimPrefix(ignoreLine.Pattern, recursiveGlobPrefix)
		if ignoreLine.Pattern == "" {
			continue
		}
		parsed = append(parsed, ignoreLine)
	}
	return parsed
}

// RuleSetFromIgnoreLines converts gitignore-style text into wildcard rules with the given mode.
func RuleSetFromIgnoreLines(lines []string, mode types.RuleMode) *RuleSet {
	ruleSet := NewRuleSet()
	for _, ignoreLine := range ParseIgnoreLines(lines) {
		ruleSet.Add(ignoreLine.Pattern, types.MatchKindWildcard, mode)
	}
	return ruleSet
}

// FileFilter is the file predicate of a merge: a single optional pattern matched against the
// bare file name, plus include rules derived from gitignore-style lines matched against both
// the full path and the bare name. Directories always pass.
type FileFilter struct {
	Pattern     *types.FilterRule
	IgnoreRules *RuleSet
}

// NewFileFilter builds a FileFilter. An empty pattern leaves the single-pattern filter unset.
func NewFileFilter(pattern string, isRegex bool, ignoreLines []string) FileFilter {
	filter := FileFilter{IgnoreRules: RuleSetFromIgnoreLines(ignoreLines, types.RuleModeInclude)}
	if strings.TrimSpace(pattern) != "" {
		matchKind := types.MatchKindWildcard
		if isRegex {
			matchKind = types.MatchKindRegex
		}
		rule := types.NewFilterRule(strings.TrimSpace(pattern), matchKind, types.RuleModeInclude)
		filter.Pattern = &rule
	}
	return filter
}

// IsEmpty reports whether neither a pattern nor rule lines are configured.
func (filter FileFilter) IsEmpty() bool {
	return filter.Pattern == nil && filter.IgnoreRules.Len() == 0
}

// Accepts reports whether the file identified by name and path is merged.
func (filter FileFilter) Accepts(name string, path string) bool {
	if filter.IsEmpty() {
		return true
	}
	if filter.Pattern != nil && Matches(name, *filter.Pattern) {
		return true
	}
	normalizedPath := NormalizePath(path, false)
	for _, rule := range filter.IgnoreRules.Rules() {
		if Matches(normalizedPath, rule) || Matches(name, rule) {
			return true
		}
	}
	return false
}

// Classify implements Classifier; directories are always included so that traversal reaches
// every candidate file.
func (filter FileFilter) Classify(name string, path string, isDirectory bool) types.Classification {
	if isDirectory || filter.Accepts(name, path) {
		return types.Include
	}
	return types.Exclude
}

// Chain evaluates classifiers in order; the first exclusion wins.
type Chain []Classifier

// Classify implements Classifier.
func (chain Chain) Classify(name string, path string, isDirectory bool) types.Classification {
	for _, classifier := range chain {
		if classifier == nil {
			continue
		}
		if classifier.Classify(name, path, isDirectory) == types.Exclude {
			return types.Exclude
		}
	}
	return types.Include
}

var (
	_ Classifier = FileFilter{}
	_ Classifier = Chain{}
)
