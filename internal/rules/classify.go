package rules

import (
	"strings"

	"github.com/temirov/dirtree/internal/types"
)

const (
	buildDirectoryName    = "build"
	buildDirectorySegment = "/build/"
	extensionRulePrefix   = "*."
	extensionDot          = "."
)

// Classifier decides whether a filesystem entry takes part in a traversal.
type Classifier interface {
	Classify(name string, path string, isDirectory bool) types.Classification
}

// Classify decides whether the entry identified by name, path and kind is included.
//
// Include rules are consulted first and the first match includes the entry. When enabled
// include rules exist but none matched, the entry is tentatively excluded, except for
// directories while at least one include rule targets a file extension: those stay
// traversable unless an exclude rule names them specifically. Exclude rules are consulted
// last and the first match excludes the entry. Directories named "build" are excluded up
// front unless an enabled include rule mentions "build".
func (ruleSet *RuleSet) Classify(name string, path string, isDirectory bool) types.Classification {
	if ruleSet.Len() == 0 {
		return types.Include
	}

	includeRules := ruleSet.enabledRules(types.RuleModeInclude)
	excludeRules := ruleSet.enabledRules(types.RuleModeExclude)
	normalizedPath := NormalizePath(path, isDirectory)
	matchTarget := MatchTarget(name, path, isDirectory)

	if isDirectory && isBuildDirectory(name, normalizedPath) && !anyPatternMentionsBuild(includeRules) {
		return types.Exclude
	}

	hasIncludeRules := len(includeRules) > 0
	for _, rule := range includeRules {
		if Matches(matchTarget, rule) {
			return types.Include
		}
	}

	result := types.Include
	if hasIncludeRules {
		result = types.Exclude
	}

	if isDirectory && hasIncludeRules && anyExtensionRule(includeRules) && !anyRuleTargetsDirectory(excludeRules, name, normalizedPath) {
		result = types.Include
	}

	for _, rule := range excludeRules {
		if Matches(matchTarget, rule) {
			return types.Exclude
		}
	}

	return result
}

func isBuildDirectory(name string, normalizedPath string) bool {
	if strings.EqualFold(name, buildDirectoryName) {
		return true
	}
	return strings.Contains(strings.ToLower(normalizedPath), buildDirectorySegment)
}

func anyPatternMentionsBuild(includeRules []types.FilterRule) bool {
	for _, rule := range includeRules {
		if strings.Contains(strings.ToLower(rule.Pattern), buildDirectoryName) {
			return true
		}
	}
	return false
}

// isExtensionRule reports whether pattern looks like it selects files by extension.
func isExtensionRule(pattern string) bool {
	if strings.HasPrefix(pattern, extensionRulePrefix) {
		return true
	}
	return strings.Contains(pattern, extensionDot) &&
		!strings.Contains(pattern, pathSeparator) &&
		!strings.Contains(pattern, backslashSeparator)
}

func anyExtensionRule(includeRules []types.FilterRule) bool {
	for _, rule := range includeRules {
		if isExtensionRule(rule.Pattern) {
			return true
		}
	}
	return false
}

// anyRuleTargetsDirectory reports whether an exclude rule names this directory itself,
// either by name or as a full path segment.
func anyRuleTargetsDirectory(excludeRules []types.FilterRule, name string, normalizedPath string) bool {
	lowerPath := strings.ToLower(normalizedPath)
	for _, rule := range excludeRules {
		pattern := strings.TrimSuffix(NormalizePath(rule.Pattern, false), pathSeparator)
		if pattern == "" {
			continue
		}
		if strings.EqualFold(pattern, name) {
			return true
		}
		if strings.Contains(lowerPath, pathSeparator+strings.ToLower(pattern)+pathSeparator) {
			return true
		}
	}
	return false
}

var _ Classifier = (*RuleSet)(nil)
