// Package rules implements the ordered include/exclude rule model used by traversal and merging.
package rules

import (
	"regexp"
	"strings"
	"sync"

	"github.com/temirov/dirtree/internal/types"
)

const (
	pathSeparator         = "/"
	backslashSeparator    = `\`
	wildcardToken         = "*"
	escapedWildcardToken  = `\*`
	wildcardRegexFragment = ".*"
	caseInsensitivePrefix = "(?i)"
	doubledPathSeparator  = "//"
)

// compiledExpressions caches compiled case-insensitive expressions keyed by source text.
// A nil value records a pattern that failed to compile.
var compiledExpressions sync.Map

func compileCaseInsensitive(expression string) *regexp.Regexp {
	if cached, found := compiledExpressions.Load(expression); found {
		return cached.(*regexp.Regexp)
	}
	compiled, compileError := regexp.Compile(caseInsensitivePrefix + expression)
	if compileError != nil {
		compiled = nil
	}
	compiledExpressions.Store(expression, compiled)
	return compiled
}

// NormalizePath converts backslashes to forward slashes, collapses repeated separators and,
// for directories, guarantees a trailing separator.
func NormalizePath(path string, isDirectory bool) string {
	normalized := strings.ReplaceAll(path, backslashSeparator, pathSeparator)
	for strings.Contains(normalized, doubledPathSeparator) {
		normalized = strings.ReplaceAll(normalized, doubledPathSeparator, pathSeparator)
	}
	if isDirectory && normalized != "" && !strings.HasSuffix(normalized, pathSeparator) {
		normalized += pathSeparator
	}
	return normalized
}

// MatchTarget returns the text a rule is evaluated against: the normalized full path when
// available, the bare name otherwise.
func MatchTarget(name string, path string, isDirectory bool) string {
	if path == "" {
		return name
	}
	return NormalizePath(path, isDirectory)
}

// Matches reports whether text satisfies rule. Matching is case-insensitive and an invalid
// regular expression matches nothing.
func Matches(text string, rule types.FilterRule) bool {
	if rule.MatchKind == types.MatchKindRegex {
		expression := compileCaseInsensitive(rule.Pattern)
		if expression == nil {
			return false
		}
		return expression.MatchString(text)
	}
	return matchesWildcard(text, rule.Pattern)
}

// MatchesEntry evaluates rule against the match target of an entry.
func MatchesEntry(name string, path string, isDirectory bool, rule types.FilterRule) bool {
	return Matches(MatchTarget(name, path, isDirectory), rule)
}

func matchesWildcard(text string, pattern string) bool {
	if pattern == wildcardToken {
		return true
	}
	lowerText := strings.ToLower(text)
	lowerPattern := strings.ToLower(pattern)
	startsWithWildcard := strings.HasPrefix(pattern, wildcardToken)
	endsWithWildcard := strings.HasSuffix(pattern, wildcardToken)

	switch {
	case startsWithWildcard && endsWithWildcard:
		return strings.Contains(lowerText, lowerPattern[1:len(lowerPattern)-1])
	case startsWithWildcard:
		return strings.HasSuffix(lowerText, lowerPattern[1:])
	case endsWithWildcard:
		return strings.HasPrefix(lowerText, lowerPattern[:len(lowerPattern)-1])
	case strings.Contains(pattern, wildcardToken):
		escaped := strings.ReplaceAll(regexp.QuoteMeta(pattern), escapedWildcardToken, wildcardRegexFragment)
		expression := compileCaseInsensitive(escaped)
		return expression != nil && expression.MatchString(text)
	default:
		return strings.EqualFold(text, pattern)
	}
}
