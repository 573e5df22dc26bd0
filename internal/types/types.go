// Package types defines every cross‑package data structure used by the dirtree CLI.
package types

import (
	"fmt"
	"strings"
)

const (
	CommandTree  = "tree"
	CommandMerge = "merge"

	FormatRaw  = "raw"
	FormatJSON = "json"

	// DefaultSeparator is placed between merged files when separators are enabled.
	DefaultSeparator = "----------"
	// DefaultMaxDepth is the traversal depth used when none is configured.
	DefaultMaxDepth = 3
)

// MatchKind selects how a rule pattern is interpreted.
type MatchKind int

const (
	MatchKindWildcard MatchKind = iota
	MatchKindRegex
)

const (
	matchKindWildcardName = "wildcard"
	matchKindRegexName    = "regex"
	ruleModeIncludeName   = "include"
	ruleModeExcludeName   = "exclude"

	unknownMatchKindFormat = "unknown match kind %q"
	unknownRuleModeFormat  = "unknown rule mode %q"
)

func (kind MatchKind) String() string {
	if kind == MatchKindRegex {
		return matchKindRegexName
	}
	return matchKindWildcardName
}

// ParseMatchKind converts a textual match kind. An empty value selects MatchKindWildcard.
func ParseMatchKind(value string) (MatchKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", matchKindWildcardName, "glob":
		return MatchKindWildcard, nil
	case matchKindRegexName, "regexp":
		return MatchKindRegex, nil
	default:
		return MatchKindWildcard, fmt.Errorf(unknownMatchKindFormat, value)
	}
}

// RuleMode is the effect a matching rule has on an entry.
type RuleMode int

const (
	RuleModeInclude RuleMode = iota
	RuleModeExclude
)

func (mode RuleMode) String() string {
	if mode == RuleModeExclude {
		return ruleModeExcludeName
	}
	return ruleModeIncludeName
}

// ParseRuleMode converts a textual rule mode. An empty value selects RuleModeExclude.
func ParseRuleMode(value string) (RuleMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", ruleModeExcludeName:
		return RuleModeExclude, nil
	case ruleModeIncludeName:
		return RuleModeInclude, nil
	default:
		return RuleModeExclude, fmt.Errorf(unknownRuleModeFormat, value)
	}
}

// FilterRule decides inclusion or exclusion of a path.
type FilterRule struct {
	Pattern   string
	MatchKind MatchKind
	Mode      RuleMode
	Enabled   bool
}

// NewFilterRule returns an enabled rule.
func NewFilterRule(pattern string, matchKind MatchKind, mode RuleMode) FilterRule {
	return FilterRule{Pattern: pattern, MatchKind: matchKind, Mode: mode, Enabled: true}
}

// Classification is the outcome of evaluating rules for an entry.
type Classification int

const (
	Include Classification = iota
	Exclude
)

func (classification Classification) String() string {
	if classification == Exclude {
		return ruleModeExcludeName
	}
	return ruleModeIncludeName
}

// EntryKind distinguishes files from directories.
type EntryKind string

const (
	EntryKindFile      EntryKind = "file"
	EntryKindDirectory EntryKind = "directory"
)

// FileSystemEntry is produced for every enumerated entry during a traversal step.
type FileSystemEntry struct {
	Name     string
	FullPath string
	Kind     EntryKind
	Depth    int
}

// IsDirectory reports whether the entry is a directory.
func (entry FileSystemEntry) IsDirectory() bool {
	return entry.Kind == EntryKindDirectory
}

// TreeNode is one materialized entry of a traversal. A node is owned by its parent.
type TreeNode struct {
	Name     string      `json:"name"`
	Kind     EntryKind   `json:"type"`
	FullPath string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
}

// IsDirectory reports whether the node is a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Kind == EntryKindDirectory
}

// AddChild appends child in enumeration order. File nodes never receive children.
func (node *TreeNode) AddChild(child *TreeNode) bool {
	if node == nil || child == nil || !node.IsDirectory() {
		return false
	}
	node.Children = append(node.Children, child)
	return true
}

// CountNodes returns the number of nodes in the subtree, the receiver included.
func (node *TreeNode) CountNodes() int {
	if node == nil {
		return 0
	}
	total := 1
	for _, child := range node.Children {
		total += child.CountNodes()
	}
	return total
}

// MergeCandidate holds one matched file while it is folded into the merged document.
type MergeCandidate struct {
	Path             string
	RawContent       string
	ExtractedContent *string
	Header           string
}

// Content returns the extracted content when extraction ran, otherwise the raw content.
func (candidate MergeCandidate) Content() string {
	if candidate.ExtractedContent != nil {
		return *candidate.ExtractedContent
	}
	return candidate.RawContent
}
