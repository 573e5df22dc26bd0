package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/types"
)

func wildcardRule(pattern string, mode types.RuleMode) types.FilterRule {
	return types.NewFilterRule(pattern, types.MatchKindWildcard, mode)
}

func regexRule(pattern string, mode types.RuleMode) types.FilterRule {
	return types.NewFilterRule(pattern, types.MatchKindRegex, mode)
}

// TestMatches verifies wildcard shortcuts, regex search semantics and case-insensitivity.
func TestMatches(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		text     string
		rule     types.FilterRule
		expected bool
	}{
		{name: "star matches all", text: "anything", rule: wildcardRule("*", types.RuleModeInclude), expected: true},
		{name: "contains", text: "/src/Vendor/lib.go", rule: wildcardRule("*vendor*", types.RuleModeExclude), expected: true},
		{name: "suffix", text: "/src/README.MD", rule: wildcardRule("*.md", types.RuleModeInclude), expected: true},
		{name: "suffix miss", text: "/src/readme.txt", rule: wildcardRule("*.md", types.RuleModeInclude), expected: false},
		{name: "prefix", text: "/src/main.go", rule: wildcardRule("/SRC*", types.RuleModeInclude), expected: true},
		{name: "embedded star", text: "/a/test_main.go", rule: wildcardRule("/a/test*.go", types.RuleModeInclude), expected: true},
		{name: "embedded star escapes meta", text: "/a/testXgo", rule: wildcardRule("/a/test*.go", types.RuleModeInclude), expected: false},
		{name: "plain equality", text: "Makefile", rule: wildcardRule("makefile", types.RuleModeInclude), expected: true},
		{name: "plain equality miss", text: "Makefile.am", rule: wildcardRule("makefile", types.RuleModeInclude), expected: false},
		{name: "regex search", text: "/src/Main_test.go", rule: regexRule(`_TEST\.go$`, types.RuleModeExclude), expected: true},
		{name: "regex miss", text: "/src/main.go", rule: regexRule(`_test\.go$`, types.RuleModeExclude), expected: false},
		{name: "invalid regex matches nothing", text: "(((", rule: regexRule(`(((`, types.RuleModeExclude), expected: false},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			if matched := rules.Matches(testCase.text, testCase.rule); matched != testCase.expected {
				subTest.Fatalf("Matches(%q, %q) = %v, want %v", testCase.text, testCase.rule.Pattern, matched, testCase.expected)
			}
		})
	}
}

// TestNormalizePath verifies separator normalization and the directory suffix.
func TestNormalizePath(testingHandle *testing.T) {
	testCases := []struct {
		path        string
		isDirectory bool
		expected    string
	}{
		{path: `C:\work\\src`, isDirectory: true, expected: "C:/work/src/"},
		{path: "/a//b///c.txt", isDirectory: false, expected: "/a/b/c.txt"},
		{path: "/a/b/", isDirectory: true, expected: "/a/b/"},
		{path: "", isDirectory: true, expected: ""},
	}
	for _, testCase := range testCases {
		if normalized := rules.NormalizePath(testCase.path, testCase.isDirectory); normalized != testCase.expected {
			testingHandle.Fatalf("NormalizePath(%q) = %q, want %q", testCase.path, normalized, testCase.expected)
		}
	}
}

func TestMatchesEntry(testingHandle *testing.T) {
	directoryRule := wildcardRule("*/build/", types.RuleModeExclude)
	if !rules.MatchesEntry("build", "/work/build", true, directoryRule) {
		testingHandle.Fatalf("expected directory path with trailing slash to match")
	}
	if rules.MatchesEntry("build", "/work/build", false, directoryRule) {
		testingHandle.Fatalf("expected file path without trailing slash not to match")
	}
	if !rules.MatchesEntry("Main.GO", "", false, wildcardRule("*.go", types.RuleModeInclude)) {
		testingHandle.Fatalf("expected bare name to be matched when path is empty")
	}
}

// TestClassify covers the ordered classification steps.
func TestClassify(testingHandle *testing.T) {
	testCases := []struct {
		name        string
		rules       []types.FilterRule
		entryName   string
		entryPath   string
		isDirectory bool
		expected    types.Classification
	}{
		{
			name:      "empty set includes",
			entryName: "anything.bin", entryPath: "/r/anything.bin",
			expected: types.Include,
		},
		{
			name:      "empty set keeps build directory",
			entryName: "build", entryPath: "/r/build", isDirectory: true,
			expected: types.Include,
		},
		{
			name:      "extension include keeps file",
			rules:     []types.FilterRule{wildcardRule("*.txt", types.RuleModeInclude)},
			entryName: "a.txt", entryPath: "/r/a.txt",
			expected: types.Include,
		},
		{
			name:      "extension include drops other files",
			rules:     []types.FilterRule{wildcardRule("*.txt", types.RuleModeInclude)},
			entryName: "d.log", entryPath: "/r/b/d.log",
			expected: types.Exclude,
		},
		{
			name:      "extension include keeps directories",
			rules:     []types.FilterRule{wildcardRule("*.txt", types.RuleModeInclude)},
			entryName: "b", entryPath: "/r/b", isDirectory: true,
			expected: types.Include,
		},
		{
			name: "directory override yields to targeted exclude",
			rules: []types.FilterRule{
				wildcardRule("*.txt", types.RuleModeInclude),
				wildcardRule("vendor/", types.RuleModeExclude),
			},
			entryName: "vendor", entryPath: "/r/vendor", isDirectory: true,
			expected: types.Exclude,
		},
		{
			name:      "non extension include drops directories",
			rules:     []types.FilterRule{wildcardRule("*src*", types.RuleModeInclude)},
			entryName: "docs", entryPath: "/r/docs", isDirectory: true,
			expected: types.Exclude,
		},
		{
			name:      "exclude wins without includes",
			rules:     []types.FilterRule{wildcardRule("*.log", types.RuleModeExclude)},
			entryName: "d.log", entryPath: "/r/d.log",
			expected: types.Exclude,
		},
		{
			name: "include match short circuits excludes",
			rules: []types.FilterRule{
				wildcardRule("*.log", types.RuleModeInclude),
				wildcardRule("*.log", types.RuleModeExclude),
			},
			entryName: "d.log", entryPath: "/r/d.log",
			expected: types.Include,
		},
		{
			name:      "build directory excluded",
			rules:     []types.FilterRule{wildcardRule("*.tmp", types.RuleModeExclude)},
			entryName: "BUILD", entryPath: "/r/BUILD", isDirectory: true,
			expected: types.Exclude,
		},
		{
			name:      "build segment excludes nested directories",
			rules:     []types.FilterRule{wildcardRule("*.tmp", types.RuleModeExclude)},
			entryName: "out", entryPath: "/r/build/out", isDirectory: true,
			expected: types.Exclude,
		},
		{
			name:      "include mentioning build keeps build directory",
			rules:     []types.FilterRule{wildcardRule("*build*", types.RuleModeInclude)},
			entryName: "build", entryPath: "/r/build", isDirectory: true,
			expected: types.Include,
		},
		{
			name: "disabled rules are ignored",
			rules: []types.FilterRule{
				{Pattern: "*.txt", MatchKind: types.MatchKindWildcard, Mode: types.RuleModeExclude, Enabled: false},
			},
			entryName: "a.txt", entryPath: "/r/a.txt",
			expected: types.Include,
		},
		{
			name:      "bare name when path is empty",
			rules:     []types.FilterRule{wildcardRule("a.txt", types.RuleModeExclude)},
			entryName: "a.txt",
			expected:  types.Exclude,
		},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			ruleSet := rules.NewRuleSet(testCase.rules...)
			first := ruleSet.Classify(testCase.entryName, testCase.entryPath, testCase.isDirectory)
			second := ruleSet.Classify(testCase.entryName, testCase.entryPath, testCase.isDirectory)
			if first != second {
				subTest.Fatalf("classification is not deterministic: %v then %v", first, second)
			}
			if first != testCase.expected {
				subTest.Fatalf("Classify(%q) = %v, want %v", testCase.entryPath, first, testCase.expected)
			}
		})
	}
}

// TestRuleSetEditing verifies ordered edits and snapshot independence.
func TestRuleSetEditing(testingHandle *testing.T) {
	ruleSet := rules.NewRuleSet()
	ruleSet.Add("*.go", types.MatchKindWildcard, types.RuleModeInclude)
	ruleSet.Add("*.go", types.MatchKindWildcard, types.RuleModeInclude)
	ruleSet.Add(`_test\.go$`, types.MatchKindRegex, types.RuleModeExclude)
	if ruleSet.Len() != 3 {
		testingHandle.Fatalf("duplicates must be kept, got %d rules", ruleSet.Len())
	}

	snapshot := ruleSet.Snapshot()
	if !ruleSet.Remove(1) {
		testingHandle.Fatalf("expected index 1 to be removable")
	}
	if ruleSet.Remove(5) || ruleSet.SetEnabled(-1, false) {
		testingHandle.Fatalf("out of range edits must be rejected")
	}
	if !ruleSet.SetEnabled(0, false) {
		testingHandle.Fatalf("expected index 0 to be toggled")
	}

	currentRules := ruleSet.Rules()
	if len(currentRules) != 2 || currentRules[0].Enabled || currentRules[1].MatchKind != types.MatchKindRegex {
		testingHandle.Fatalf("unexpected rules after edits: %+v", currentRules)
	}
	if snapshot.Len() != 3 || !snapshot.Rules()[0].Enabled {
		testingHandle.Fatalf("snapshot must not observe later edits: %+v", snapshot.Rules())
	}

	currentRules[1].Pattern = "mutated"
	if ruleSet.Rules()[1].Pattern == "mutated" {
		testingHandle.Fatalf("Rules must return a copy")
	}

	ruleSet.Clear()
	if ruleSet.Len() != 0 {
		testingHandle.Fatalf("expected empty rule set after Clear")
	}
}

// TestParseIgnoreLines verifies the gitignore-style front-end.
func TestParseIgnoreLines(testingHandle *testing.T) {
	parsed := rules.ParseIgnoreLines([]string{"  # comment", "", "  node_modules/ ", "**/*.log", "/", "plain"})
	expected := []rules.IgnoreLine{
		{Pattern: "node_modules", DirectoryOnly: true},
		{Pattern: "*.log"},
		{Pattern: "plain"},
	}
	if len(parsed) != len(expected) {
		testingHandle.Fatalf("unexpected parse result %+v", parsed)
	}
	for index := range expected {
		if parsed[index] != expected[index] {
			testingHandle.Fatalf("line %d: got %+v want %+v", index, parsed[index], expected[index])
		}
	}

	ruleSet := rules.RuleSetFromIgnoreLines([]string{"*.log"}, types.RuleModeExclude)
	if ruleSet.Classify("x.log", "/r/x.log", false) != types.Exclude {
		testingHandle.Fatalf("expected ignore-derived rule to exclude x.log")
	}
}

// TestFileFilter verifies the merge-side file predicate.
func TestFileFilter(testingHandle *testing.T) {
	testCases := []struct {
		name        string
		filter      rules.FileFilter
		entryName   string
		entryPath   string
		isDirectory bool
		expected    types.Classification
	}{
		{name: "empty accepts", filter: rules.FileFilter{}, entryName: "a.bin", entryPath: "/r/a.bin", expected: types.Include},
		{name: "pattern on name", filter: rules.NewFileFilter("*.go", false, nil), entryName: "main.go", entryPath: "/r/main.go", expected: types.Include},
		{name: "pattern miss", filter: rules.NewFileFilter("*.go", false, nil), entryName: "main.rs", entryPath: "/r/main.rs", expected: types.Exclude},
		{name: "regex pattern", filter: rules.NewFileFilter(`^main\.`, true, nil), entryName: "main.rs", entryPath: "/r/main.rs", expected: types.Include},
		{name: "rule line on name", filter: rules.NewFileFilter("", false, []string{"*.md"}), entryName: "README.md", entryPath: "/r/README.md", expected: types.Include},
		{name: "rule line on path", filter: rules.NewFileFilter("", false, []string{"*/docs/*"}), entryName: "guide.txt", entryPath: "/r/docs/guide.txt", expected: types.Include},
		{name: "pattern or rule line", filter: rules.NewFileFilter("*.go", false, []string{"*.md"}), entryName: "README.md", entryPath: "/r/README.md", expected: types.Include},
		{name: "directories always pass", filter: rules.NewFileFilter("*.go", false, nil), entryName: "src", entryPath: "/r/src", isDirectory: true, expected: types.Include},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			if classification := testCase.filter.Classify(testCase.entryName, testCase.entryPath, testCase.isDirectory); classification != testCase.expected {
				subTest.Fatalf("Classify(%q) = %v, want %v", testCase.entryPath, classification, testCase.expected)
			}
		})
	}
}

// TestChainFirstExclusionWins verifies classifier composition.
func TestChainFirstExclusionWins(testingHandle *testing.T) {
	includeAll := rules.NewRuleSet()
	excludeLogs := rules.NewRuleSet(wildcardRule("*.log", types.RuleModeExclude))
	chain := rules.Chain{includeAll, nil, excludeLogs}

	if chain.Classify("a.log", "/r/a.log", false) != types.Exclude {
		testingHandle.Fatalf("expected chain to exclude a.log")
	}
	if chain.Classify("a.txt", "/r/a.txt", false) != types.Include {
		testingHandle.Fatalf("expected chain to include a.txt")
	}
}

// TestGitignoreClassifier verifies exclusion through the root .gitignore.
func TestGitignoreClassifier(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	gitIgnoreContent := "*.log\nvendor/\n"
	if writeError := os.WriteFile(filepath.Join(rootDirectory, rules.GitIgnoreFileName), []byte(gitIgnoreContent), 0o600); writeError != nil {
		testingHandle.Fatalf("write .gitignore: %v", writeError)
	}

	classifier, loadError := rules.NewGitignoreClassifier(rootDirectory)
	if loadError != nil {
		testingHandle.Fatalf("load classifier: %v", loadError)
	}
	if classifier.Classify("debug.log", filepath.Join(rootDirectory, "debug.log"), false) != types.Exclude {
		testingHandle.Fatalf("expected debug.log to be ignored")
	}
	if classifier.Classify("vendor", filepath.Join(rootDirectory, "vendor"), true) != types.Exclude {
		testingHandle.Fatalf("expected vendor directory to be ignored")
	}
	if classifier.Classify("main.go", filepath.Join(rootDirectory, "main.go"), false) != types.Include {
		testingHandle.Fatalf("expected main.go to be kept")
	}

	emptyClassifier, emptyError := rules.NewGitignoreClassifier(testingHandle.TempDir())
	if emptyError != nil {
		testingHandle.Fatalf("missing .gitignore must not fail: %v", emptyError)
	}
	if emptyClassifier.Classify("debug.log", "/elsewhere/debug.log", false) != types.Include {
		testingHandle.Fatalf("classifier without .gitignore must include everything")
	}
}
