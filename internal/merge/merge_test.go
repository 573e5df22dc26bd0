package merge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/dirtree/internal/merge"
	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/types"
)

const (
	alphaFileName   = "alpha.txt"
	betaFileName    = "beta.txt"
	gammaFileName   = "gamma.log"
	alphaContent    = "alpha content"
	betaContent     = "beta content"
	gammaContent    = "gamma content"
	nestedDirectory = "nested"
)

func writeMergeFixture(testingHandle *testing.T, rootDirectory string, relativePath string, content string) string {
	testingHandle.Helper()
	filePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	if makeDirectoryError := os.MkdirAll(filepath.Dir(filePath), 0o755); makeDirectoryError != nil {
		testingHandle.Fatalf("mkdir for %s: %v", relativePath, makeDirectoryError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o600); writeError != nil {
		testingHandle.Fatalf("write %s: %v", relativePath, writeError)
	}
	return filePath
}

func TestMergeSingleFileWithHeader(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)

	options := merge.DefaultOptions()
	options.HeaderTemplate = "{filename}#{index}"
	options.SeparatorEnabled = false

	result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{Root: rootDirectory, MaxDepth: 1, Options: options})
	if mergeError != nil {
		testingHandle.Fatalf("merge failed: %v", mergeError)
	}
	expected := alphaFileName + "#1\n" + alphaContent
	if result.Text != expected {
		testingHandle.Fatalf("unexpected merge output %q, want %q", result.Text, expected)
	}
	if result.Files != 1 || result.Found != 1 || result.Cancelled {
		testingHandle.Fatalf("unexpected result %+v", result)
	}
}

func TestMergeSeparatorOnlyBetweenFiles(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, betaFileName, betaContent)

	result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{Root: rootDirectory, MaxDepth: 1, Options: merge.DefaultOptions()})
	if mergeError != nil {
		testingHandle.Fatalf("merge failed: %v", mergeError)
	}
	expected := alphaContent + "\n" + types.DefaultSeparator + "\n" + betaContent
	if result.Text != expected {
		testingHandle.Fatalf("unexpected merge output %q, want %q", result.Text, expected)
	}
}

func TestMergeExtractsCaptureGroups(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, "noise key=one more noise key=two tail")

	options := merge.DefaultOptions()
	options.ExtractionEnabled = true
	options.ExtractionPattern = `key=(\w+)`

	result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{Root: rootDirectory, MaxDepth: 1, Options: options})
	if mergeError != nil {
		testingHandle.Fatalf("merge failed: %v", mergeError)
	}
	if result.Text != "one\ntwo" {
		testingHandle.Fatalf("unexpected extraction %q", result.Text)
	}
}

func TestMergeRejectsInvalidExtractionPattern(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)

	options := merge.DefaultOptions()
	options.ExtractionEnabled = true
	options.ExtractionPattern = "(unclosed"

	eventCount := 0
	_, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{
		Root:     rootDirectory,
		MaxDepth: 1,
		Options:  options,
		Handler: func(merge.Event) error {
			eventCount++
			return nil
		},
	})
	if !errors.Is(mergeError, merge.ErrInvalidExtractionPattern) {
		testingHandle.Fatalf("expected ErrInvalidExtractionPattern, got %v", mergeError)
	}
	if eventCount != 0 {
		testingHandle.Fatalf("no events expected before configuration errors, got %d", eventCount)
	}
}

func TestMergeFilterSelection(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, gammaFileName, gammaContent)
	writeMergeFixture(testingHandle, rootDirectory, nestedDirectory+"/"+betaFileName, betaContent)

	testCases := []struct {
		name          string
		filter        rules.FileFilter
		expectedFiles int
		mustContain   []string
		mustNotHave   []string
	}{
		{
			name:          "no filter merges everything",
			filter:        rules.NewFileFilter("", false, nil),
			expectedFiles: 3,
			mustContain:   []string{alphaContent, betaContent, gammaContent},
		},
		{
			name:          "wildcard pattern",
			filter:        rules.NewFileFilter("*.txt", false, nil),
			expectedFiles: 2,
			mustContain:   []string{alphaContent, betaContent},
			mustNotHave:   []string{gammaContent},
		},
		{
			name:          "regex pattern",
			filter:        rules.NewFileFilter(`^gamma\.`, true, nil),
			expectedFiles: 1,
			mustContain:   []string{gammaContent},
			mustNotHave:   []string{alphaContent, betaContent},
		},
		{
			name:          "gitignore style lines",
			filter:        rules.NewFileFilter("", false, []string{"# comment", "", "**/*" + nestedDirectory + "/*"}),
			expectedFiles: 1,
			mustContain:   []string{betaContent},
			mustNotHave:   []string{alphaContent, gammaContent},
		},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{
				Root:     rootDirectory,
				MaxDepth: 3,
				Filter:   testCase.filter,
				Options:  merge.DefaultOptions(),
			})
			if mergeError != nil {
				subTest.Fatalf("merge failed: %v", mergeError)
			}
			if result.Files != testCase.expectedFiles {
				subTest.Fatalf("expected %d files, got %d", testCase.expectedFiles, result.Files)
			}
			for _, fragment := range testCase.mustContain {
				if !strings.Contains(result.Text, fragment) {
					subTest.Fatalf("expected %q in %q", fragment, result.Text)
				}
			}
			for _, fragment := range testCase.mustNotHave {
				if strings.Contains(result.Text, fragment) {
					subTest.Fatalf("did not expect %q in %q", fragment, result.Text)
				}
			}
		})
	}
}

func TestMergeReportsGlobalProgress(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, nestedDirectory+"/"+betaFileName, betaContent)

	var progressValues []int
	var processedPaths []string
	foundCount := 0
	_, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{
		Root:     rootDirectory,
		MaxDepth: 3,
		Options:  merge.DefaultOptions(),
		Handler: func(event merge.Event) error {
			switch event.Kind {
			case merge.EventFileFound:
				foundCount++
			case merge.EventProcessing:
				processedPaths = append(processedPaths, event.Path)
			case merge.EventProgress:
				progressValues = append(progressValues, event.Progress)
			}
			return nil
		},
	})
	if mergeError != nil {
		testingHandle.Fatalf("merge failed: %v", mergeError)
	}
	if foundCount != 2 || len(processedPaths) != 2 {
		testingHandle.Fatalf("expected 2 found and processed files, got %d and %d", foundCount, len(processedPaths))
	}
	if len(progressValues) != 2 || progressValues[0] != 50 || progressValues[1] != 100 {
		testingHandle.Fatalf("unexpected progress %v", progressValues)
	}
}

func TestMergeSkipsBinaryFilesWhenRequested(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, "image.bin", string([]byte{0x00, 0x01, 0x02}))

	options := merge.DefaultOptions()
	options.SkipBinary = true
	result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{Root: rootDirectory, MaxDepth: 1, Options: options})
	if mergeError != nil {
		testingHandle.Fatalf("merge failed: %v", mergeError)
	}
	if result.Text != alphaContent || result.Skipped != 1 {
		testingHandle.Fatalf("unexpected result %+v", result)
	}
}

func TestMergeCancellationStopsProcessing(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, betaFileName, betaContent)

	engine := merge.NewEngine(nil)
	result, mergeError := engine.Merge(context.Background(), merge.Request{
		Root:     rootDirectory,
		MaxDepth: 1,
		Options:  merge.DefaultOptions(),
		Handler: func(event merge.Event) error {
			if event.Kind == merge.EventProgress && event.Index == 1 {
				engine.Cancel()
			}
			return nil
		},
	})
	if mergeError != nil {
		testingHandle.Fatalf("cancelled merge should not fail: %v", mergeError)
	}
	if !result.Cancelled || result.Files != 1 || result.Text != alphaContent {
		testingHandle.Fatalf("unexpected cancelled result %+v", result)
	}
	if engine.Running() {
		testingHandle.Fatalf("engine should be idle after merge returns")
	}
}

func TestMergeSkipsUnreadableFilesSilently(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	danglingPath := filepath.Join(rootDirectory, "dangling.txt")
	if symlinkError := os.Symlink(filepath.Join(rootDirectory, "missing.txt"), danglingPath); symlinkError != nil {
		testingHandle.Skipf("symlinks unavailable: %v", symlinkError)
	}

	var eventKinds []merge.EventKind
	result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{
		Root:     rootDirectory,
		MaxDepth: 1,
		Options:  merge.DefaultOptions(),
		Handler: func(event merge.Event) error {
			eventKinds = append(eventKinds, event.Kind)
			return nil
		},
	})
	if mergeError != nil {
		testingHandle.Fatalf("unreadable file must not fail the merge: %v", mergeError)
	}
	if result.Text != alphaContent || result.Found != 2 || result.Files != 1 || result.Skipped != 1 {
		testingHandle.Fatalf("unexpected result %+v", result)
	}
	if strings.Contains(result.Text, types.DefaultSeparator) {
		testingHandle.Fatalf("skipped file must not produce a separator: %q", result.Text)
	}
	for _, kind := range eventKinds {
		if kind != merge.EventFileFound && kind != merge.EventProcessing && kind != merge.EventProgress {
			testingHandle.Fatalf("unexpected event %v for a silently skipped file", kind)
		}
	}
}

func TestMergeDepthCountsFromRootChildren(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeMergeFixture(testingHandle, rootDirectory, alphaFileName, alphaContent)
	writeMergeFixture(testingHandle, rootDirectory, nestedDirectory+"/"+betaFileName, betaContent)

	testCases := []struct {
		name     string
		maxDepth int
		expected string
	}{
		{name: "root files only", maxDepth: 1, expected: alphaContent},
		{name: "one nested level", maxDepth: 2, expected: alphaContent + "\n" + types.DefaultSeparator + "\n" + betaContent},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			result, mergeError := merge.NewEngine(nil).Merge(context.Background(), merge.Request{Root: rootDirectory, MaxDepth: testCase.maxDepth, Options: merge.DefaultOptions()})
			if mergeError != nil {
				subTest.Fatalf("merge failed: %v", mergeError)
			}
			if result.Text != testCase.expected {
				subTest.Fatalf("unexpected merge output %q, want %q", result.Text, testCase.expected)
			}
		})
	}
}

func TestRenderHeaderPlaceholders(testingHandle *testing.T) {
	modified := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	metadata := merge.FileMetadata{Path: "/src/archive.tar.gz", Index: 3, SizeBytes: 42, LastModified: modified}

	header := merge.RenderHeader("{index}|{filename}|{basename}|{suffix}|{size}|{date}|{time}|{path}", metadata)
	expected := "3|archive.tar.gz|archive|gz|42|2024-03-04|05:06:07|/src/archive.tar.gz"
	if header != expected {
		testingHandle.Fatalf("unexpected header %q, want %q", header, expected)
	}
	if merge.RenderHeader("", metadata) != "" {
		testingHandle.Fatalf("empty template must produce an empty header")
	}
}

func TestExtractorWithoutGroupKeepsWholeMatch(testingHandle *testing.T) {
	extractor, extractorError := merge.NewExtractor(`\d+`)
	if extractorError != nil {
		testingHandle.Fatalf("compile: %v", extractorError)
	}
	if extracted := extractor.Extract("a1 b22 c333"); extracted != "1\n22\n333" {
		testingHandle.Fatalf("unexpected extraction %q", extracted)
	}
	if extracted := extractor.Extract("none"); extracted != "" {
		testingHandle.Fatalf("expected empty extraction, got %q", extracted)
	}
}
