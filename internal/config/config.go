// Package config loads application configuration and rule files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	commentPrefix = "#"
	// includeSectionHeader opens the section whose lines become include rules.
	includeSectionHeader = "[include]"
	// excludeSectionHeader opens the section whose lines become exclude rules.
	excludeSectionHeader = "[exclude]"
)

// RuleFileContents holds the gitignore-style lines of a rule file split by section. Lines
// before any section header belong to the include section.
type RuleFileContents struct {
	Include []string
	Exclude []string
}

// LoadRuleFile reads a plain-text rule file: one rule per line, blank lines and lines starting
// with "#" ignored. Optional [include] and [exclude] headers switch the section that
// following lines are added to.
//
// #nosec G304
func LoadRuleFile(ruleFilePath string) (RuleFileContents, error) {
	fileHandle, openFileError := os.Open(ruleFilePath)
	if openFileError != nil {
		return RuleFileContents{}, fmt.Errorf("open rule file %s: %w", ruleFilePath, openFileError)
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ruleFilePath, closeError)
		}
	}()

	var contents RuleFileContents
	currentSectionHeader := includeSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		if strings.EqualFold(trimmedLine, includeSectionHeader) {
			currentSectionHeader = includeSectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, excludeSectionHeader) {
			currentSectionHeader = excludeSectionHeader
			continue
		}
		if currentSectionHeader == excludeSectionHeader {
			contents.Exclude = append(contents.Exclude, trimmedLine)
			continue
		}
		contents.Include = append(contents.Include, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return RuleFileContents{}, fmt.Errorf("read rule file %s: %w", ruleFilePath, scanError)
	}
	return contents, nil
}
