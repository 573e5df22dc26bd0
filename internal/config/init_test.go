package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/dirtree/internal/utils"
)

func TestInitializeConfigurationCreatesLocalFile(t *testing.T) {
	workingDirectory := t.TempDir()
	options := InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal}
	path, err := InitializeConfiguration(options)
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	expectedPath := filepath.Join(workingDirectory, utils.LocalConfigFileName)
	if path != expectedPath {
		t.Fatalf("expected path %s, got %s", expectedPath, path)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read config: %v", readErr)
	}
	if !strings.Contains(string(content), "tree:") || !strings.Contains(string(content), "merge:") {
		t.Fatalf("unexpected configuration content: %s", string(content))
	}
}

func TestInitializedConfigurationLoads(t *testing.T) {
	workingDirectory := t.TempDir()
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory}); err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	loaded, loadErr := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory, HomeDirectory: t.TempDir()})
	if loadErr != nil {
		t.Fatalf("load default configuration: %v", loadErr)
	}
	if loaded.Tree.Depth == nil || *loaded.Tree.Depth != 3 {
		t.Fatalf("expected tree depth 3, got %v", loaded.Tree.Depth)
	}
	ruleSet, buildErr := BuildRuleSet(loaded.Tree.Rules)
	if buildErr != nil {
		t.Fatalf("default rules must be valid: %v", buildErr)
	}
	if ruleSet.Len() != 1 {
		t.Fatalf("expected one default rule, got %d", ruleSet.Len())
	}
	if loaded.Merge.Separator != "----------" {
		t.Fatalf("unexpected default separator %q", loaded.Merge.Separator)
	}
}

func TestInitializeConfigurationHonorsGlobalTarget(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	path, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal, Force: true})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	expectedPath := filepath.Join(homeDir, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
	if path != expectedPath {
		t.Fatalf("expected configuration at %s, got %s", expectedPath, path)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected file to exist at %s: %v", path, statErr)
	}
}

func TestInitializeConfigurationPreventsOverwriteWithoutForce(t *testing.T) {
	workingDirectory := t.TempDir()
	path := filepath.Join(workingDirectory, utils.LocalConfigFileName)
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatalf("write seed config: %v", err)
	}
	_, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal, Force: false})
	if err == nil {
		t.Fatalf("expected error when configuration already exists")
	}
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal, Force: true}); err != nil {
		t.Fatalf("expected forced overwrite to succeed: %v", err)
	}
}
