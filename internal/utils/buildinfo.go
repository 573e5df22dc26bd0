package utils

import (
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion        = "unknown"
	develVersion          = "(devel)"
	revisionSettingKey    = "vcs.revision"
	modifiedSettingKey    = "vcs.modified"
	dirtyVersionSuffix    = "-dirty"
	shortRevisionLength   = 12
	gitExecutable         = "git"
	gitWorkingTreeFlag    = "-C"
	gitDescribeSubcommand = "describe"
	gitTagsFlag           = "--tags"
	gitDirtyFlag          = "--dirty"
)

// GetApplicationVersion reports the dirtree version. A tagged module version wins, then the
// VCS revision stamped by the Go toolchain, then `git describe` of the repository that
// contains the working directory.
func GetApplicationVersion() string {
	buildInfo, available := debug.ReadBuildInfo()
	if !available {
		return describeRepository(".")
	}
	if version := buildInfo.Main.Version; version != "" && version != develVersion {
		return version
	}
	if revision := stampedRevision(buildInfo.Settings); revision != "" {
		return revision
	}
	return describeRepository(".")
}

func stampedRevision(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, setting := range settings {
		switch setting.Key {
		case revisionSettingKey:
			revision = setting.Value
		case modifiedSettingKey:
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}
	if modified {
		revision += dirtyVersionSuffix
	}
	return revision
}

func describeRepository(startDirectory string) string {
	repositoryRoot, found := findRepositoryRoot(startDirectory)
	if !found {
		return unknownVersion
	}
	// #nosec G204
	describeOutput, describeError := exec.Command(gitExecutable, gitWorkingTreeFlag, repositoryRoot, gitDescribeSubcommand, gitTagsFlag, gitDirtyFlag).Output()
	described := strings.TrimSpace(string(describeOutput))
	if describeError != nil || described == "" {
		return unknownVersion
	}
	return described
}

// findRepositoryRoot walks upward from startDirectory to the first directory holding a
// .git entry.
func findRepositoryRoot(startDirectory string) (string, bool) {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", false
	}
	for {
		if IsGitRepository(currentDirectory) {
			return currentDirectory, true
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", false
		}
		currentDirectory = parentDirectory
	}
}
