package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	exportLockSuffix         = ".lock"
	exportTempPattern        = ".dirtree-*"
	exportFilePermissions    = 0o644
	exportDirectoryMode      = 0o755
	errorCreateDirFormat     = "creating directory %s: %w"
	errorAcquireLockFormat   = "acquiring lock on %s: %w"
	errorCreateTempFormat    = "creating temporary file in %s: %w"
	errorWriteTempFormat     = "writing temporary file %s: %w"
	errorFinalizeTempFormat  = "finalizing temporary file %s: %w"
	errorReplaceTargetFormat = "replacing %s: %w"
)

// ErrEmptyDocument reports an attempt to export a document with no content.
var ErrEmptyDocument = errors.New("nothing to export: document is empty")

// Export overwrites targetPath with document as UTF-8 text. The write is serialized through a
// sibling lock file and becomes visible atomically.
func Export(targetPath string, document string) error {
	if document == "" {
		return ErrEmptyDocument
	}
	targetDirectory := filepath.Dir(targetPath)
	if makeDirectoryError := os.MkdirAll(targetDirectory, exportDirectoryMode); makeDirectoryError != nil {
		return fmt.Errorf(errorCreateDirFormat, targetDirectory, makeDirectoryError)
	}

	lockPath := targetPath + exportLockSuffix
	fileLock := flock.New(lockPath)
	if lockError := fileLock.Lock(); lockError != nil {
		return fmt.Errorf(errorAcquireLockFormat, lockPath, lockError)
	}
	defer func() {
		_ = fileLock.Unlock()
		_ = os.Remove(lockPath)
	}()

	return writeAtomically(targetPath, []byte(document))
}

func writeAtomically(targetPath string, data []byte) error {
	targetDirectory := filepath.Dir(targetPath)
	temporaryFile, createError := os.CreateTemp(targetDirectory, exportTempPattern)
	if createError != nil {
		return fmt.Errorf(errorCreateTempFormat, targetDirectory, createError)
	}
	temporaryPath := temporaryFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = temporaryFile.Close()
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(data); writeError != nil {
		return fmt.Errorf(errorWriteTempFormat, temporaryPath, writeError)
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		return fmt.Errorf(errorFinalizeTempFormat, temporaryPath, syncError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf(errorFinalizeTempFormat, temporaryPath, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, exportFilePermissions); chmodError != nil {
		return fmt.Errorf(errorFinalizeTempFormat, temporaryPath, chmodError)
	}
	if renameError := os.Rename(temporaryPath, targetPath); renameError != nil {
		return fmt.Errorf(errorReplaceTargetFormat, targetPath, renameError)
	}
	renamed = true
	return nil
}
