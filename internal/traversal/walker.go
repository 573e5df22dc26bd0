package traversal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/types"
)

const (
	// warningReadDirectoryFormat is used when a directory cannot be enumerated.
	warningReadDirectoryFormat = "reading directory %s: %v"
	// errorNilHandlerMessage is returned when Walk is called without a handler.
	errorNilHandlerMessage = "traversal handler is nil"
	// percentScale converts a fraction into a 0-100 progress value.
	percentScale = 100
)

type walker struct {
	session *Session
	handler Handler
	result  Result
}

// Walk runs session to completion, emitting events to handler in traversal order. A
// cancelled session returns a Result with Cancelled set and a nil error; the events
// delivered so far describe the partial tree.
func Walk(session *Session, handler Handler) (Result, error) {
	if handler == nil {
		return Result{}, errors.New(errorNilHandlerMessage)
	}
	walkerInstance := &walker{
		session: session,
		handler: handler,
		result:  Result{SessionID: session.ID},
	}

	rootEntry := types.FileSystemEntry{
		Name:     filepath.Base(session.RootPath),
		FullPath: session.RootPath,
		Kind:     types.EntryKindDirectory,
		Depth:    0,
	}
	walkError := walkerInstance.emit(Event{Kind: EventRoot, Entry: rootEntry, Node: newNode(rootEntry)})
	if walkError == nil {
		walkError = walkerInstance.walkDirectory(session.RootPath, 1)
	}

	walkerInstance.result.Cancelled = session.Cancelled()
	if walkError != nil {
		if walkerInstance.result.Cancelled && errors.Is(walkError, context.Canceled) {
			walkError = nil
		} else {
			return walkerInstance.result, walkError
		}
	}
	if walkerInstance.result.ExcludedTopLevel > 0 {
		session.logger.Debug("excluded top-level entries", zap.Int("count", walkerInstance.result.ExcludedTopLevel))
	}
	return walkerInstance.result, nil
}

func (walkerInstance *walker) emit(event Event) error {
	event.SessionID = walkerInstance.session.ID
	return walkerInstance.handler(event)
}

// walkDirectory enumerates directoryPath whose children sit at depth.
func (walkerInstance *walker) walkDirectory(directoryPath string, depth int) error {
	session := walkerInstance.session
	if session.Cancelled() || depth > session.MaxDepth {
		return nil
	}

	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return walkerInstance.emit(Event{
			Kind:    EventWarning,
			Entry:   types.FileSystemEntry{FullPath: directoryPath, Kind: types.EntryKindDirectory, Depth: depth - 1},
			Message: fmt.Sprintf(warningReadDirectoryFormat, directoryPath, readDirectoryError),
		})
	}

	var candidates []os.DirEntry
	for _, directoryEntry := range directoryEntries {
		if !session.IncludeFiles && !directoryEntry.IsDir() {
			continue
		}
		candidates = append(candidates, directoryEntry)
	}

	total := len(candidates)
	for index, directoryEntry := range candidates {
		if session.Cancelled() {
			return nil
		}

		processed := index + 1
		session.setLevelProgress(processed, total)
		if progressError := walkerInstance.emit(Event{Kind: EventProgress, Progress: processed * percentScale / total}); progressError != nil {
			return progressError
		}

		entry := types.FileSystemEntry{
			Name:     directoryEntry.Name(),
			FullPath: filepath.Join(directoryPath, directoryEntry.Name()),
			Kind:     types.EntryKindFile,
			Depth:    depth,
		}
		if directoryEntry.IsDir() {
			entry.Kind = types.EntryKindDirectory
		}

		if session.classifier.Classify(entry.Name, entry.FullPath, entry.IsDirectory()) == types.Exclude {
			walkerInstance.result.Excluded++
			if depth == 1 {
				walkerInstance.result.ExcludedTopLevel++
				session.logger.Debug("excluded", zap.String("entry", entry.Name))
			}
			continue
		}

		if session.Cancelled() {
			return nil
		}
		if nodeError := walkerInstance.emit(Event{Kind: EventNode, Entry: entry, ParentPath: directoryPath, Node: newNode(entry)}); nodeError != nil {
			return nodeError
		}

		if !entry.IsDirectory() {
			walkerInstance.result.Files++
			continue
		}
		walkerInstance.result.Directories++
		if depth < session.MaxDepth {
			if recurseError := walkerInstance.walkDirectory(entry.FullPath, depth+1); recurseError != nil {
				return recurseError
			}
		}
	}
	return nil
}

func newNode(entry types.FileSystemEntry) *types.TreeNode {
	return &types.TreeNode{Name: entry.Name, Kind: entry.Kind, FullPath: entry.FullPath}
}
