// Package merge concatenates the files selected by a filtered traversal into one document,
// with optional per-file headers, separators and content extraction.
package merge

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/traversal"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	blockSeparator        = "\n"
	windowsLineBreak      = "\r\n"
	unixLineBreak         = "\n"
	progressScale         = 100
	logFieldPath          = "path"
	logMessageReadSkipped = "skipping unreadable file"
	logMessageBinary      = "skipping binary file"
)

// Options controls how matched files are folded into the merged document.
type Options struct {
	HeaderTemplate    string
	Separator         string
	SeparatorEnabled  bool
	ExtractionPattern string
	ExtractionEnabled bool
	SkipBinary        bool
}

// DefaultOptions returns options with the default separator enabled.
func DefaultOptions() Options {
	return Options{Separator: types.DefaultSeparator, SeparatorEnabled: true}
}

// Request describes one merge.
type Request struct {
	Root        string
	MaxDepth    int
	Filter      rules.FileFilter
	Rules       *rules.RuleSet
	Classifiers []rules.Classifier
	Options     Options
	Handler     Handler
}

// Engine runs one merge at a time on top of a traversal engine.
type Engine struct {
	traversalEngine *traversal.Engine
	logger          *zap.Logger
}

// NewEngine returns an idle merge engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{traversalEngine: traversal.NewEngine(logger), logger: logger}
}

// Running reports whether a merge is active.
func (engine *Engine) Running() bool {
	return engine.traversalEngine.Running()
}

// Cancel requests cancellation of the active merge.
func (engine *Engine) Cancel() {
	engine.traversalEngine.Cancel()
}

// Merge discovers the files selected by request and concatenates them. Configuration errors,
// including an invalid extraction pattern, are returned before any file is visited.
func (engine *Engine) Merge(ctx context.Context, request Request) (Result, error) {
	var extractor *Extractor
	if request.Options.ExtractionEnabled && request.Options.ExtractionPattern != "" {
		var extractorError error
		extractor, extractorError = NewExtractor(request.Options.ExtractionPattern)
		if extractorError != nil {
			return Result{}, extractorError
		}
	}
	handler := request.Handler
	if handler == nil {
		handler = func(Event) error { return nil }
	}

	classifiers := append([]rules.Classifier{request.Filter}, request.Classifiers...)
	traversalOptions := traversal.Options{
		Root:         request.Root,
		MaxDepth:     request.MaxDepth,
		IncludeFiles: true,
		Rules:        request.Rules,
		Classifiers:  classifiers,
		Logger:       engine.logger,
	}

	var result Result
	executeError := engine.traversalEngine.Execute(ctx, traversalOptions, func(session *traversal.Session) error {
		run := &mergeRun{session: session, options: request.Options, extractor: extractor, handler: handler, result: &result}
		result.SessionID = session.ID
		return run.execute()
	})
	return result, executeError
}

type mergeRun struct {
	session   *traversal.Session
	options   Options
	extractor *Extractor
	handler   Handler
	result    *Result
}

func (run *mergeRun) emit(event Event) error {
	event.SessionID = run.session.ID
	return run.handler(event)
}

func (run *mergeRun) execute() error {
	var foundPaths []string
	walkResult, walkError := traversal.Walk(run.session, func(event traversal.Event) error {
		if event.Kind != traversal.EventNode || event.Entry.IsDirectory() {
			return nil
		}
		foundPaths = append(foundPaths, event.Entry.FullPath)
		return run.emit(Event{Kind: EventFileFound, Path: event.Entry.FullPath, Index: len(foundPaths)})
	})
	if walkError != nil {
		return walkError
	}
	run.result.Found = len(foundPaths)
	if walkResult.Cancelled {
		run.result.Cancelled = true
		return nil
	}

	var blocks []string
	total := len(foundPaths)
	for fileIndex, filePath := range foundPaths {
		if run.session.Cancelled() {
			run.result.Cancelled = true
			break
		}
		index := fileIndex + 1
		if processingError := run.emit(Event{Kind: EventProcessing, Path: filePath, Index: index, Total: total}); processingError != nil {
			return processingError
		}

		candidate, included := run.readCandidate(filePath, index)
		if included {
			if len(blocks) > 0 && run.options.SeparatorEnabled {
				blocks = append(blocks, run.options.Separator)
			}
			if candidate.Header != "" {
				blocks = append(blocks, candidate.Header)
			}
			blocks = append(blocks, candidate.Content())
			run.result.Files++
		} else {
			run.result.Skipped++
		}

		if progressError := run.emit(Event{Kind: EventProgress, Path: filePath, Index: index, Total: total, Progress: index * progressScale / total}); progressError != nil {
			return progressError
		}
	}

	run.result.Text = strings.Join(blocks, blockSeparator)
	return nil
}

// readCandidate loads one file. Unreadable files, and binary files when requested, are
// reported as not included.
func (run *mergeRun) readCandidate(filePath string, index int) (types.MergeCandidate, bool) {
	logger := run.session.Logger()
	fileInfo, statError := os.Stat(filePath)
	if statError != nil {
		logger.Debug(logMessageReadSkipped, zap.String(logFieldPath, filePath), zap.Error(statError))
		return types.MergeCandidate{}, false
	}
	data, readError := os.ReadFile(filePath)
	if readError != nil {
		logger.Debug(logMessageReadSkipped, zap.String(logFieldPath, filePath), zap.Error(readError))
		return types.MergeCandidate{}, false
	}
	if run.options.SkipBinary && utils.IsBinary(data) {
		logger.Debug(logMessageBinary, zap.String(logFieldPath, filePath))
		return types.MergeCandidate{}, false
	}

	candidate := types.MergeCandidate{
		Path:       filePath,
		RawContent: strings.ReplaceAll(string(data), windowsLineBreak, unixLineBreak),
		Header: RenderHeader(run.options.HeaderTemplate, FileMetadata{
			Path:         filePath,
			Index:        index,
			SizeBytes:    fileInfo.Size(),
			LastModified: fileInfo.ModTime(),
		}),
	}
	if run.extractor != nil {
		extracted := run.extractor.Extract(candidate.RawContent)
		candidate.ExtractedContent = &extracted
	}
	return candidate, true
}
