package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/dirtree/internal/merge"
	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/traversal"
	"github.com/temirov/dirtree/internal/tree"
	"github.com/temirov/dirtree/internal/types"
)

const warningLevel = "warning"

// TreeOptions configures StreamTree. A nil Engine runs on a private engine.
type TreeOptions struct {
	Traversal traversal.Options
	Engine    *traversal.Engine
}

// MergeOptions configures StreamMerge. A nil TokenCounter disables the token summary.
type MergeOptions struct {
	Request      merge.Request
	Engine       *merge.Engine
	TokenCounter tokenizer.Counter
	TokenModel   string
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return fmt.Errorf("stream: event channel is nil")
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) warn(sessionID, path, message string) error {
	trimmed := strings.TrimRight(message, "\n")
	if trimmed == "" {
		return nil
	}
	return e.send(Event{
		Kind:      EventKindWarning,
		SessionID: sessionID,
		Path:      path,
		Message:   &LogEvent{Level: warningLevel, Message: trimmed},
	})
}

func (e *emitter) fail(path string, err error) error {
	_ = e.send(Event{Kind: EventKindError, Path: path, Err: &ErrorEvent{Message: err.Error()}})
	return err
}

// StreamTree traverses opts.Traversal.Root and sends node, progress and warning events to out,
// followed by the assembled tree, a summary and a done event. A cancelled traversal sends a
// cancelled event and still delivers the partial tree.
func StreamTree(ctx context.Context, opts TreeOptions, out chan<- Event) error {
	root := opts.Traversal.Root
	if root == "" {
		return errors.New("stream: tree root path is empty")
	}
	engine := opts.Engine
	if engine == nil {
		engine = traversal.NewEngine(opts.Traversal.Logger)
	}

	emitter := newEmitter(ctx, out, types.CommandTree)
	if err := emitter.send(Event{Kind: EventKindStart, Path: root}); err != nil {
		return err
	}

	builder := tree.NewBuilder()
	result, runErr := engine.Run(ctx, opts.Traversal, func(event traversal.Event) error {
		switch event.Kind {
		case traversal.EventRoot, traversal.EventNode:
			if err := builder.Handle(event); err != nil {
				return err
			}
			return emitter.send(Event{
				Kind:      EventKindNode,
				SessionID: event.SessionID,
				Path:      event.Entry.FullPath,
				Node: &NodeEvent{
					Name:   event.Entry.Name,
					Type:   event.Entry.Kind,
					Parent: event.ParentPath,
					Depth:  event.Entry.Depth,
				},
			})
		case traversal.EventProgress:
			return emitter.send(Event{
				Kind:      EventKindProgress,
				SessionID: event.SessionID,
				Path:      root,
				Progress:  &ProgressEvent{Percent: event.Progress, Scope: ProgressScopeLevel},
			})
		case traversal.EventWarning:
			return emitter.warn(event.SessionID, event.Entry.FullPath, event.Message)
		}
		return nil
	})
	if runErr != nil {
		return emitter.fail(root, runErr)
	}

	if result.Cancelled {
		if err := emitter.send(Event{Kind: EventKindCancelled, SessionID: result.SessionID, Path: root}); err != nil {
			return err
		}
	}
	if err := emitter.send(Event{Kind: EventKindTree, SessionID: result.SessionID, Path: root, Tree: builder.Root()}); err != nil {
		return err
	}
	summary := &SummaryEvent{
		Directories: result.Directories,
		Files:       result.Files,
		Excluded:    result.Excluded,
		Cancelled:   result.Cancelled,
	}
	if err := emitter.send(Event{Kind: EventKindSummary, SessionID: result.SessionID, Path: root, Summary: summary}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, SessionID: result.SessionID, Path: root})
}

// StreamMerge merges the files selected by opts.Request and sends file and progress events to
// out, followed by the merged document, a summary and a done event.
func StreamMerge(ctx context.Context, opts MergeOptions, out chan<- Event) error {
	request := opts.Request
	root := request.Root
	if root == "" {
		return errors.New("stream: merge root path is empty")
	}
	engine := opts.Engine
	if engine == nil {
		engine = merge.NewEngine(nil)
	}

	emitter := newEmitter(ctx, out, types.CommandMerge)
	if err := emitter.send(Event{Kind: EventKindStart, Path: root}); err != nil {
		return err
	}

	callerHandler := request.Handler
	request.Handler = func(event merge.Event) error {
		if callerHandler != nil {
			if err := callerHandler(event); err != nil {
				return err
			}
		}
		switch event.Kind {
		case merge.EventFileFound:
			return emitter.send(Event{
				Kind:      EventKindFile,
				SessionID: event.SessionID,
				Path:      event.Path,
				File:      &FileEvent{Phase: FilePhaseFound, Index: event.Index},
			})
		case merge.EventProcessing:
			return emitter.send(Event{
				Kind:      EventKindFile,
				SessionID: event.SessionID,
				Path:      event.Path,
				File:      &FileEvent{Phase: FilePhaseProcessing, Index: event.Index, Total: event.Total},
			})
		case merge.EventProgress:
			return emitter.send(Event{
				Kind:      EventKindProgress,
				SessionID: event.SessionID,
				Path:      root,
				Progress:  &ProgressEvent{Percent: event.Progress, Scope: ProgressScopeGlobal},
			})
		}
		return nil
	}

	result, mergeErr := engine.Merge(ctx, request)
	if mergeErr != nil {
		return emitter.fail(root, mergeErr)
	}

	if result.Cancelled {
		if err := emitter.send(Event{Kind: EventKindCancelled, SessionID: result.SessionID, Path: root}); err != nil {
			return err
		}
	}

	summary := &SummaryEvent{Files: result.Files, Skipped: result.Skipped, Cancelled: result.Cancelled}
	if opts.TokenCounter != nil && result.Text != "" {
		counted, countErr := tokenizer.CountText(opts.TokenCounter, result.Text)
		if countErr != nil {
			if err := emitter.warn(result.SessionID, root, fmt.Sprintf("token counting failed: %v", countErr)); err != nil {
				return err
			}
		} else if counted.Counted {
			summary.Tokens = counted.Tokens
			summary.Model = opts.TokenModel
		}
	}

	document := &DocumentEvent{Text: result.Text, Files: result.Files}
	if err := emitter.send(Event{Kind: EventKindDocument, SessionID: result.SessionID, Path: root, Document: document}); err != nil {
		return err
	}
	if err := emitter.send(Event{Kind: EventKindSummary, SessionID: result.SessionID, Path: root, Summary: summary}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, SessionID: result.SessionID, Path: root})
}
