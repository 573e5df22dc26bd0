package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/dirtree/internal/services/stream"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	formatJSON                = types.FormatJSON
	warningLineFormat         = "Warning: %s: %s\n"
	cancelledLine             = "Cancelled: showing partial result"
	treeSummaryFormat         = "Summary: %d %s, %d %s, %d excluded"
	mergeSummaryFormat        = "Summary: %d %s merged, %d skipped, %s"
	tokenSummaryFormat        = ", %d tokens (%s)"
	singularDirectory         = "directory"
	pluralDirectory           = "directories"
	singularFile              = "file"
	pluralFile                = "files"
	summaryTerminator         = "\n"
	payloadTerminator         = "\n"
	missingPayloadErrorFormat = "%s run finished without a payload"
)

// runState collects what both renderers track regardless of output format.
type runState struct {
	options   RendererOptions
	root      string
	summary   *stream.SummaryEvent
	tree      *types.TreeNode
	document  *stream.DocumentEvent
	cancelled bool
	failed    bool
}

// Document implements StreamRenderer for both formats.
func (state *runState) Document() string {
	if state.document == nil {
		return ""
	}
	return state.document.Text
}

// handleCommon processes events that render identically in every format and reports whether
// the event was consumed.
func (state *runState) handleCommon(event stream.Event) (bool, error) {
	switch event.Kind {
	case stream.EventKindProgress:
		if event.Progress != nil {
			state.options.Progress.Update(event.Progress.Percent)
		}
		return true, nil
	case stream.EventKindWarning:
		if event.Message == nil {
			return true, nil
		}
		return true, state.writeStderr(fmt.Sprintf(warningLineFormat, event.Path, event.Message.Message))
	case stream.EventKindError:
		// The failing call returns the error itself; the renderer only stops drawing.
		state.failed = true
		state.options.Progress.Finish()
		return true, nil
	case stream.EventKindCancelled:
		state.cancelled = true
		return true, nil
	case stream.EventKindTree:
		state.tree = event.Tree
		return true, nil
	case stream.EventKindDocument:
		state.document = event.Document
		return true, nil
	case stream.EventKindSummary:
		state.summary = event.Summary
		return true, nil
	case stream.EventKindDone:
		state.options.Progress.Finish()
		return true, nil
	}
	return false, nil
}

// hasPayload reports whether a tree or document arrived.
func (state *runState) hasPayload() bool {
	return state.tree != nil || state.document != nil
}

// finish writes the payload followed by the cancellation notice and the summary line.
func (state *runState) finish(payload string) error {
	state.options.Progress.Finish()
	if state.failed {
		return nil
	}
	if !state.hasPayload() {
		return fmt.Errorf(missingPayloadErrorFormat, state.options.Command)
	}
	if state.options.Stdout != nil {
		if _, err := io.WriteString(state.options.Stdout, ensureTrailingNewline(payload)); err != nil {
			return err
		}
	}
	if state.cancelled {
		if err := state.writeStderr(cancelledLine + summaryTerminator); err != nil {
			return err
		}
	}
	if state.options.IncludeSummary && state.summary != nil {
		return state.writeStderr(state.summaryLine() + summaryTerminator)
	}
	return nil
}

func (state *runState) summaryLine() string {
	summary := state.summary
	if state.options.Command == types.CommandMerge {
		line := fmt.Sprintf(mergeSummaryFormat, summary.Files, pluralize(summary.Files, singularFile, pluralFile), summary.Skipped, utils.FormatTextSize(state.Document()))
		if summary.Tokens > 0 {
			line += fmt.Sprintf(tokenSummaryFormat, summary.Tokens, summary.Model)
		}
		return line
	}
	return fmt.Sprintf(treeSummaryFormat,
		summary.Directories, pluralize(summary.Directories, singularDirectory, pluralDirectory),
		summary.Files, pluralize(summary.Files, singularFile, pluralFile),
		summary.Excluded)
}

func (state *runState) writeStderr(text string) error {
	if state.options.Stderr == nil {
		return nil
	}
	state.options.Progress.Finish()
	_, err := io.WriteString(state.options.Stderr, text)
	return err
}

func pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

func ensureTrailingNewline(payload string) string {
	if payload == "" || strings.HasSuffix(payload, payloadTerminator) {
		return payload
	}
	return payload + payloadTerminator
}
