package stream

import (
	"time"

	"github.com/temirov/dirtree/internal/types"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart     EventKind = "start"
	EventKindNode      EventKind = "node"
	EventKindProgress  EventKind = "progress"
	EventKindFile      EventKind = "file"
	EventKindWarning   EventKind = "warning"
	EventKindError     EventKind = "error"
	EventKindTree      EventKind = "tree"
	EventKindDocument  EventKind = "document"
	EventKindSummary   EventKind = "summary"
	EventKindCancelled EventKind = "cancelled"
	EventKindDone      EventKind = "done"
)

// ProgressScope tells level-local traversal progress apart from global merge progress.
type ProgressScope string

const (
	ProgressScopeLevel  ProgressScope = "level"
	ProgressScopeGlobal ProgressScope = "global"
)

// FilePhase distinguishes discovery from processing notifications.
type FilePhase string

const (
	FilePhaseFound      FilePhase = "found"
	FilePhaseProcessing FilePhase = "processing"
)

type Event struct {
	Version   int       `json:"version"`
	Kind      EventKind `json:"kind"`
	Command   string    `json:"command,omitempty"`
	SessionID string    `json:"session,omitempty"`
	Path      string    `json:"path,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty"`

	Node     *NodeEvent      `json:"node,omitempty"`
	Progress *ProgressEvent  `json:"progress,omitempty"`
	File     *FileEvent      `json:"file,omitempty"`
	Document *DocumentEvent  `json:"document,omitempty"`
	Summary  *SummaryEvent   `json:"summary,omitempty"`
	Message  *LogEvent       `json:"message,omitempty"`
	Err      *ErrorEvent     `json:"error,omitempty"`
	Tree     *types.TreeNode `json:"tree,omitempty"`
}

type NodeEvent struct {
	Name   string          `json:"name"`
	Type   types.EntryKind `json:"type"`
	Parent string          `json:"parent,omitempty"`
	Depth  int             `json:"depth"`
}

type ProgressEvent struct {
	Percent int           `json:"percent"`
	Scope   ProgressScope `json:"scope"`
}

type FileEvent struct {
	Phase FilePhase `json:"phase"`
	Index int       `json:"index"`
	Total int       `json:"total,omitempty"`
}

type DocumentEvent struct {
	Text  string `json:"text"`
	Files int    `json:"files"`
}

type SummaryEvent struct {
	Directories int    `json:"directories,omitempty"`
	Files       int    `json:"files"`
	Excluded    int    `json:"excluded,omitempty"`
	Skipped     int    `json:"skipped,omitempty"`
	Tokens      int    `json:"tokens,omitempty"`
	Model       string `json:"model,omitempty"`
	Cancelled   bool   `json:"cancelled,omitempty"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
