// Package traversal walks a directory subtree under a rule model and reports every included
// entry as an ordered sequence of events.
package traversal

import (
	"github.com/temirov/dirtree/internal/types"
)

// EventKind identifies what a traversal event carries.
type EventKind int

const (
	// EventRoot carries the root node. It is always the first event of a session.
	EventRoot EventKind = iota
	// EventNode carries a newly materialized node and the path of its parent.
	EventNode
	// EventProgress carries the level-local progress of the directory being enumerated.
	EventProgress
	// EventWarning carries a non-fatal problem such as an unreadable directory.
	EventWarning
)

func (kind EventKind) String() string {
	switch kind {
	case EventRoot:
		return "root"
	case EventNode:
		return "node"
	case EventProgress:
		return "progress"
	case EventWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Event is one step of a traversal. Node events arrive parent-before-child and the node they
// carry has no children attached; the consumer owns attachment.
type Event struct {
	Kind       EventKind
	SessionID  string
	Entry      types.FileSystemEntry
	ParentPath string
	Node       *types.TreeNode
	Progress   int
	Message    string
}

// Handler consumes traversal events in emission order. A returned error aborts the walk.
type Handler func(Event) error

// Result summarizes a finished session.
type Result struct {
	SessionID        string
	Cancelled        bool
	Directories      int
	Files            int
	Excluded         int
	ExcludedTopLevel int
}

// Materialized returns the number of nodes emitted below the root.
func (result Result) Materialized() int {
	return result.Directories + result.Files
}
