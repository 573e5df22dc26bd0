// Package tree assembles the in-memory directory tree from an ordered traversal event stream.
package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/dirtree/internal/traversal"
	"github.com/temirov/dirtree/internal/types"
)

const (
	errorOrphanNodeFormat  = "node %s arrived before its parent %s"
	errorAttachNodeFormat  = "cannot attach %s to file node %s"
	errorNodeWithoutRoot   = "node event received before the root event"
	errorMissingNodeFormat = "%s event carries no node"
)

// ErrNoRoot reports a builder that never received a root event.
var ErrNoRoot = errors.New("tree has no root")

// Builder owns the tree under construction. It must be fed events in emission order from a
// single goroutine; nodes are attached one at a time.
type Builder struct {
	root        *types.TreeNode
	nodesByPath map[string]*types.TreeNode
	nodeCount   int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{nodesByPath: make(map[string]*types.TreeNode)}
}

// Handle attaches the node carried by event. Progress and warning events are ignored.
func (builder *Builder) Handle(event traversal.Event) error {
	switch event.Kind {
	case traversal.EventRoot:
		if event.Node == nil {
			return fmt.Errorf(errorMissingNodeFormat, event.Kind)
		}
		builder.root = event.Node
		builder.nodesByPath = map[string]*types.TreeNode{event.Entry.FullPath: event.Node}
		builder.nodeCount = 1
	case traversal.EventNode:
		if event.Node == nil {
			return fmt.Errorf(errorMissingNodeFormat, event.Kind)
		}
		if builder.root == nil {
			return errors.New(errorNodeWithoutRoot)
		}
		parent, parentFound := builder.nodesByPath[event.ParentPath]
		if !parentFound {
			return fmt.Errorf(errorOrphanNodeFormat, event.Entry.FullPath, event.ParentPath)
		}
		if !parent.AddChild(event.Node) {
			return fmt.Errorf(errorAttachNodeFormat, event.Entry.FullPath, event.ParentPath)
		}
		if event.Node.IsDirectory() {
			builder.nodesByPath[event.Entry.FullPath] = event.Node
		}
		builder.nodeCount++
	}
	return nil
}

// Root returns the tree built so far, or nil before the root event.
func (builder *Builder) Root() *types.TreeNode {
	return builder.root
}

// NodeCount returns the number of attached nodes, the root included.
func (builder *Builder) NodeCount() int {
	return builder.nodeCount
}

// Build runs a traversal with engine and returns the resulting tree. A cancelled traversal
// returns the partial tree together with a Result whose Cancelled flag is set.
func Build(ctx context.Context, engine *traversal.Engine, options traversal.Options) (*types.TreeNode, traversal.Result, error) {
	builder := NewBuilder()
	result, runError := engine.Run(ctx, options, builder.Handle)
	if runError != nil {
		return nil, result, runError
	}
	if builder.Root() == nil {
		return nil, result, ErrNoRoot
	}
	return builder.Root(), result, nil
}
