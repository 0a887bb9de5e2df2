package jcr

import (
	"context"

	"github.com/aweris/jcr/internal/wire"
)

// Query controls depth, metadata and node-type filtering of a fetch.
type Query = wire.Query

// Store is the remote side of the node tree. Implementations return errors
// matching ErrNotFound when a path, or the parent of a node being created,
// does not exist.
type Store interface {
	FetchNode(ctx context.Context, path string, q Query) (*WireNode, error)

	// PutNode creates n as a child of parentPath.
	PutNode(ctx context.Context, parentPath string, n *WireNode) error

	// PostNode merges the properties of n into the node at path.
	PostNode(ctx context.Context, path string, n *WireNode) error

	DeleteProperty(ctx context.Context, path, name string) error
	DeleteNode(ctx context.Context, path string) error
}
