package jcr

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/apierr"
)

// createMissingParents creates every missing ancestor of target from proto and
// then target itself.
//
// One depth-limited fetch of the first node below the workspace tells which
// ancestors already exist; existing levels are walked in the returned subtree
// without further requests. Once a level is missing, every deeper level is
// created without checking. A NotFound while creating is returned as is.
func (c *Client) createMissingParents(ctx context.Context, target, proto *Node) error {
	segs := splitPath(target.path)
	if len(segs) < 2 {
		return fmt.Errorf("create %s: workspace does not exist: %w", target.path, ErrNotFound)
	}
	depth := len(segs) - 1

	workspace := "/" + segs[0]
	first := joinPath(workspace, segs[1])

	var known *WireNode
	existing, err := c.store.FetchNode(ctx, first, Query{Depth: depth, IncludeMetadata: false})
	switch {
	case err == nil:
		if existing.Name == "" {
			existing.Name = segs[1]
		}
		known = &WireNode{Path: workspace, Nodes: []*WireNode{existing}}
	case apierr.IsNotFound(err):
	default:
		return fmt.Errorf("create %s: fetch %s: %w", target.path, first, err)
	}

	current := workspace
	last := len(segs) - 1
	for i := 1; i <= last; i++ {
		current = joinPath(current, segs[i])

		if known != nil {
			if child := known.Child(segs[i]); child != nil {
				known = child
				continue
			}
		}
		known = nil

		if i == last {
			return c.put(ctx, target)
		}

		ancestor := proto.Clone()
		ancestor.SetPath(current)
		if err := c.put(ctx, ancestor); err != nil {
			return err
		}
		c.log.Info("created missing ancestor",
			zap.String("path", current),
			zap.String("type", ancestor.typ),
			zap.String("target", target.path))
	}

	// The whole path exists; only the target's own properties need sending.
	c.log.Debug("target already exists", zap.String("path", target.path))
	if err := c.update(ctx, target); err != nil {
		return err
	}
	target.persisted = true
	return nil
}
