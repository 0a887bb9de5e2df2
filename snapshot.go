package jcr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/compression"
)

// SnapshotVersion is the format version written by Export.
const SnapshotVersion = 1

// ExportDepth is how deep Export reads below the exported node.
const ExportDepth = 999

// Snapshot is an exported subtree. Files hold its JSON form, zstd compressed.
type Snapshot struct {
	Version int       `json:"version"`
	Path    string    `json:"path"`
	Created time.Time `json:"created"`
	Root    *WireNode `json:"root"`
}

// Export fetches the subtree at path without metadata and writes it to w.
func (c *Client) Export(ctx context.Context, path string, w io.Writer) (*Snapshot, error) {
	wn, err := c.store.FetchNode(ctx, path, Query{Depth: ExportDepth})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", path, err)
	}
	if wn.Name == "" {
		wn.Name = baseName(path)
	}
	snap := &Snapshot{Version: SnapshotVersion, Path: path, Created: time.Now().UTC(), Root: wn}
	if err := WriteSnapshot(w, snap); err != nil {
		return nil, fmt.Errorf("export %s: %w", path, err)
	}
	c.log.Info("exported subtree", zap.String("path", path), zap.Int("nodes", countNodes(wn)))
	return snap, nil
}

// Import recreates a snapshot under parentPath and returns the created root.
// Missing ancestors are created as folders unless another prototype is given.
func (c *Client) Import(ctx context.Context, r io.Reader, parentPath string, opts ...CreateOption) (*Node, error) {
	snap, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	return c.ImportSnapshot(ctx, snap, parentPath, opts...)
}

// ImportSnapshot is Import for a snapshot that is already decoded.
func (c *Client) ImportSnapshot(ctx context.Context, snap *Snapshot, parentPath string, opts ...CreateOption) (*Node, error) {
	if snap == nil || snap.Root == nil || snap.Root.Name == "" {
		return nil, invalidArgf("snapshot has no root node")
	}
	n, err := importNode(joinPath(parentPath, snap.Root.Name), snap.Root)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", snap.Path, err)
	}
	if len(opts) == 0 {
		opts = []CreateOption{WithParentPrototype(NewFolder(""))}
	}
	if err := c.Create(ctx, n, opts...); err != nil {
		return nil, err
	}
	c.log.Info("imported subtree",
		zap.String("from", snap.Path),
		zap.String("path", n.path),
		zap.Int("nodes", countNodes(snap.Root)))
	return n, nil
}

// importNode builds an unsaved tree from wn. Binary values are carried over
// in their encoded form since they cannot be decoded.
func importNode(path string, wn *WireNode) (*Node, error) {
	n := NewNode(path, wn.Type)
	for _, wp := range wn.Properties {
		if t, ok := ParsePropertyType(wp.Type); ok && t == TypeBinary {
			var v any = ""
			if len(wp.Values) == 1 {
				v = wp.Values[0]
			} else if len(wp.Values) > 1 {
				v = wp.Values
			}
			n.putProperty(Property{Name: wp.Name, Type: TypeBinary, Value: v})
			continue
		}
		p, err := DecodeProperty(wp)
		if err != nil {
			return nil, err
		}
		n.putProperty(p)
	}
	for _, wc := range wn.Nodes {
		child, err := importNode(joinPath(path, wc.Name), wc)
		if err != nil {
			return nil, err
		}
		n.AddNode(child)
	}
	return n, nil
}

// WriteSnapshot encodes snap as compressed JSON.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	comp, err := compression.NewCompressor(compression.LevelBetter)
	if err != nil {
		return err
	}
	defer comp.Close()
	if _, err := w.Write(comp.Compress(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	comp, err := compression.NewCompressor(compression.LevelDefault)
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	raw, err := comp.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, invalidArgf("snapshot version %d is not supported", snap.Version)
	}
	if snap.Root == nil || snap.Root.Name == "" {
		return nil, invalidArgf("snapshot of %s has no root node", snap.Path)
	}
	return &snap, nil
}

func countNodes(wn *WireNode) int {
	n := 1
	for _, c := range wn.Nodes {
		n += countNodes(c)
	}
	return n
}
