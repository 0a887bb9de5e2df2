// Package memstore implements the node store in memory.
//
// It behaves like the content server where the client can observe it:
// creating under a missing parent fails with a 404, fetches honour depth,
// metadata and excluded node types, and deleting a node removes its subtree.
// Every call is recorded so tests can assert on the requests a client issued.
//
// Layout: a flat map keyed by absolute path; children are found by parent path
// and returned in creation order.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aweris/jcr/internal/apierr"
	"github.com/aweris/jcr/internal/wire"
)

// Metadata properties stamped by the store and stripped when a fetch excludes metadata.
const (
	CreatedProperty      = "mgnl:created"
	LastModifiedProperty = "mgnl:lastModified"
)

// Call records one store operation.
type Call struct {
	Op   string
	Path string
}

// Store operation names used in Call.Op.
const (
	OpFetch          = "FetchNode"
	OpPut            = "PutNode"
	OpPost           = "PostNode"
	OpDeleteProperty = "DeleteProperty"
	OpDeleteNode     = "DeleteNode"
)

type record struct {
	typ        string
	identifier string
	seq        uint64
	props      map[string]wire.Property
	propOrder  []string
}

// Store is a concurrency-safe in-memory node store.
type Store struct {
	mu     sync.Mutex
	nodes  map[string]*record
	seq    uint64
	calls  []Call
	now    func() time.Time
	failOn map[Call]error
}

// New creates a store whose workspaces exist as empty root nodes.
func New(workspaces ...string) *Store {
	s := &Store{
		nodes:  make(map[string]*record),
		now:    time.Now,
		failOn: make(map[Call]error),
	}
	for _, ws := range workspaces {
		s.nodes["/"+strings.Trim(ws, "/")] = &record{typ: "rep:root", identifier: uuid.NewString(), props: map[string]wire.Property{}}
	}
	return s
}

// Seed creates nodes at the given paths without recording calls. Missing
// parents are created with type typ.
func (s *Store) Seed(typ string, paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		parts := split(p)
		current := ""
		for _, part := range parts {
			current += "/" + part
			if _, ok := s.nodes[current]; !ok {
				s.insert(current, &wire.Node{Type: typ})
			}
		}
	}
}

// FailOn makes the next matching call return err.
func (s *Store) FailOn(op, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[Call{Op: op, Path: clean(path)}] = err
}

// Calls returns the recorded calls in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many calls of op were recorded.
func (s *Store) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls forgets the recorded calls.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Exists reports whether a node exists at path.
func (s *Store) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[clean(path)]
	return ok
}

func (s *Store) track(op, path string) error {
	c := Call{Op: op, Path: clean(path)}
	s.calls = append(s.calls, c)
	if err, ok := s.failOn[c]; ok {
		delete(s.failOn, c)
		return err
	}
	return nil
}

func (s *Store) FetchNode(ctx context.Context, path string, q wire.Query) (*wire.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track(OpFetch, path); err != nil {
		return nil, err
	}
	path = clean(path)
	if _, ok := s.nodes[path]; !ok {
		return nil, apierr.NotFound(http.MethodGet, path)
	}
	return s.build(path, q, q.Depth), nil
}

func (s *Store) build(path string, q wire.Query, depth int) *wire.Node {
	r := s.nodes[path]
	n := &wire.Node{
		Name:       base(path),
		Identifier: r.identifier,
		Type:       r.typ,
		Path:       path,
		Properties: []wire.Property{},
	}
	for _, name := range r.propOrder {
		if !q.IncludeMetadata && (name == CreatedProperty || name == LastModifiedProperty) {
			continue
		}
		n.Properties = append(n.Properties, clone(r.props[name]))
	}
	if depth <= 0 {
		return n
	}
	for _, child := range s.children(path) {
		if slices.Contains(q.ExcludeNodeTypes, s.nodes[child].typ) {
			continue
		}
		n.Nodes = append(n.Nodes, s.build(child, q, depth-1))
	}
	return n
}

func (s *Store) children(path string) []string {
	var out []string
	prefix := path + "/"
	for p := range s.nodes {
		if rest, ok := strings.CutPrefix(p, prefix); ok && !strings.Contains(rest, "/") {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(s.nodes[a].seq, s.nodes[b].seq)
	})
	return out
}

func (s *Store) PutNode(ctx context.Context, parentPath string, n *wire.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track(OpPut, parentPath); err != nil {
		return err
	}
	parentPath = clean(parentPath)
	if _, ok := s.nodes[parentPath]; !ok {
		return apierr.NotFound(http.MethodPut, parentPath)
	}
	if n.Name == "" {
		return &apierr.ResponseError{Method: http.MethodPut, URL: parentPath, Path: parentPath, Status: http.StatusBadRequest, Body: "node name is required"}
	}
	path := join(parentPath, n.Name)
	if _, ok := s.nodes[path]; ok {
		return &apierr.ResponseError{Method: http.MethodPut, URL: parentPath, Path: path, Status: http.StatusConflict, Body: fmt.Sprintf("node %s already exists", path)}
	}
	s.insert(path, n)
	return nil
}

func (s *Store) insert(path string, n *wire.Node) {
	s.seq++
	r := &record{typ: n.Type, identifier: uuid.NewString(), seq: s.seq, props: map[string]wire.Property{}}
	s.nodes[path] = r
	for _, p := range n.Properties {
		r.set(clone(p))
	}
	r.set(wire.Property{Name: CreatedProperty, Type: "Date", Values: []string{s.now().UTC().Format(time.RFC3339)}})
	for _, c := range n.Nodes {
		s.insert(join(path, c.Name), c)
	}
}

func (s *Store) PostNode(ctx context.Context, path string, n *wire.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track(OpPost, path); err != nil {
		return err
	}
	r, ok := s.nodes[clean(path)]
	if !ok {
		return apierr.NotFound(http.MethodPost, path)
	}
	for _, p := range n.Properties {
		r.set(clone(p))
	}
	r.set(wire.Property{Name: LastModifiedProperty, Type: "Date", Values: []string{s.now().UTC().Format(time.RFC3339)}})
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track(OpDeleteProperty, path+"/"+name); err != nil {
		return err
	}
	r, ok := s.nodes[clean(path)]
	if !ok {
		return apierr.NotFound(http.MethodDelete, path)
	}
	if _, ok := r.props[name]; !ok {
		return apierr.NotFound(http.MethodDelete, path+"/"+name)
	}
	delete(r.props, name)
	r.propOrder = slices.DeleteFunc(r.propOrder, func(s string) bool { return s == name })
	return nil
}

func (s *Store) DeleteNode(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track(OpDeleteNode, path); err != nil {
		return err
	}
	path = clean(path)
	if _, ok := s.nodes[path]; !ok {
		return apierr.NotFound(http.MethodDelete, path)
	}
	for p := range s.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(s.nodes, p)
		}
	}
	return nil
}

func (r *record) set(p wire.Property) {
	if _, ok := r.props[p.Name]; !ok {
		r.propOrder = append(r.propOrder, p.Name)
	}
	r.props[p.Name] = p
}

func clone(p wire.Property) wire.Property {
	p.Values = slices.Clone(p.Values)
	return p
}

func split(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func clean(path string) string {
	return "/" + strings.Join(split(path), "/")
}

func join(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func base(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
