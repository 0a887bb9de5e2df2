package jcr

import (
	"maps"
	"slices"
	"strings"
)

// Node is a typed, named point in the content tree. Nodes form a tree where
// each node owns its children; the parent reference is used only by Up.
//
// Mutations are local. Changed and removed property names are tracked per node
// so Save sends only what differs from the server.
type Node struct {
	path       string
	name       string
	typ        string
	identifier string

	properties map[string]Property
	children   map[string]*Node
	order      []string

	parent *Node

	changed map[string]struct{}
	removed map[string]struct{}

	persisted bool
}

// NewNode creates a local node. Its name is the last segment of path.
func NewNode(path, typ string) *Node {
	n := &Node{typ: typ}
	n.init()
	n.setPath(path)
	return n
}

func (n *Node) init() {
	n.properties = make(map[string]Property)
	n.children = make(map[string]*Node)
	n.order = nil
	n.changed = make(map[string]struct{})
	n.removed = make(map[string]struct{})
}

// Path returns the absolute path, workspace included.
func (n *Node) Path() string { return n.path }

// Name returns the last path segment.
func (n *Node) Name() string { return n.name }

// Type returns the node type, e.g. "mgnl:page".
func (n *Node) Type() string { return n.typ }

// Identifier returns the server-assigned identifier, empty until loaded.
func (n *Node) Identifier() string { return n.identifier }

// Persisted reports whether the node was loaded from or created on the server.
func (n *Node) Persisted() bool { return n.persisted }

// Workspace returns the first segment of the path.
func (n *Node) Workspace() string {
	ws, _, _ := strings.Cut(strings.TrimPrefix(n.path, "/"), "/")
	return ws
}

// ParentPath returns the path of the parent node.
func (n *Node) ParentPath() string {
	return parentPath(n.path)
}

// SetType changes the node type.
func (n *Node) SetType(typ string) { n.typ = typ }

// SetPath moves the node and all of its descendants under path.
func (n *Node) SetPath(path string) {
	n.setPath(path)
}

func (n *Node) setPath(path string) {
	n.path = path
	n.name = baseName(path)
	for _, name := range n.order {
		n.children[name].setPath(joinPath(n.path, name))
	}
}

// SetProperty stores value under name, inferring its type. A nil value deletes
// the property.
func (n *Node) SetProperty(name string, value any) error {
	if value == nil {
		n.DeleteProperty(name)
		return nil
	}
	if p, ok := value.(Property); ok {
		p.Name = name
		return n.setPrepared(p)
	}
	p, err := NewProperty(name, value)
	if err != nil {
		return err
	}
	n.putProperty(p)
	return nil
}

// SetTypedProperty stores value under name with an explicit type.
func (n *Node) SetTypedProperty(name string, typ PropertyType, value any) error {
	if value == nil {
		n.DeleteProperty(name)
		return nil
	}
	p, err := NewTypedProperty(name, typ, value)
	if err != nil {
		return err
	}
	n.putProperty(p)
	return nil
}

// setPrepared stores a caller-built Property. A nil value deletes it and an
// unknown type is rejected.
func (n *Node) setPrepared(p Property) error {
	if p.Value == nil {
		n.DeleteProperty(p.Name)
		return nil
	}
	t, ok := ParsePropertyType(string(p.Type))
	if !ok {
		return invalidArgf("property %q: unknown type %q", p.Name, p.Type)
	}
	p.Type = t
	n.putProperty(p)
	return nil
}

func (n *Node) putProperty(p Property) {
	n.properties[p.Name] = p
	delete(n.removed, p.Name)
	n.changed[p.Name] = struct{}{}
}

// SetProperties is the bulk form of SetProperty. bag is a map of names to
// values or Properties, or a slice of Properties.
func (n *Node) SetProperties(bag any) error {
	switch b := bag.(type) {
	case map[string]any:
		for _, name := range slices.Sorted(maps.Keys(b)) {
			if err := n.SetProperty(name, b[name]); err != nil {
				return err
			}
		}
	case map[string]Property:
		for _, name := range slices.Sorted(maps.Keys(b)) {
			if err := n.SetProperty(name, b[name]); err != nil {
				return err
			}
		}
	case []Property:
		for _, p := range b {
			if p.Name == "" {
				return invalidArgf("property without name")
			}
			if err := n.setPrepared(p); err != nil {
				return err
			}
		}
	default:
		return invalidArgf("properties must be a map or a slice of Property, got %T", bag)
	}
	return nil
}

// GetProperty returns the value of the named property, or nil.
func (n *Node) GetProperty(name string) any {
	p, ok := n.properties[name]
	if !ok {
		return nil
	}
	return p.Value
}

// Property returns the named property.
func (n *Node) Property(name string) (Property, bool) {
	p, ok := n.properties[name]
	return p, ok
}

// Properties returns all properties sorted by name.
func (n *Node) Properties() []Property {
	out := make([]Property, 0, len(n.properties))
	for _, name := range slices.Sorted(maps.Keys(n.properties)) {
		out = append(out, n.properties[name])
	}
	return out
}

// DeleteProperty removes the named property. Deleting an absent property is a no-op.
func (n *Node) DeleteProperty(name string) {
	if _, ok := n.properties[name]; !ok {
		return
	}
	delete(n.properties, name)
	delete(n.changed, name)
	n.removed[name] = struct{}{}
}

// ChangedProperties returns the names set since the last sync.
func (n *Node) ChangedProperties() []string {
	return slices.Sorted(maps.Keys(n.changed))
}

// RemovedProperties returns the names deleted since the last sync.
func (n *Node) RemovedProperties() []string {
	return slices.Sorted(maps.Keys(n.removed))
}

// IsDirty reports whether the node has unsynced property changes.
func (n *Node) IsDirty() bool {
	return len(n.changed) > 0 || len(n.removed) > 0
}

func (n *Node) clearChanged() { clear(n.changed) }
func (n *Node) clearRemoved() { clear(n.removed) }

// AddNode moves child under n and returns child so trees can be built in a chain.
func (n *Node) AddNode(child *Node) *Node {
	if old := child.parent; old != nil && old != n {
		old.RemoveNode(child.name)
	}
	if existing, ok := n.children[child.name]; !ok {
		n.order = append(n.order, child.name)
	} else if existing != child {
		// the replaced node keeps its slot in the order
		existing.parent = nil
	}
	n.children[child.name] = child
	child.parent = n
	child.setPath(joinPath(n.path, child.name))
	return child
}

// RemoveNode detaches the named child from the in-memory tree.
func (n *Node) RemoveNode(name string) *Node {
	child, ok := n.children[name]
	if !ok {
		return nil
	}
	delete(n.children, name)
	n.order = slices.DeleteFunc(n.order, func(s string) bool { return s == name })
	child.parent = nil
	return child
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// Children returns the direct children in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// Parent returns the parent if n was attached with AddNode or hydrated as a child.
func (n *Node) Parent() *Node {
	return n.parent
}

// Down resolves a relative path by child lookup. It returns nil as soon as a
// segment is missing.
func (n *Node) Down(rel string) *Node {
	current := n
	for _, part := range strings.Split(strings.Trim(rel, "/"), "/") {
		if part == "" {
			continue
		}
		next, ok := current.children[part]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// Up returns the parent node. Without one, a placeholder for the parent path
// is created and cached; it has no type and no properties.
func (n *Node) Up() *Node {
	if n.parent == nil {
		n.parent = NewNode(n.ParentPath(), "")
	}
	return n.parent
}

// Clone copies path, type and properties. Children and dirty state are not copied.
func (n *Node) Clone() *Node {
	c := NewNode(n.path, n.typ)
	maps.Copy(c.properties, n.properties)
	return c
}

// Kind returns the node kind derived from its type.
func (n *Node) Kind() Kind {
	return kindOf(n.typ)
}

// createPayload is the full document sent when creating the node.
func (n *Node) createPayload() *WireNode {
	wn := &WireNode{
		Name:       n.name,
		Type:       n.typ,
		Properties: make([]WireProperty, 0, len(n.properties)),
	}
	for _, p := range n.Properties() {
		wn.Properties = append(wn.Properties, EncodeProperty(p))
	}
	return wn
}

// savePayload carries only the changed properties.
func (n *Node) savePayload() *WireNode {
	wn := &WireNode{
		Name:       n.name,
		Type:       n.typ,
		Path:       n.path,
		Identifier: n.identifier,
		Properties: make([]WireProperty, 0, len(n.changed)),
	}
	for _, name := range n.ChangedProperties() {
		wn.Properties = append(wn.Properties, EncodeProperty(n.properties[name]))
	}
	return wn
}

// ToWire serializes the node and its subtree with all properties.
func (n *Node) ToWire() *WireNode {
	wn := n.createPayload()
	wn.Path = n.path
	wn.Identifier = n.identifier
	for _, c := range n.Children() {
		wn.Nodes = append(wn.Nodes, c.ToWire())
	}
	return wn
}

// FromWire builds a node tree from a server document rooted at path.
func FromWire(path string, wn *WireNode) (*Node, error) {
	n := &Node{}
	if err := n.hydrate(path, wn); err != nil {
		return nil, err
	}
	return n, nil
}

// hydrate replaces the node state with wn. Children paths are computed from
// path; dirty sets start empty.
func (n *Node) hydrate(path string, wn *WireNode) error {
	n.init()
	n.path = path
	n.name = baseName(path)
	n.typ = wn.Type
	n.identifier = wn.Identifier
	n.persisted = true

	for _, wp := range wn.Properties {
		p, err := DecodeProperty(wp)
		if err != nil {
			return err
		}
		n.properties[p.Name] = p
	}

	for _, wc := range wn.Nodes {
		child := &Node{parent: n}
		if err := child.hydrate(joinPath(path, wc.Name), wc); err != nil {
			return err
		}
		if _, exists := n.children[child.name]; !exists {
			n.order = append(n.order, child.name)
		}
		n.children[child.name] = child
	}
	return nil
}

func baseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func parentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

func joinPath(parent, name string) string {
	if parent == "" || strings.HasSuffix(parent, "/") {
		return parent + name
	}
	return parent + "/" + name
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
