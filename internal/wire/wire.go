// Package wire defines the JSON documents exchanged with the content server.
//
// Node schema:
//
//	{"name": "", "identifier": "", "type": "", "path": "", "properties": [...], "nodes": [...]}
//
// Property schema:
//
//	{"name": "", "type": "", "multiple": false, "values": ["..."]}
//
// Values are always strings, even for single-valued properties.
package wire

// Property is a type-tagged, string-encoded property.
type Property struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Multiple bool     `json:"multiple"`
	Values   []string `json:"values"`
}

// Node is a node as returned by the nodes endpoint.
type Node struct {
	Name       string     `json:"name"`
	Identifier string     `json:"identifier,omitempty"`
	Type       string     `json:"type"`
	Path       string     `json:"path,omitempty"`
	Properties []Property `json:"properties"`
	Nodes      []*Node    `json:"nodes,omitempty"`
}

// Query controls how much of a subtree FetchNode returns.
type Query struct {
	Depth            int
	IncludeMetadata  bool
	ExcludeNodeTypes []string
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Nodes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Property returns the property with the given name.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
