package jcr

import (
	"encoding/base64"
	"path"
	"strings"
)

// Kind classifies nodes by their type.
type Kind int

const (
	KindUnknown Kind = iota
	KindPage
	KindArea
	KindComponent
	KindAsset
	KindFolder
	KindContent
)

// Node types used by the content server.
const (
	NodeTypePage      = "mgnl:page"
	NodeTypeArea      = "mgnl:area"
	NodeTypeComponent = "mgnl:component"
	NodeTypeAsset     = "mgnl:asset"
	NodeTypeResource  = "mgnl:resource"
	NodeTypeFolder    = "mgnl:folder"
	NodeTypeContent   = "mgnl:content"
)

// TemplateProperty names the template a page, area or component renders with.
const TemplateProperty = "mgnl:template"

var kindTypes = map[string]Kind{
	NodeTypePage:      KindPage,
	NodeTypeArea:      KindArea,
	NodeTypeComponent: KindComponent,
	NodeTypeAsset:     KindAsset,
	NodeTypeFolder:    KindFolder,
	NodeTypeContent:   KindContent,
}

func kindOf(typ string) Kind {
	return kindTypes[typ]
}

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindArea:
		return "area"
	case KindComponent:
		return "component"
	case KindAsset:
		return "asset"
	case KindFolder:
		return "folder"
	case KindContent:
		return "content"
	}
	return "unknown"
}

// NewPage creates a page node rendered with template.
func NewPage(path, template string) *Node {
	return newTemplated(path, NodeTypePage, template)
}

// NewArea creates an area node.
func NewArea(path, template string) *Node {
	return newTemplated(path, NodeTypeArea, template)
}

// NewComponent creates a component node.
func NewComponent(path, template string) *Node {
	return newTemplated(path, NodeTypeComponent, template)
}

// NewFolder creates a folder node. Folders make a neutral parent prototype.
func NewFolder(path string) *Node {
	return NewNode(path, NodeTypeFolder)
}

func newTemplated(path, typ, template string) *Node {
	n := NewNode(path, typ)
	if template != "" {
		n.putProperty(Property{Name: TemplateProperty, Type: TypeString, Value: template})
	}
	return n
}

// Template returns the template of a page, area or component, if set.
func (n *Node) Template() string {
	s, _ := n.GetProperty(TemplateProperty).(string)
	return s
}

// NewAsset creates an asset whose jcr:content child carries data as a base64
// Binary property. The bytes cannot be read back through property decoding.
func NewAsset(nodePath, fileName, mimeType string, data []byte) *Node {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")

	asset := NewNode(nodePath, NodeTypeAsset)
	asset.putProperty(Property{Name: "name", Type: TypeString, Value: strings.TrimSuffix(fileName, path.Ext(fileName))})
	if ext != "" {
		asset.putProperty(Property{Name: "type", Type: TypeString, Value: ext})
	}

	res := NewNode("jcr:content", NodeTypeResource)
	res.putProperty(Property{Name: "jcr:data", Type: TypeBinary, Value: base64.StdEncoding.EncodeToString(data)})
	res.putProperty(Property{Name: "fileName", Type: TypeString, Value: fileName})
	res.putProperty(Property{Name: "jcr:mimeType", Type: TypeString, Value: mimeType})
	res.putProperty(Property{Name: "size", Type: TypeLong, Value: int64(len(data))})
	if ext != "" {
		res.putProperty(Property{Name: "extension", Type: TypeString, Value: ext})
	}
	asset.AddNode(res)
	return asset
}
