package jcr

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestNewNodePaths(t *testing.T) {
	n := NewNode("/website/travel/about", NodeTypePage)
	assert.Equal(t, n.Name(), "about")
	assert.Equal(t, n.Workspace(), "website")
	assert.Equal(t, n.ParentPath(), "/website/travel")
	assert.Equal(t, n.Kind(), KindPage)
	assert.Equal(t, n.Persisted(), false)

	top := NewNode("/website", "rep:root")
	assert.Equal(t, top.ParentPath(), "/")
}

func TestDirtyTracking(t *testing.T) {
	n := NewNode("/website/a", NodeTypeContent)
	assert.Equal(t, n.IsDirty(), false)

	if err := n.SetProperty("title", "Hello"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, n.ChangedProperties(), []string{"title"})

	n.DeleteProperty("title")
	assert.Equal(t, len(n.ChangedProperties()), 0)
	assert.Equal(t, n.RemovedProperties(), []string{"title"})
	assert.Equal(t, n.GetProperty("title"), nil)

	if err := n.SetProperty("title", "Again"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, n.ChangedProperties(), []string{"title"})
	assert.Equal(t, len(n.RemovedProperties()), 0)

	// absent property: nothing to remove
	n.DeleteProperty("missing")
	assert.Equal(t, len(n.RemovedProperties()), 0)

	if err := n.SetProperty("title", nil); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, n.RemovedProperties(), []string{"title"})
	assert.Equal(t, n.IsDirty(), true)
}

func TestSetTypedProperty(t *testing.T) {
	n := NewNode("/website/a", NodeTypeContent)
	if err := n.SetTypedProperty("link", TypePath, "/website/b"); err != nil {
		t.Fatal(err)
	}
	p, ok := n.Property("link")
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Type, TypePath)
	assert.Equal(t, p.Value, "/website/b")
}

func TestSetProperties(t *testing.T) {
	n := NewNode("/website/a", NodeTypeContent)
	err := n.SetProperties(map[string]any{"title": "T", "count": 2})
	assert.Equal(t, err, nil)
	assert.Equal(t, n.GetProperty("count"), int64(2))
	assert.Equal(t, n.ChangedProperties(), []string{"count", "title"})

	err = n.SetProperties([]Property{{Name: "flag", Type: TypeBoolean, Value: true}})
	assert.Equal(t, err, nil)
	assert.Equal(t, n.GetProperty("flag"), true)

	if err := n.SetProperties(42); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := n.SetProperties([]Property{{Type: TypeString, Value: "x"}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unnamed property, got %v", err)
	}
}

func TestSetPreparedProperty(t *testing.T) {
	n := NewNode("/website/a", NodeTypeContent)
	if err := n.SetProperty("title", Property{Type: PropertyType("string"), Value: "T"}); err != nil {
		t.Fatal(err)
	}
	p, _ := n.Property("title")
	assert.Equal(t, p.Type, TypeString)

	// a nil value deletes like SetProperty(name, nil)
	if err := n.SetProperty("title", Property{Type: TypeString}); err != nil {
		t.Fatal(err)
	}
	if _, ok := n.Property("title"); ok {
		t.Error("expected title to be deleted")
	}
	assert.Equal(t, n.RemovedProperties(), []string{"title"})

	for _, typ := range []PropertyType{"", "Blob"} {
		if err := n.SetProperty("x", Property{Type: typ, Value: "x"}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("type %q: expected ErrInvalidArgument, got %v", typ, err)
		}
		if err := n.SetProperties([]Property{{Name: "x", Type: typ, Value: "x"}}); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("type %q: expected ErrInvalidArgument from SetProperties, got %v", typ, err)
		}
	}
	if _, ok := n.Property("x"); ok {
		t.Error("rejected property was stored")
	}

	if err := n.SetProperties([]Property{{Name: "count", Type: TypeLong, Value: int64(1)}, {Name: "count"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := n.Property("count"); ok {
		t.Error("expected count to be deleted by its nil entry")
	}
}

func TestTreeNavigation(t *testing.T) {
	root := NewNode("/website/home", NodeTypePage)
	area := root.AddNode(NewNode("main", NodeTypeArea))
	teaser := area.AddNode(NewNode("teaser", NodeTypeComponent))

	assert.Equal(t, area.Path(), "/website/home/main")
	assert.Equal(t, teaser.Path(), "/website/home/main/teaser")
	assert.Equal(t, root.Down("main/teaser"), teaser)
	assert.Equal(t, root.Down("/main/teaser/"), teaser)
	if root.Down("main/missing") != nil {
		t.Error("expected nil for a missing segment")
	}
	assert.Equal(t, teaser.Up(), area)
	assert.Equal(t, teaser.Parent(), area)

	// moving the subtree rewrites every descendant path
	root.SetPath("/website/start")
	assert.Equal(t, teaser.Path(), "/website/start/main/teaser")
}

func TestAddNodeMovesChild(t *testing.T) {
	a := NewNode("/website/a", NodeTypeFolder)
	b := NewNode("/website/b", NodeTypeFolder)
	child := a.AddNode(NewNode("c", NodeTypeContent))

	b.AddNode(child)
	if a.Child("c") != nil {
		t.Error("child still attached to old parent")
	}
	assert.Equal(t, child.Path(), "/website/b/c")
	assert.Equal(t, len(b.Children()), 1)
}

func TestAddNodeReplacesSameName(t *testing.T) {
	n := NewNode("/website/a", NodeTypeFolder)
	n.AddNode(NewNode("first", NodeTypeContent))
	old := n.AddNode(NewNode("c", NodeTypeContent))
	n.AddNode(NewNode("last", NodeTypeContent))
	replacement := n.AddNode(NewNode("c", NodeTypeArea))

	if old.Parent() != nil {
		t.Fatal("replaced child still points at its old parent")
	}
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name())
	}
	assert.Equal(t, names, []string{"first", "c", "last"})

	// reattaching the replaced node elsewhere leaves the replacement alone
	other := NewNode("/website/b", NodeTypeFolder)
	other.AddNode(old)
	assert.Equal(t, n.Child("c") == replacement, true)
	assert.Equal(t, old.Path(), "/website/b/c")
}

func TestChildrenKeepInsertionOrder(t *testing.T) {
	n := NewNode("/website/a", NodeTypeFolder)
	for _, name := range []string{"z", "a", "m"} {
		n.AddNode(NewNode(name, NodeTypeContent))
	}
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name())
	}
	assert.Equal(t, names, []string{"z", "a", "m"})

	n.RemoveNode("a")
	assert.Equal(t, len(n.Children()), 2)
	if n.RemoveNode("a") != nil {
		t.Error("removing twice should return nil")
	}
}

func TestUpCreatesPlaceholder(t *testing.T) {
	n := NewNode("/website/a/b", NodeTypeContent)
	up := n.Up()
	assert.Equal(t, up.Path(), "/website/a")
	assert.Equal(t, up.Type(), "")
	assert.Equal(t, len(up.Properties()), 0)
	if n.Up() != up {
		t.Error("Up should return the cached placeholder")
	}
}

func TestClone(t *testing.T) {
	n := NewPage("/website/a", "travel:pages/home")
	n.AddNode(NewNode("main", NodeTypeArea))

	c := n.Clone()
	assert.Equal(t, c.Path(), n.Path())
	assert.Equal(t, c.Type(), NodeTypePage)
	assert.Equal(t, c.Template(), "travel:pages/home")
	assert.Equal(t, len(c.Children()), 0)

	_ = c.SetProperty("title", "only on the clone")
	assert.Equal(t, n.GetProperty("title"), nil)
}

func TestFromWire(t *testing.T) {
	wn := &WireNode{
		Name:       "home",
		Identifier: "id-1",
		Type:       NodeTypePage,
		Properties: []WireProperty{{Name: "title", Type: "String", Values: []string{"Home"}}},
		Nodes: []*WireNode{{
			Name:       "main",
			Type:       NodeTypeArea,
			Properties: []WireProperty{{Name: "tags", Type: "String", Multiple: true, Values: []string{"a", "b"}}},
		}},
	}
	n, err := FromWire("/website/home", wn)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, n.Identifier(), "id-1")
	assert.Equal(t, n.Persisted(), true)
	assert.Equal(t, n.IsDirty(), false)
	assert.Equal(t, n.GetProperty("title"), "Home")

	area := n.Child("main")
	assert.Equal(t, area.Path(), "/website/home/main")
	assert.Equal(t, area.Parent(), n)
	assert.Equal(t, area.GetProperty("tags"), []string{"a", "b"})
}

func TestFromWireRejectsUnknownType(t *testing.T) {
	wn := &WireNode{Name: "x", Type: NodeTypeContent, Properties: []WireProperty{{Name: "p", Type: "Blob", Values: []string{"?"}}}}
	if _, err := FromWire("/website/x", wn); !errors.Is(err, ErrUnsupportedPropertyType) {
		t.Fatalf("expected ErrUnsupportedPropertyType, got %v", err)
	}
}

func TestToWire(t *testing.T) {
	n := NewPage("/website/home", "home")
	n.AddNode(NewArea("main", ""))
	wn := n.ToWire()
	assert.Equal(t, wn.Name, "home")
	assert.Equal(t, wn.Path, "/website/home")
	assert.Equal(t, len(wn.Nodes), 1)
	assert.Equal(t, wn.Nodes[0].Path, "/website/home/main")
	p, ok := wn.Property(TemplateProperty)
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Values, []string{"home"})
}

func TestNewAsset(t *testing.T) {
	a := NewAsset("/dam/logo", "logo.png", "image/png", []byte("png"))
	assert.Equal(t, a.Kind(), KindAsset)
	assert.Equal(t, a.GetProperty("type"), "png")

	res := a.Child("jcr:content")
	assert.Equal(t, res.Type(), NodeTypeResource)
	assert.Equal(t, res.GetProperty("size"), int64(3))
	p, _ := res.Property("jcr:data")
	assert.Equal(t, p.Type, TypeBinary)
	assert.Equal(t, p.Value, "cG5n")
}

func TestDirtySetsStayDisjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	names := []string{"a", "b", "c", "d"}
	n := NewNode("/website/x", NodeTypeContent)

	for range 500 {
		name := names[rng.IntN(len(names))]
		if rng.IntN(2) == 0 {
			_ = n.SetProperty(name, rng.IntN(10))
		} else {
			n.DeleteProperty(name)
		}
		for _, c := range n.ChangedProperties() {
			if slices.Contains(n.RemovedProperties(), c) {
				t.Fatalf("%q is both changed and removed", c)
			}
			if _, ok := n.Property(c); !ok {
				t.Fatalf("changed %q has no value", c)
			}
		}
		for _, r := range n.RemovedProperties() {
			if _, ok := n.Property(r); ok {
				t.Fatalf("removed %q still has a value", r)
			}
		}
	}
}
