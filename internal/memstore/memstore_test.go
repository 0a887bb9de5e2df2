package memstore

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/aweris/jcr/internal/apierr"
	"github.com/aweris/jcr/internal/wire"
)

func TestPutRequiresParent(t *testing.T) {
	s := New("website")
	ctx := context.Background()

	err := s.PutNode(ctx, "/website/a", &wire.Node{Name: "b", Type: "mgnl:content"})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.PutNode(ctx, "/website", &wire.Node{Name: "a", Type: "mgnl:content"}); err != nil {
		t.Fatal(err)
	}
	err = s.PutNode(ctx, "/website", &wire.Node{Name: "a", Type: "mgnl:content"})
	assert.Equal(t, apierr.StatusOf(err), http.StatusConflict)
}

func TestPutStoresSubtree(t *testing.T) {
	s := New("website")
	ctx := context.Background()
	n := &wire.Node{
		Name:  "a",
		Type:  "mgnl:page",
		Nodes: []*wire.Node{{Name: "main", Type: "mgnl:area"}},
	}
	if err := s.PutNode(ctx, "/website", n); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, s.Exists("/website/a/main"), true)
}

func TestFetchDepthAndFilters(t *testing.T) {
	s := New("website")
	s.Seed("mgnl:page", "/website/a/b/c")
	s.Seed("mgnl:area", "/website/a/main")
	ctx := context.Background()

	n, err := s.FetchNode(ctx, "/website/a", wire.Query{Depth: 1, IncludeMetadata: true})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(n.Nodes), 2)
	assert.Equal(t, n.Nodes[0].Name, "b")
	assert.Equal(t, len(n.Nodes[0].Nodes), 0)
	if _, ok := n.Property(CreatedProperty); !ok {
		t.Error("expected creation stamp")
	}

	n, err = s.FetchNode(ctx, "/website/a", wire.Query{Depth: 5, ExcludeNodeTypes: []string{"mgnl:area"}})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(n.Nodes), 1)
	assert.Equal(t, n.Nodes[0].Nodes[0].Path, "/website/a/b/c")
	if _, ok := n.Property(CreatedProperty); ok {
		t.Error("metadata should be stripped")
	}
}

func TestPostMergesProperties(t *testing.T) {
	s := New("website")
	s.Seed("mgnl:content", "/website/a")
	ctx := context.Background()

	_ = s.PostNode(ctx, "/website/a", &wire.Node{Properties: []wire.Property{{Name: "x", Type: "String", Values: []string{"1"}}}})
	_ = s.PostNode(ctx, "/website/a", &wire.Node{Properties: []wire.Property{{Name: "y", Type: "String", Values: []string{"2"}}}})

	n, _ := s.FetchNode(ctx, "/website/a", wire.Query{IncludeMetadata: true})
	_, hasX := n.Property("x")
	_, hasY := n.Property("y")
	_, modified := n.Property(LastModifiedProperty)
	assert.Equal(t, hasX, true)
	assert.Equal(t, hasY, true)
	assert.Equal(t, modified, true)

	err := s.PostNode(ctx, "/website/missing", &wire.Node{})
	assert.Equal(t, apierr.IsNotFound(err), true)
}

func TestDeletes(t *testing.T) {
	s := New("website")
	s.Seed("mgnl:content", "/website/a/b")
	ctx := context.Background()
	_ = s.PostNode(ctx, "/website/a", &wire.Node{Properties: []wire.Property{{Name: "x", Type: "String", Values: []string{"1"}}}})

	assert.Equal(t, s.DeleteProperty(ctx, "/website/a", "x"), nil)
	assert.Equal(t, apierr.IsNotFound(s.DeleteProperty(ctx, "/website/a", "x")), true)

	assert.Equal(t, s.DeleteNode(ctx, "/website/a"), nil)
	assert.Equal(t, s.Exists("/website/a/b"), false)
	assert.Equal(t, s.Exists("/website"), true)
}

func TestCallsAndFailures(t *testing.T) {
	s := New("website")
	ctx := context.Background()
	boom := errors.New("boom")
	s.FailOn(OpFetch, "/website", boom)

	if _, err := s.FetchNode(ctx, "/website", wire.Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := s.FetchNode(ctx, "/website/", wire.Query{}); err != nil {
		t.Fatalf("failure should fire once: %v", err)
	}
	assert.Equal(t, s.Calls(), []Call{{OpFetch, "/website"}, {OpFetch, "/website"}})
	assert.Equal(t, s.Count(OpFetch), 2)

	s.ResetCalls()
	assert.Equal(t, len(s.Calls()), 0)
}
