package jcr

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/apierr"
	"github.com/aweris/jcr/internal/remote"
)

// Client reads and writes node trees through a Store.
type Client struct {
	store       Store
	query       Query
	templates   templates
	concurrency int
	log         *zap.Logger
}

type templates struct {
	page, area, component string
}

// New creates a client. Without WithStore, base URL and credentials are
// required and requests go over HTTP.
func New(opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}

	store := options.Store
	if store == nil {
		if options.BaseURL == "" {
			return nil, invalidArgf("base URL is required, e.g. http://localhost:8080/.rest")
		}
		if options.User == "" {
			return nil, invalidArgf("user is required")
		}
		if options.Password == "" {
			return nil, invalidArgf("password is required")
		}
		hs, err := remote.New(remote.Config{
			BaseURL:     options.BaseURL,
			User:        options.User,
			Password:    options.Password,
			HTTPClient:  options.HTTPClient,
			MaxAttempts: options.MaxAttempts,
			Logger:      log,
			Registerer:  options.Registerer,
		})
		if err != nil {
			return nil, err
		}
		store = hs
	}

	return &Client{
		store: store,
		query: Query{
			Depth:            options.Depth,
			IncludeMetadata:  options.IncludeMetadata,
			ExcludeNodeTypes: options.ExcludeNodeTypes,
		},
		templates: templates{
			page:      options.PageTemplate,
			area:      options.AreaTemplate,
			component: options.ComponentTemplate,
		},
		concurrency: options.Concurrency,
		log:         log,
	}, nil
}

// Store returns the store the client talks to.
func (c *Client) Store() Store { return c.store }

// Node creates a local node bound to nothing; it is a shorthand for NewNode.
func (c *Client) Node(path, typ string) *Node {
	return NewNode(path, typ)
}

// Page creates a local page, using the default page template when template is empty.
func (c *Client) Page(path, template string) *Node {
	if template == "" {
		template = c.templates.page
	}
	return NewPage(path, template)
}

// Area creates a local area, using the default area template when template is empty.
func (c *Client) Area(path, template string) *Node {
	if template == "" {
		template = c.templates.area
	}
	return NewArea(path, template)
}

// Component creates a local component, using the default component template when template is empty.
func (c *Client) Component(path, template string) *Node {
	if template == "" {
		template = c.templates.component
	}
	return NewComponent(path, template)
}

func (c *Client) fetchQuery(opts []GetOption) Query {
	q := c.query
	q.ExcludeNodeTypes = slices.Clone(c.query.ExcludeNodeTypes)
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Get fetches the node at path and its children down to the requested depth.
func (c *Client) Get(ctx context.Context, path string, opts ...GetOption) (*Node, error) {
	wn, err := c.store.FetchNode(ctx, path, c.fetchQuery(opts))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	n, err := FromWire(path, wn)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return n, nil
}

// Load replaces the state of n with the server's copy. Local changes are discarded.
func (c *Client) Load(ctx context.Context, n *Node, opts ...GetOption) error {
	wn, err := c.store.FetchNode(ctx, n.path, c.fetchQuery(opts))
	if err != nil {
		return fmt.Errorf("load %s: %w", n.path, err)
	}
	if err := n.hydrate(n.path, wn); err != nil {
		return fmt.Errorf("load %s: %w", n.path, err)
	}
	return nil
}

// Create creates n and then its in-memory children. With WithParentPrototype,
// missing ancestors are created from the prototype first.
func (c *Client) Create(ctx context.Context, n *Node, opts ...CreateOption) error {
	var co createOptions
	for _, opt := range opts {
		opt(&co)
	}
	if co.protoSet {
		if co.proto == nil || co.proto.typ == "" {
			return invalidArgf("parent prototype for %s must be a node with a type", n.path)
		}
	}
	return c.create(ctx, n, co.proto)
}

// CreatePage creates a page, building missing parents as pages with the same template.
func (c *Client) CreatePage(ctx context.Context, page *Node) error {
	template := page.Template()
	if template == "" {
		template = c.templates.page
	}
	return c.create(ctx, page, NewPage("", template))
}

func (c *Client) create(ctx context.Context, n *Node, proto *Node) error {
	if err := c.put(ctx, n); err != nil {
		if proto == nil || !apierr.IsNotFound(err) {
			return err
		}
		c.log.Debug("parent missing, creating ancestors",
			zap.String("path", n.path),
			zap.Int("status", apierr.StatusOf(err)))
		if err := c.createMissingParents(ctx, n, proto); err != nil {
			return err
		}
	}
	return c.forEachChild(ctx, n, func(ctx context.Context, child *Node) error {
		return c.create(ctx, child, proto)
	})
}

func (c *Client) put(ctx context.Context, n *Node) error {
	if err := c.store.PutNode(ctx, n.ParentPath(), n.createPayload()); err != nil {
		return fmt.Errorf("create %s: %w", n.path, err)
	}
	n.clearChanged()
	n.clearRemoved()
	n.persisted = true
	return nil
}

// Save deletes removed properties, posts changed ones and then saves the
// children. Children that were never persisted are created instead.
func (c *Client) Save(ctx context.Context, n *Node) error {
	if err := c.update(ctx, n); err != nil {
		return err
	}
	return c.forEachChild(ctx, n, func(ctx context.Context, child *Node) error {
		if !child.persisted {
			return c.create(ctx, child, nil)
		}
		return c.Save(ctx, child)
	})
}

func (c *Client) update(ctx context.Context, n *Node) error {
	if err := c.deleteRemoved(ctx, n); err != nil {
		return err
	}
	if len(n.changed) == 0 {
		return nil
	}
	if err := c.store.PostNode(ctx, n.path, n.savePayload()); err != nil {
		return fmt.Errorf("save %s: %w", n.path, err)
	}
	n.clearChanged()
	n.persisted = true
	return nil
}

func (c *Client) deleteRemoved(ctx context.Context, n *Node) error {
	if len(n.removed) == 0 {
		return nil
	}

	var mu sync.Mutex
	var deleted []string

	p := pool.New().WithMaxGoroutines(c.concurrency).WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, name := range n.RemovedProperties() {
		p.Go(func(ctx context.Context) error {
			if err := c.store.DeleteProperty(ctx, n.path, name); err != nil {
				return fmt.Errorf("delete property %s/%s: %w", n.path, name, err)
			}
			mu.Lock()
			deleted = append(deleted, name)
			mu.Unlock()
			return nil
		})
	}
	err := p.Wait()

	for _, name := range deleted {
		delete(n.removed, name)
	}
	return err
}

// forEachChild runs fn for every child of n, in parallel.
func (c *Client) forEachChild(ctx context.Context, n *Node, fn func(context.Context, *Node) error) error {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}
	p := pool.New().WithMaxGoroutines(c.concurrency).WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, child := range children {
		p.Go(func(ctx context.Context) error {
			return fn(ctx, child)
		})
	}
	return p.Wait()
}

// Delete removes the node at path and its subtree.
func (c *Client) Delete(ctx context.Context, path string) error {
	if err := c.store.DeleteNode(ctx, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
