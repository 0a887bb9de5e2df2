package jcr

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/remote"
)

// Defaults applied when an option is not given.
const (
	DefaultDepth           = 0
	DefaultIncludeMetadata = true
	DefaultConcurrency     = 4
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	User     string
	Password string

	Depth            int
	IncludeMetadata  bool
	ExcludeNodeTypes []string

	PageTemplate      string
	AreaTemplate      string
	ComponentTemplate string

	Store       Store
	HTTPClient  *http.Client
	MaxAttempts int
	Concurrency int

	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Depth:           DefaultDepth,
		IncludeMetadata: DefaultIncludeMetadata,
		MaxAttempts:     remote.DefaultMaxAttempts,
		Concurrency:     DefaultConcurrency,
	}
}

// WithBaseURL sets the REST base, e.g. "http://localhost:8080/.rest".
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithCredentials sets the basic auth user and password.
func WithCredentials(user, password string) Option {
	return func(o *Options) {
		o.User = user
		o.Password = password
	}
}

// WithDefaultDepth sets the depth used by Get when none is given.
func WithDefaultDepth(depth int) Option {
	return func(o *Options) { o.Depth = depth }
}

// WithDefaultMetadata sets whether Get includes metadata properties by default.
func WithDefaultMetadata(include bool) Option {
	return func(o *Options) { o.IncludeMetadata = include }
}

// WithDefaultExcludedNodeTypes sets node types Get leaves out by default.
func WithDefaultExcludedNodeTypes(types ...string) Option {
	return func(o *Options) { o.ExcludeNodeTypes = types }
}

// WithTemplates sets default templates for pages, areas and components.
func WithTemplates(page, area, component string) Option {
	return func(o *Options) {
		o.PageTemplate = page
		o.AreaTemplate = area
		o.ComponentTemplate = component
	}
}

// WithStore replaces the HTTP store, e.g. with an in-memory one.
func WithStore(s Store) Option {
	return func(o *Options) { o.Store = s }
}

// WithHTTPClient sets the client used by the HTTP store.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.HTTPClient = c }
}

// WithMaxAttempts sets how often a request failing with 5xx or a network error is tried.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithConcurrency sets how many sibling nodes are created or saved in parallel.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics registers request metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) { o.Registerer = reg }
}

// GetOption overrides the client defaults for one fetch.
type GetOption func(*Query)

// WithDepth sets how many levels of children are returned.
func WithDepth(depth int) GetOption {
	return func(q *Query) { q.Depth = depth }
}

// WithMetadata sets whether metadata properties are returned.
func WithMetadata(include bool) GetOption {
	return func(q *Query) { q.IncludeMetadata = include }
}

// WithExcludedNodeTypes sets the node types left out of the response.
// Calling it without types disables the client default.
func WithExcludedNodeTypes(types ...string) GetOption {
	return func(q *Query) { q.ExcludeNodeTypes = types }
}

// CreateOption configures Create.
type CreateOption func(*createOptions)

type createOptions struct {
	proto    *Node
	protoSet bool
}

// WithParentPrototype makes Create build missing ancestors from proto.
func WithParentPrototype(proto *Node) CreateOption {
	return func(o *createOptions) {
		o.proto = proto
		o.protoSet = true
	}
}
