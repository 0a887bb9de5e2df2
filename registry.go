package jcr

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/remote"
)

// Config labels written on pushed snapshot images.
const (
	LabelSnapshotPath    = "dev.jcr.snapshot.path"
	LabelSnapshotCreated = "dev.jcr.snapshot.created"
	LabelSnapshotVersion = "dev.jcr.snapshot.version"
)

// SnapshotRegistry keeps snapshots in an OCI registry, one image per ref.
type SnapshotRegistry struct {
	target *remote.OCITarget
}

// RegistryOption configures NewSnapshotRegistry.
type RegistryOption func(*remote.OCIConfig)

// WithRegistryCredentials sets basic auth for the registry instead of the docker keychain.
func WithRegistryCredentials(user, password string) RegistryOption {
	return func(c *remote.OCIConfig) {
		c.User = user
		c.Password = password
	}
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(c *remote.OCIConfig) { c.Logger = l }
}

// NewSnapshotRegistry targets imageRef, e.g. "ttl.sh/jcr/website:v1".
func NewSnapshotRegistry(imageRef string, opts ...RegistryOption) (*SnapshotRegistry, error) {
	var cfg remote.OCIConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	t, err := remote.NewOCITarget(imageRef, cfg)
	if err != nil {
		return nil, invalidArgf("%v", err)
	}
	return &SnapshotRegistry{target: t}, nil
}

// Push uploads snap and returns the manifest digest.
func (r *SnapshotRegistry) Push(ctx context.Context, snap *Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		return "", err
	}
	return r.target.Push(ctx, buf.Bytes(), map[string]string{
		LabelSnapshotPath:    snap.Path,
		LabelSnapshotCreated: snap.Created.Format(time.RFC3339),
		LabelSnapshotVersion: strconv.Itoa(snap.Version),
	})
}

// Pull downloads and decodes the snapshot at the registry ref.
func (r *SnapshotRegistry) Pull(ctx context.Context) (*Snapshot, error) {
	data, _, err := r.target.Pull(ctx)
	if err != nil {
		return nil, err
	}
	return ReadSnapshot(bytes.NewReader(data))
}

func (r *SnapshotRegistry) String() string { return r.target.String() }
