package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"go.uber.org/zap"
)

// SnapshotMediaType is the layer media type of a pushed snapshot file.
const SnapshotMediaType types.MediaType = "application/vnd.jcr.snapshot.v1+zstd"

// OCIConfig configures an OCITarget. Without credentials the docker keychain is used.
type OCIConfig struct {
	User        string
	Password    string
	MaxAttempts int
	Logger      *zap.Logger
}

// OCITarget stores snapshot files as single-layer artifacts in an OCI registry.
type OCITarget struct {
	ref         name.Reference
	auth        authn.Authenticator
	maxAttempts int
	log         *zap.Logger
}

// NewOCITarget parses a standard image ref, e.g. "ttl.sh/jcr/website:v1".
func NewOCITarget(imageRef string, cfg OCIConfig) (*OCITarget, error) {
	ref, err := name.ParseReference(imageRef, name.WithDefaultTag("latest"))
	if err != nil {
		return nil, fmt.Errorf("invalid image ref %q: %w", imageRef, err)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	t := &OCITarget{ref: ref, maxAttempts: cfg.MaxAttempts, log: cfg.Logger}
	if cfg.User != "" {
		t.auth = &authn.Basic{Username: cfg.User, Password: cfg.Password}
	}
	return t, nil
}

func (t *OCITarget) String() string { return t.ref.String() }

// Push uploads data as the only layer of an OCI image and returns the manifest digest.
// Labels end up in the image config.
func (t *OCITarget) Push(ctx context.Context, data []byte, labels map[string]string) (string, error) {
	img, err := buildImage(data, labels)
	if err != nil {
		return "", fmt.Errorf("build image: %w", err)
	}
	digest, err := img.Digest()
	if err != nil {
		return "", err
	}

	_, err = retry(ctx, t.maxAttempts, func() (struct{}, error) {
		return struct{}{}, registryErr(remote.Write(t.ref, img, t.options(ctx)...))
	})
	if err != nil {
		return "", fmt.Errorf("push %s: %w", t.ref, err)
	}
	t.log.Info("pushed snapshot", zap.String("ref", t.ref.String()), zap.String("digest", digest.String()))
	return digest.String(), nil
}

// Pull downloads the snapshot layer and the config labels of the image at the ref.
func (t *OCITarget) Pull(ctx context.Context) ([]byte, map[string]string, error) {
	img, err := retry(ctx, t.maxAttempts, func() (v1.Image, error) {
		img, err := remote.Image(t.ref, t.options(ctx)...)
		return img, registryErr(err)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch image %s: %w", t.ref, err)
	}

	cfg, err := img.ConfigFile()
	if err != nil {
		return nil, nil, fmt.Errorf("get config: %w", err)
	}
	layers, err := img.Layers()
	if err != nil {
		return nil, nil, fmt.Errorf("get layers: %w", err)
	}
	if len(layers) != 1 {
		return nil, nil, fmt.Errorf("%s has %d layers, expected one snapshot layer", t.ref, len(layers))
	}
	if mt, err := layers[0].MediaType(); err != nil || mt != SnapshotMediaType {
		return nil, nil, fmt.Errorf("%s: layer media type %q is not a snapshot", t.ref, mt)
	}

	rc, err := layers[0].Compressed()
	if err != nil {
		return nil, nil, fmt.Errorf("read layer: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read layer: %w", err)
	}
	return data, cfg.Config.Labels, nil
}

func buildImage(data []byte, labels map[string]string) (v1.Image, error) {
	img := mutate.MediaType(empty.Image, types.OCIManifestSchema1)
	img = mutate.ConfigMediaType(img, types.OCIConfigJSON)

	img, err := mutate.AppendLayers(img, static.NewLayer(data, SnapshotMediaType))
	if err != nil {
		return nil, err
	}

	cfg, err := img.ConfigFile()
	if err != nil {
		return nil, err
	}
	cfg = cfg.DeepCopy()
	cfg.Config.Labels = labels
	return mutate.ConfigFile(img, cfg)
}

func (t *OCITarget) options(ctx context.Context) []remote.Option {
	opts := []remote.Option{remote.WithContext(ctx)}
	if t.auth != nil {
		return append(opts, remote.WithAuth(t.auth))
	}
	return append(opts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
}

// registryErr marks 5xx responses and transport failures as retryable.
func registryErr(err error) error {
	if err == nil {
		return nil
	}
	var te *transport.Error
	if errors.As(err, &te) && te.StatusCode < http.StatusInternalServerError {
		return err
	}
	return retryable(err)
}
