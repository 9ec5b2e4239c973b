package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/shelfpkg/shelf/pkg/vcs"
)

// CloneCache maps a repository URI to a local clone directory, cloning on
// first use. Sharing one cache across all locations in a run means a
// repository referenced by several dependencies is cloned once.
type CloneCache interface {
	Dir(ctx context.Context, uri string) (string, error)
}

// TempCloneCache keeps clones under a temp root for the life of the process.
// Existing clones are reused as-is with no freshness check: downstream
// checkout pins the exact pointer requested, so staleness only matters for
// newly created branch tips, which a fresh run's fresh cache picks up anyway.
type TempCloneCache struct {
	root      string
	transport Transport

	mu sync.Mutex
}

var _ CloneCache = &TempCloneCache{}

// NewTempCloneCache creates a cache rooted at a new process-temporary
// directory. The directory is never explicitly torn down; it lives as long
// as the OS keeps the temp dir.
func NewTempCloneCache(t Transport) (*TempCloneCache, error) {
	root, err := os.MkdirTemp("", "shelf-clones-")
	if err != nil {
		return nil, fmt.Errorf("creating clone cache root: %w", err)
	}
	return NewTempCloneCacheAt(root, t), nil
}

// NewTempCloneCacheAt creates a cache rooted at an existing directory.
func NewTempCloneCacheAt(root string, t Transport) *TempCloneCache {
	return &TempCloneCache{root: root, transport: t}
}

// Dir returns the clone directory for uri, cloning it first if absent.
// The existence check and clone are done under the cache lock so concurrent
// callers cannot race on the same slug.
func (c *TempCloneCache) Dir(ctx context.Context, uri string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.root, vcs.Slug(uri))
	switch _, err := os.Stat(dir); {
	case err == nil:
		return dir, nil
	case !errors.Is(err, fs.ErrNotExist):
		// Anything other than absence (permissions, a file in the path)
		// would make cloning into dir misbehave; surface it instead.
		return "", fmt.Errorf("checking clone cache for %s: %w", uri, err)
	}

	if err := c.transport.Clone(ctx, uri, dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("cloning %s: %w", uri, err)
	}
	return dir, nil
}
