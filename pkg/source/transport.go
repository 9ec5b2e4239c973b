package source

import (
	"context"

	"github.com/shelfpkg/shelf/pkg/vcs"
)

// Transport is the version-control collaborator. The resolver treats it as a
// black box: errors are propagated verbatim (wrapped with location context),
// never retried.
type Transport interface {
	Clone(ctx context.Context, uri, dest string) error
	Checkout(ctx context.Context, dir, pointer string) error
	ListTags(ctx context.Context, dir string) ([]string, error)
	ResolveCommit(ctx context.Context, dir string) (string, error)
}

var _ Transport = vcs.Git{}
