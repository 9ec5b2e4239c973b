package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shelfpkg/shelf/pkg/pkg"
)

// LocalLocation is a package that already lives on the local filesystem.
// It is used in place; nothing is copied into the store and no commit is
// recorded.
type LocalLocation struct {
	Name string
	Path string
}

// Resolve validates that the path is a package directory and returns a
// handle pointing at it.
func (l LocalLocation) Resolve() (*ResolvedPackage, error) {
	absPath, err := filepath.Abs(l.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path for %q: %w", l.Path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("local package path does not exist: %s", absPath)
		}
		return nil, fmt.Errorf("checking local package path %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local package path is not a directory: %s", absPath)
	}

	if !pkg.LooksLikePackage(absPath) {
		return nil, &PackageNotFoundError{Name: l.Name, URI: absPath}
	}

	p, err := pkg.Load(absPath)
	if err != nil {
		return nil, fmt.Errorf("loading package %q: %w", l.Name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating package %q: %w", l.Name, err)
	}

	return &ResolvedPackage{Name: l.Name, Dir: absPath}, nil
}
