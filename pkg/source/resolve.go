package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/shelfpkg/shelf/pkg/pkg"
	"github.com/shelfpkg/shelf/pkg/store"
	"github.com/shelfpkg/shelf/pkg/vcs"
)

// ResolvedPackage is a validated on-disk package directory pinned to the
// commit it was materialized from. Created only after the layout marker was
// found and the package validated; immutable afterwards.
type ResolvedPackage struct {
	Name   string
	Dir    string
	Commit string
	// Branch is set only when the checkout literally used the requested
	// branch or tag; a stale or overridden request is never displayed.
	Branch string
	Rel    string
	// Version is the concrete version a ${version} template resolved to,
	// empty otherwise.
	Version   string
	Integrity string
}

// Resolver turns GitLocations into ResolvedPackages. Resolution is
// synchronous and blocking; one clone cache shared across locations
// deduplicates network clones per repository URI.
type Resolver struct {
	Transport Transport
	Clones    CloneCache
	Store     store.Store
	Logger    *log.Logger
}

func NewResolver(t Transport, clones CloneCache, st store.Store, logger *log.Logger) *Resolver {
	return &Resolver{Transport: t, Clones: clones, Store: st, Logger: logger}
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Resolve materializes loc into the store and returns its handle.
//
// Pipeline: revision cache lookup (explicit refs only) → clone via the
// shared cache → version-tag resolution (only for ${version} templates) →
// checkout and commit pinning → marker check, relocation into the store,
// and validation.
func (r *Resolver) Resolve(ctx context.Context, loc GitLocation) (*ResolvedPackage, error) {
	// Explicit-ref requests are idempotent within a run: the destination
	// path is computable up front, and if it already exists the network is
	// skipped entirely. Branch and template requests always re-resolve
	// because the commit they point at can change between runs.
	if loc.Ref != "" && !isVersionTemplate(loc.Ref) {
		seg := loc.Name + "-" + loc.Ref
		exists, err := r.Store.Exists(seg)
		if err != nil {
			return nil, fmt.Errorf("checking store for %q: %w", seg, err)
		}
		if exists {
			// The commit is authoritative once pinned; the requested
			// branch (including the implied default) says nothing about
			// what is on disk, so it is not displayed.
			return r.finalize(loc, seg, loc.Ref, "", "")
		}
	}

	cloneDir, err := r.Clones.Dir(ctx, loc.URI)
	if err != nil {
		return nil, err
	}

	ref, branch := loc.Ref, loc.Branch
	var resolvedVersion string

	pointer := loc.EffectivePointer()
	if isVersionTemplate(pointer) {
		tags, err := r.Transport.ListTags(ctx, cloneDir)
		if err != nil {
			return nil, fmt.Errorf("listing tags of %s: %w", loc.URI, err)
		}

		tag, version, ok := resolveVersionTag(pointer, tags, loc.Constraint)
		if !ok {
			// Fail loud in two stages: warn here where the template is
			// known, then let checkout of the literal template surface the
			// transport error.
			r.logger().Warn("no tag satisfies version constraint",
				"package", loc.Name,
				"uri", loc.URI,
				"template", pointer,
				"constraint", constraintString(loc.Constraint))
		} else {
			resolvedVersion = version.String()
			// The winner replaces whichever field held the template and
			// the other is cleared, so only one pointer remains visible.
			if ref != "" {
				ref, branch = tag, ""
			} else {
				branch, ref = tag, ""
			}
			pointer = tag
		}
	}

	if err := r.Transport.Checkout(ctx, cloneDir, pointer); err != nil {
		return nil, fmt.Errorf("checking out %q in %s: %w", pointer, loc.URI, err)
	}

	commit, err := r.Transport.ResolveCommit(ctx, cloneDir)
	if err != nil {
		return nil, fmt.Errorf("resolving commit of %s: %w", loc.URI, err)
	}

	// The branch field is display-only from here on: keep it only when it
	// is literally the pointer that was checked out.
	if branch != pointer {
		branch = ""
	}

	subtree := cloneDir
	if loc.Rel != "" {
		subtree = filepath.Join(cloneDir, filepath.FromSlash(loc.Rel))
	}

	if !pkg.LooksLikePackage(subtree) {
		return nil, &PackageNotFoundError{
			Name:   loc.Name,
			URI:    loc.URI,
			Branch: branch,
			Ref:    commit,
			Rel:    loc.Rel,
		}
	}

	seg := loc.Name + "-" + commit
	if err := r.Store.Install(subtree, seg); err != nil {
		return nil, fmt.Errorf("installing %q: %w", loc.Name, err)
	}

	return r.finalize(loc, seg, commit, branch, resolvedVersion)
}

// finalize runs the generic package validation over the materialized
// directory and wraps it into the immutable handle.
func (r *Resolver) finalize(loc GitLocation, seg, commit, branch, version string) (*ResolvedPackage, error) {
	dir := r.Store.Path(seg)

	p, err := pkg.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading package %q: %w", loc.Name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating package %q: %w", loc.Name, err)
	}

	integrity, err := r.Store.HashDir(seg)
	if err != nil {
		return nil, fmt.Errorf("computing integrity of %q: %w", loc.Name, err)
	}

	return &ResolvedPackage{
		Name:      loc.Name,
		Dir:       dir,
		Commit:    commit,
		Branch:    branch,
		Rel:       loc.Rel,
		Version:   version,
		Integrity: integrity,
	}, nil
}

func constraintString(c *semver.Constraints) string {
	if c == nil {
		return "*"
	}
	return c.String()
}

// DefaultTransport returns the exec-git transport.
func DefaultTransport() Transport {
	return vcs.Git{}
}
