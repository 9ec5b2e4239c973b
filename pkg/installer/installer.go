// Package installer drives resolution for every package a manifest declares
// and records the outcome in a lockfile.
package installer

import (
	"context"
	"fmt"
	"sort"

	"github.com/shelfpkg/shelf/pkg/config"
	"github.com/shelfpkg/shelf/pkg/source"
)

type Installer struct {
	Resolver *source.Resolver
}

// InstallAll resolves all packages from the config in sorted order. It
// compares the config against the existing lockfile to avoid redundant
// network calls: if a package's declared source hasn't changed and the
// lockfile has a resolved commit, the locked commit is substituted as an
// explicit ref, so resolution short-circuits on the local revision cache.
// Returns a new lockfile capturing the resolved state.
func (inst *Installer) InstallAll(ctx context.Context, cfg *config.Config, existing *config.LockFile) (*config.LockFile, error) {
	lockIndex := buildLockIndex(existing)
	lf := &config.LockFile{Version: 1}

	// Sort package names for deterministic ordering.
	names := make([]string, 0, len(cfg.Packages))
	for name := range cfg.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ps := cfg.Packages[name]

		resolved, err := inst.installOne(ctx, name, ps, lockIndex)
		if err != nil {
			return nil, fmt.Errorf("installing package %q: %w", name, err)
		}

		entry := LockEntry(name, ps, resolved)
		// A cache-hit resolution never re-ran tag matching, so carry the
		// previously locked version forward for the same commit.
		if old, ok := lockIndex[lockKey(name, ps)]; ok && old.Commit == resolved.Commit && entry.Version == "" {
			entry.Version = old.Version
		}
		lf.Packages = append(lf.Packages, entry)
	}

	return lf, nil
}

// InstallPackage resolves a single declared source outside of a full
// manifest install, e.g. when a package is first added.
func (inst *Installer) InstallPackage(ctx context.Context, name string, ps config.PackageSource) (*source.ResolvedPackage, error) {
	return inst.installOne(ctx, name, ps, nil)
}

func (inst *Installer) installOne(ctx context.Context, name string, ps config.PackageSource, lockIndex map[string]config.PackageLockEntry) (*source.ResolvedPackage, error) {
	if ps.Path != "" {
		return source.LocalLocation{Name: name, Path: ps.Path}.Resolve()
	}

	opts := source.Options{Branch: ps.Branch, Tag: ps.Tag, Ref: ps.Ref, Rel: ps.Rel}

	// If the lockfile already pins a commit for this package and the
	// declared source is unchanged, substitute the locked commit as an
	// explicit ref. The resolver's revision cache lookup then finds the
	// materialized directory without touching the network.
	if entry, ok := lockIndex[lockKey(name, ps)]; ok &&
		entry.Commit != "" && entry.Pointer == ps.Pointer() &&
		entry.Constraint == ps.Version && entry.Rel == ps.Rel {
		opts.Branch, opts.Tag, opts.Ref = "", "", entry.Commit
	}

	loc, err := source.NewGitLocation(name, ps.Git, ps.Version, opts)
	if err != nil {
		return nil, err
	}

	return inst.Resolver.Resolve(ctx, loc)
}

// LockEntry builds the lockfile record for a resolved package.
func LockEntry(name string, ps config.PackageSource, resolved *source.ResolvedPackage) config.PackageLockEntry {
	return config.PackageLockEntry{
		Name:       name,
		Git:        ps.Git,
		Path:       ps.Path,
		Rel:        ps.Rel,
		Pointer:    ps.Pointer(),
		Constraint: ps.Version,
		Commit:     resolved.Commit,
		Version:    resolved.Version,
		Integrity:  resolved.Integrity,
	}
}

// buildLockIndex creates a lookup map from existing lockfile entries,
// keyed the same way lockKey keys declared sources.
func buildLockIndex(lf *config.LockFile) map[string]config.PackageLockEntry {
	if lf == nil {
		return nil
	}
	idx := make(map[string]config.PackageLockEntry, len(lf.Packages))
	for _, entry := range lf.Packages {
		idx[entry.Name+"|"+entry.Git] = entry
	}
	return idx
}

func lockKey(name string, ps config.PackageSource) string {
	return name + "|" + ps.Git
}
