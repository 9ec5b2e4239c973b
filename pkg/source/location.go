// Package source resolves a dependency's git location (a name, a semantic
// version constraint, and repository addressing options) into a validated
// package directory in the local store.
package source

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/shelfpkg/shelf/pkg/vcs"
)

const (
	nameToken    = "${name}"
	versionToken = "${version}"

	// defaultBranch is assumed when the caller supplies no branch, tag, or ref.
	defaultBranch = "master"
)

// Options are the optional addressing fields of a git location. Tag is an
// alias for Branch (git checks both out the same way); Ref wins over either
// when more than one is set.
type Options struct {
	Branch string
	Tag    string
	Ref    string
	Rel    string
}

// GitLocation identifies one dependency's git source. It is immutable once
// constructed; resolution returns a separate ResolvedPackage rather than
// rewriting these fields.
type GitLocation struct {
	Name       string
	URI        string
	Constraint *semver.Constraints // nil means any version
	Ref        string
	Branch     string
	Rel        string
}

// NewGitLocation validates the URI and constraint and applies ${name}
// substitution to branch, ref, and rel. Substitution is pure and happens
// here, before any network access; ${version} tokens are carried through
// unresolved because the concrete version is unknown until tags have been
// listed.
func NewGitLocation(name, uri, constraint string, opts Options) (GitLocation, error) {
	if err := vcs.ValidateURI(uri); err != nil {
		return GitLocation{}, err
	}

	loc := GitLocation{Name: name, URI: uri}

	if constraint != "" {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return GitLocation{}, fmt.Errorf("invalid version constraint %q for %q: %w", constraint, name, err)
		}
		loc.Constraint = c
	}

	branch := opts.Branch
	if opts.Tag != "" {
		branch = opts.Tag
	}

	loc.Ref = expandName(opts.Ref, name)
	loc.Branch = expandName(branch, name)
	loc.Rel = expandName(opts.Rel, name)

	if loc.Ref == "" && loc.Branch == "" {
		loc.Branch = defaultBranch
	}

	return loc, nil
}

// EffectivePointer is the field used for checkout: ref when set, else branch.
func (l GitLocation) EffectivePointer() string {
	if l.Ref != "" {
		return l.Ref
	}
	return l.Branch
}

func expandName(s, name string) string {
	if s == "" {
		return ""
	}
	return strings.ReplaceAll(s, nameToken, name)
}

// isVersionTemplate reports whether s still carries the ${version} token.
func isVersionTemplate(s string) bool {
	return strings.Contains(s, versionToken)
}
