// Package vcs wraps the system git binary with the handful of operations
// the resolver needs: clone, checkout, tag listing, and commit resolution.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Git drives the git binary found in PATH. The zero value is ready to use.
type Git struct{}

// Clone clones uri into dest. dest must not exist yet; git creates it.
func (Git) Clone(ctx context.Context, uri, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", uri, dest)
	if _, err := cmd.Output(); err != nil {
		return execError(err)
	}
	return nil
}

// Checkout checks out pointer (a branch, tag, or commit) in dir.
func (Git) Checkout(ctx context.Context, dir, pointer string) error {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "checkout", pointer)
	if _, err := cmd.Output(); err != nil {
		return execError(err)
	}
	return nil
}

// ListTags returns all tag names in the repository at dir.
func (Git) ListTags(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "tag", "--list")
	out, err := cmd.Output()
	if err != nil {
		return nil, execError(err)
	}

	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// ResolveCommit returns the full commit hash of HEAD in dir.
func (Git) ResolveCommit(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return "", execError(err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ValidateURI reports whether rawURI is a usable git URL. Local paths,
// HTTPS URLs, and SSH shorthand (git@host:owner/repo.git) are all accepted.
func ValidateURI(rawURI string) error {
	if strings.TrimSpace(rawURI) == "" {
		return errors.New("git URI must not be empty")
	}
	if _, _, err := ParseURI(rawURI); err != nil {
		return fmt.Errorf("invalid git URI %q: %w", rawURI, err)
	}
	return nil
}

// ParseURI extracts the host and repository path from a git URL.
// Supports HTTPS URLs, local paths, and SSH shorthand (git@host:owner/repo.git).
func ParseURI(rawURI string) (host, repoPath string, err error) {
	// SSH shorthand: git@github.com:owner/repo.git
	if idx := strings.Index(rawURI, ":"); idx > 0 && !strings.Contains(rawURI[:idx], "/") && !strings.Contains(rawURI, "://") {
		host = rawURI[:idx]
		if at := strings.Index(host, "@"); at >= 0 {
			host = host[at+1:]
		}
		repoPath = strings.TrimSuffix(rawURI[idx+1:], ".git")
		return host, repoPath, nil
	}

	u, err := url.Parse(rawURI)
	if err != nil {
		return "", "", err
	}
	repoPath = strings.TrimPrefix(u.Path, "/")
	repoPath = strings.TrimSuffix(repoPath, ".git")
	return u.Host, repoPath, nil
}

// Slug converts a git URI into a filesystem-safe directory name by replacing
// every character outside [A-Za-z0-9._] with '-'. Distinct URIs can collide
// only if they differ solely in replaced characters, which does not happen
// for well-formed git URLs.
func Slug(uri string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_':
			return r
		default:
			return '-'
		}
	}, uri)
}

// IsCommitHash reports whether s is a full 40-character hex SHA-1 hash.
func IsCommitHash(s string) bool {
	return len(s) == 40 && isHexString(s)
}

// isHexString reports whether s is non-empty and contains only hexadecimal characters.
func isHexString(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// execError surfaces git's stderr when the command failed with output,
// since exec.ExitError alone only carries the exit status.
func execError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
