package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ManifestFileName is the manifest filename used for both project-local
	// and global configurations.
	ManifestFileName = "shelf.toml"
	// LockFileName records resolved commits and integrity hashes.
	LockFileName = "shelf.lock"
)

type Config struct {
	Project  ProjectConfig            `toml:"project"`
	Packages map[string]PackageSource `toml:"packages,omitempty"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
}

// PackageSource is one dependency as declared in shelf.toml. Git and Path
// are mutually exclusive; Version is a semantic version constraint and the
// addressing fields may carry ${name} and ${version} tokens.
type PackageSource struct {
	Git     string `toml:"git,omitempty"`
	Path    string `toml:"path,omitempty"`
	Branch  string `toml:"branch,omitempty"`
	Tag     string `toml:"tag,omitempty"`
	Ref     string `toml:"ref,omitempty"`
	Rel     string `toml:"rel,omitempty"`
	Version string `toml:"version,omitempty"`
}

// Pointer is the addressing field the source asks to check out, before any
// resolution: ref wins over tag, tag over branch. Used to detect whether a
// lockfile entry still matches the declared source.
func (ps PackageSource) Pointer() string {
	switch {
	case ps.Ref != "":
		return ps.Ref
	case ps.Tag != "":
		return ps.Tag
	default:
		return ps.Branch
	}
}

type LockFile struct {
	Version  int                `toml:"version"`
	Packages []PackageLockEntry `toml:"packages,omitempty"`
}

type PackageLockEntry struct {
	Name    string `toml:"name"`
	Git     string `toml:"git,omitempty"`
	Path    string `toml:"path,omitempty"`
	Rel     string `toml:"rel,omitempty"`
	Pointer string `toml:"pointer,omitempty"`
	// Constraint is the declared version constraint the entry was resolved
	// under; a changed constraint invalidates the entry even when the
	// pointer is unchanged.
	Constraint string `toml:"constraint,omitempty"`
	Commit     string `toml:"commit,omitempty"`
	Version    string `toml:"resolved_version,omitempty"`
	Integrity  string `toml:"integrity,omitempty"`
}

func UnmarshalConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	err := toml.Unmarshal(data, cfg)

	return cfg, err
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return UnmarshalConfig(data)
}

func SaveFile(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadLockFile reads the lockfile at path. A missing lockfile is not an
// error; it yields nil so callers can treat the first install uniformly.
func LoadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lf := &LockFile{}
	if err := toml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lf, nil
}

func SaveLockFile(path string, lf *LockFile) error {
	data, err := toml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GlobalManifestPath returns the path to the global manifest
// (~/.shelf/shelf.toml), ensuring the directory exists.
func GlobalManifestPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ManifestFileName), nil
}

// GlobalLockFilePath returns the path to the global lockfile
// (~/.shelf/shelf.lock), ensuring the directory exists.
func GlobalLockFilePath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LockFileName), nil
}
