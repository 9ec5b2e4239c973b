package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	manifest := `
[project]
name = "my-project"

[packages.pantry]
git = "https://example.com/pantry.git"
tag = "release-${version}"
rel = "${name}/cookbooks"
version = ">=1.1.0, <2.0.0"

[packages.larder]
git = "https://example.com/larder.git"
ref = "0123456789abcdef0123456789abcdef01234567"

[packages.cellar]
path = "../cellar"
`
	path := filepath.Join(t.TempDir(), ManifestFileName)
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Project.Name != "my-project" {
		t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, "my-project")
	}
	if len(cfg.Packages) != 3 {
		t.Fatalf("len(Packages) = %d, want 3", len(cfg.Packages))
	}

	pantry := cfg.Packages["pantry"]
	if pantry.Tag != "release-${version}" {
		t.Errorf("pantry.Tag = %q, want the raw template", pantry.Tag)
	}
	if pantry.Version != ">=1.1.0, <2.0.0" {
		t.Errorf("pantry.Version = %q", pantry.Version)
	}
	if cfg.Packages["cellar"].Path != "../cellar" {
		t.Errorf("cellar.Path = %q, want %q", cfg.Packages["cellar"].Path, "../cellar")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), ManifestFileName))
	if err == nil {
		t.Fatal("LoadFile() of a missing manifest succeeded, want error")
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	cfg := &Config{
		Project: ProjectConfig{Name: "round-trip"},
		Packages: map[string]PackageSource{
			"pantry": {Git: "https://example.com/pantry.git", Branch: "develop", Rel: "cookbooks/pantry"},
		},
	}

	path := filepath.Join(t.TempDir(), ManifestFileName)
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got.Project.Name != cfg.Project.Name {
		t.Errorf("Project.Name = %q, want %q", got.Project.Name, cfg.Project.Name)
	}
	if got.Packages["pantry"] != cfg.Packages["pantry"] {
		t.Errorf("Packages[pantry] = %+v, want %+v", got.Packages["pantry"], cfg.Packages["pantry"])
	}
}

func TestPointer(t *testing.T) {
	tests := map[string]struct {
		src  PackageSource
		want string
	}{
		"ref wins": {
			src:  PackageSource{Ref: "abc", Tag: "v1", Branch: "main"},
			want: "abc",
		},
		"tag over branch": {
			src:  PackageSource{Tag: "v1", Branch: "main"},
			want: "v1",
		},
		"branch only": {
			src:  PackageSource{Branch: "main"},
			want: "main",
		},
		"nothing set": {
			src:  PackageSource{},
			want: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.src.Pointer(); got != tc.want {
				t.Errorf("Pointer() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadLockFileMissingIsNil(t *testing.T) {
	lf, err := LoadLockFile(filepath.Join(t.TempDir(), LockFileName))
	if err != nil {
		t.Fatalf("LoadLockFile() error = %v", err)
	}
	if lf != nil {
		t.Errorf("LoadLockFile() = %+v, want nil for missing file", lf)
	}
}

func TestLockFileRoundTrip(t *testing.T) {
	lf := &LockFile{
		Version: 1,
		Packages: []PackageLockEntry{
			{
				Name:       "pantry",
				Git:        "https://example.com/pantry.git",
				Rel:        "cookbooks/pantry",
				Pointer:    "release-${version}",
				Constraint: ">=1.0.0, <2.0.0",
				Commit:     "0123456789abcdef0123456789abcdef01234567",
				Version:    "1.2.0",
				Integrity:  "sha256:deadbeef",
			},
		},
	}

	path := filepath.Join(t.TempDir(), LockFileName)
	if err := SaveLockFile(path, lf); err != nil {
		t.Fatalf("SaveLockFile() error = %v", err)
	}

	got, err := LoadLockFile(path)
	if err != nil {
		t.Fatalf("LoadLockFile() error = %v", err)
	}
	if len(got.Packages) != 1 || got.Packages[0] != lf.Packages[0] {
		t.Errorf("lockfile round trip = %+v, want %+v", got.Packages, lf.Packages)
	}
}
