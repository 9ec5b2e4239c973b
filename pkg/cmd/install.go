package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/shelfpkg/shelf/pkg/config"
	"github.com/shelfpkg/shelf/pkg/installer"
	"github.com/shelfpkg/shelf/pkg/project"
	"github.com/shelfpkg/shelf/pkg/source"
	"github.com/shelfpkg/shelf/pkg/store"
	"github.com/spf13/cobra"
)

func newInstallCmd() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install packages from shelf.toml",
		Long:  "Resolves and installs all packages listed in shelf.toml, honoring the lockfile.",
		RunE:  runInstallAll,
	}

	pkgCmd := &cobra.Command{
		Use:   "package [name] [git-url]",
		Short: "Add and install a package",
		Long:  "Adds a git-sourced package to shelf.toml and installs it.",
		Args:  cobra.ExactArgs(2),
		RunE:  runInstallPackage,
	}

	pkgCmd.Flags().String("branch", "", "branch to track")
	pkgCmd.Flags().String("tag", "", "tag to pin (may contain ${version})")
	pkgCmd.Flags().String("ref", "", "exact ref or commit to pin")
	pkgCmd.Flags().String("rel", "", "subdirectory of the repository holding the package")
	pkgCmd.Flags().String("version", "", "semver constraint matched against version tags")

	installCmd.AddCommand(pkgCmd)
	return installCmd
}

// resolveInstallPaths returns the projectDir, manifestPath, and lockPath
// based on whether the install is global or project-local.
func resolveInstallPaths(global bool) (projectDir, manifestPath, lockPath string, err error) {
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", "", fmt.Errorf("determining home directory: %w", err)
		}
		projectDir = home

		manifestPath, err = config.GlobalManifestPath()
		if err != nil {
			return "", "", "", err
		}

		lockPath, err = config.GlobalLockFilePath()
		if err != nil {
			return "", "", "", err
		}

		return projectDir, manifestPath, lockPath, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", "", "", fmt.Errorf("getting working directory: %w", err)
	}

	return wd, filepath.Join(wd, project.ManifestFile), filepath.Join(wd, config.LockFileName), nil
}

// newInstaller wires a resolver against the configured store and a
// process-scoped temporary clone cache.
func newInstaller() (*installer.Installer, error) {
	var s store.Store
	if DevCfg != nil && DevCfg.CacheDir != "" {
		s = store.New(DevCfg.CacheDir)
	} else {
		var err error
		s, err = store.Default()
		if err != nil {
			return nil, err
		}
	}

	clones, err := source.NewTempCloneCache(source.DefaultTransport())
	if err != nil {
		return nil, err
	}

	return &installer.Installer{
		Resolver: source.NewResolver(source.DefaultTransport(), clones, s, log.Default()),
	}, nil
}

func runInstallAll(cmd *cobra.Command, args []string) error {
	global, err := cmd.Flags().GetBool("global")
	if err != nil {
		return err
	}

	_, manifestPath, lockPath, err := resolveInstallPaths(global)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", manifestPath, err)
	}

	existingLock, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}

	inst, err := newInstaller()
	if err != nil {
		return err
	}

	lf, err := inst.InstallAll(cmd.Context(), cfg, existingLock)
	if err != nil {
		return err
	}

	if err := config.SaveLockFile(lockPath, lf); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %d package(s)\n", len(lf.Packages))
	return nil
}

func runInstallPackage(cmd *cobra.Command, args []string) error {
	global, err := cmd.Flags().GetBool("global")
	if err != nil {
		return err
	}

	_, manifestPath, lockPath, err := resolveInstallPaths(global)
	if err != nil {
		return err
	}

	name, uri := args[0], args[1]

	// Ensure the global manifest exists when installing globally.
	if global {
		if err := project.InitGlobal(); err != nil {
			return err
		}
	}

	// Load the manifest before resolving anything, so a missing shelf.toml
	// cannot leave a materialized store entry with no manifest record.
	cfg, err := config.LoadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", manifestPath, err)
	}

	ps := config.PackageSource{Git: uri}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"branch", &ps.Branch},
		{"tag", &ps.Tag},
		{"ref", &ps.Ref},
		{"rel", &ps.Rel},
		{"version", &ps.Version},
	} {
		v, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	inst, err := newInstaller()
	if err != nil {
		return err
	}

	resolved, err := inst.InstallPackage(cmd.Context(), name, ps)
	if err != nil {
		return err
	}

	if cfg.Packages == nil {
		cfg.Packages = make(map[string]config.PackageSource)
	}
	cfg.Packages[name] = ps

	if err := config.SaveFile(manifestPath, cfg); err != nil {
		return fmt.Errorf("saving %s: %w", manifestPath, err)
	}

	lf, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}
	if lf == nil {
		lf = &config.LockFile{Version: 1}
	}

	lf.Packages = upsertLockEntry(lf.Packages, installer.LockEntry(name, ps, resolved))

	if err := config.SaveLockFile(lockPath, lf); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	if resolved.Version != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Installed package %q %s (%s)\n", name, resolved.Version, resolved.Commit)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Installed package %q (%s)\n", name, resolved.Commit)
	}
	return nil
}

// upsertLockEntry adds or replaces a lock entry, matching on name+git.
func upsertLockEntry(entries []config.PackageLockEntry, entry config.PackageLockEntry) []config.PackageLockEntry {
	key := entry.Name + "|" + entry.Git
	for i, e := range entries {
		if e.Name+"|"+e.Git == key {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}
