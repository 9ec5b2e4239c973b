package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/shelfpkg/shelf/pkg/config"
	"github.com/shelfpkg/shelf/pkg/store"
	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	removeCmd := &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove installed packages",
		Long:  "Removes packages from shelf.toml, the lockfile, and the package store.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRemove,
	}

	removeCmd.Flags().Bool("all", false, "Remove all packages without prompting")

	return removeCmd
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	if len(cfg.Packages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove")
		return nil
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	names := sortedKeys(cfg.Packages)

	var selected []string
	switch {
	case len(args) == 1:
		if _, ok := cfg.Packages[args[0]]; !ok {
			return fmt.Errorf("package %q not found in %s", args[0], manifestPath)
		}
		selected = []string{args[0]}
	case all:
		selected = names
	default:
		selected, err = promptPackages(names)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing selected")
			return nil
		}
	}

	lf, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}

	var s store.Store
	if DevCfg != nil && DevCfg.CacheDir != "" {
		s = store.New(DevCfg.CacheDir)
	} else {
		s, err = store.Default()
		if err != nil {
			return err
		}
	}

	for _, name := range selected {
		// Drop the materialized directory pinned by the lockfile, if any.
		if lf != nil {
			for _, entry := range lf.Packages {
				if entry.Name == name && entry.Commit != "" {
					s.Remove(name + "-" + entry.Commit)
				}
			}
		}
		delete(cfg.Packages, name)
	}

	if err := config.SaveFile(manifestPath, cfg); err != nil {
		return fmt.Errorf("saving %s: %w", manifestPath, err)
	}

	if lf != nil {
		lf.Packages = filterLockEntries(lf.Packages, selected)
		if err := config.SaveLockFile(lockPath, lf); err != nil {
			return fmt.Errorf("writing lockfile: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d package(s)\n", len(selected))
	return nil
}

// promptPackages uses huh to present a multi-select of installed packages.
func promptPackages(names []string) ([]string, error) {
	options := make([]huh.Option[string], len(names))
	for i, name := range names {
		options[i] = huh.NewOption(name, name)
	}

	var selected []string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select packages to remove").
				Options(options...).
				Value(&selected),
		),
	).Run()
	if err != nil {
		return nil, fmt.Errorf("selection prompt failed: %w", err)
	}

	return selected, nil
}

func filterLockEntries(entries []config.PackageLockEntry, removed []string) []config.PackageLockEntry {
	drop := make(map[string]bool, len(removed))
	for _, name := range removed {
		drop[name] = true
	}

	kept := entries[:0]
	for _, e := range entries {
		if !drop[e.Name] {
			kept = append(kept, e)
		}
	}
	return kept
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
