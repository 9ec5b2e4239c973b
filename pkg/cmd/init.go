package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/shelfpkg/shelf/pkg/config"
	"github.com/shelfpkg/shelf/pkg/project"
	"github.com/shelfpkg/shelf/pkg/store"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new shelf project",
		Long:  "Creates a shelf.toml manifest and configures .gitignore entries.",
		RunE:  runInit,
		// init does not need dev config resolution; skip the root PersistentPreRunE.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	name := project.InferName(wd)

	if err := project.Init(wd, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", project.ManifestFile)

	gitignoreEntries := []string{config.LocalConfigFile}

	// A project-local store only exists when cache_dir points inside the
	// project, but ignoring it up front is harmless either way.
	ignoreStore, err := promptIgnoreStore()
	if err != nil {
		return err
	}
	if ignoreStore {
		gitignoreEntries = append(gitignoreEntries, store.DefaultRoot+"/")
	}

	added, err := project.EnsureGitignore(wd, gitignoreEntries)
	if err != nil {
		return err
	}
	for _, entry := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to .gitignore\n", entry)
	}

	return nil
}

// promptIgnoreStore uses huh to ask whether the package store directory
// should be gitignored.
func promptIgnoreStore() (bool, error) {
	var ignore bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Add %s/ to .gitignore?", store.DefaultRoot)).
				Value(&ignore),
		),
	).Run()
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return ignore, nil
}
