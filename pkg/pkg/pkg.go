// Package pkg defines what a shelf package looks like on disk: a directory
// whose root carries a PACKAGE.md file with YAML front matter describing it.
package pkg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"sigs.k8s.io/yaml"
)

// MarkerFile is the layout marker: a directory is a package only if this
// file exists at its root.
const MarkerFile = "PACKAGE.md"

var (
	yamlFrontMatterDelim = []byte{'-', '-', '-'}
	validPackageName     = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)
)

type Package interface {
	// Name returns the name of the package
	Name() string
	// Description returns the package's summary line
	Description() string
	// Dir returns where the package contents live on disk
	Dir() string
	// Validate makes sure package contents are okay
	Validate() error
}

// LooksLikePackage reports whether dir contains the package layout marker.
func LooksLikePackage(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, MarkerFile))
	return err == nil
}

// Load reads and parses the PACKAGE.md front matter at dir.
func Load(dir string) (Package, error) {
	f, err := os.Open(filepath.Join(dir, MarkerFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file in %q", MarkerFile, dir)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	inFrontMatter := false
	yamlBuffer := bytes.Buffer{}

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading %s front matter: %w", MarkerFile, err)
		}

		if bytes.HasPrefix(line, yamlFrontMatterDelim) {
			if inFrontMatter {
				break
			}

			inFrontMatter = true
			continue
		}

		if !inFrontMatter {
			continue
		}

		if _, err := yamlBuffer.Write(line); err != nil {
			return nil, fmt.Errorf("error buffering %s front matter: %w", MarkerFile, err)
		}
	}

	if yamlBuffer.Len() == 0 {
		return nil, fmt.Errorf("%s in %q is missing YAML front matter ('---' delimiters)", MarkerFile, dir)
	}

	p := &metaPackage{dir: dir}
	if err := yaml.Unmarshal(yamlBuffer.Bytes(), p); err != nil {
		return nil, fmt.Errorf("parsing %s front matter in %q: %w", MarkerFile, dir, err)
	}
	return p, nil
}

type metaPackage struct {
	PkgName     string            `json:"name"`
	PkgDesc     string            `json:"description"`
	Version     string            `json:"version,omitempty"`
	License     string            `json:"license,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	dir         string
}

func (p *metaPackage) Name() string {
	return p.PkgName
}

func (p *metaPackage) Description() string {
	return p.PkgDesc
}

func (p *metaPackage) Dir() string {
	return p.dir
}

func (p *metaPackage) Validate() error {
	var err error
	if !validPackageName.Match([]byte(p.PkgName)) {
		err = errors.Join(err, fmt.Errorf("package name must be max 64 characters with only lowercase letters, numbers, and hyphens. must not start or end with a hyphen"))
	}

	if len(p.PkgDesc) == 0 {
		err = errors.Join(err, fmt.Errorf("package description must be provided"))
	}
	if len(p.PkgDesc) > 1024 {
		err = errors.Join(err, fmt.Errorf("package description must be max 1024 characters"))
	}

	return err
}
