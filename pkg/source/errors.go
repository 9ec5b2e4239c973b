package source

import (
	"fmt"
	"strings"
)

// PackageNotFoundError reports that the layout marker was missing at the
// resolved subtree. It names the URI and whichever addressing fields were in
// play so the user can see exactly what was searched.
type PackageNotFoundError struct {
	Name   string
	URI    string
	Branch string
	Ref    string
	Rel    string
}

func (e *PackageNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %q not found in %s", e.Name, e.URI)
	if e.Branch != "" {
		fmt.Fprintf(&b, " branch: %s", e.Branch)
	}
	if e.Ref != "" {
		fmt.Fprintf(&b, " ref: %s", e.Ref)
	}
	if e.Rel != "" {
		fmt.Fprintf(&b, " rel: %s", e.Rel)
	}
	return b.String()
}
