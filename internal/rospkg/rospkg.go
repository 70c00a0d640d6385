// Package rospkg resolves asset references found in robot documents.
// References use either the package URI scheme ("package://<name>/<rel>"),
// resolved through a user-supplied package map, or plain paths resolved
// against the document's directory.
package rospkg

import (
	"fmt"
	"path/filepath"
	"strings"
)

const scheme = "package://"

// Resolver maps package names to filesystem roots.
type Resolver struct {
	packages map[string]string
}

// NewResolver builds a resolver from a package-name → directory map. The
// map may be nil when documents use only plain paths.
func NewResolver(packages map[string]string) *Resolver {
	return &Resolver{packages: packages}
}

// Resolve turns a document asset reference into a filesystem path relative
// to contextDir (the directory holding the document). Package URIs naming
// an unmapped package fail; the caller decides whether that is fatal.
func (r *Resolver) Resolve(ref, contextDir string) (string, error) {
	if !strings.HasPrefix(ref, scheme) {
		if filepath.IsAbs(ref) {
			return ref, nil
		}
		return filepath.Join(contextDir, filepath.FromSlash(ref)), nil
	}

	rest := strings.TrimPrefix(ref, scheme)
	name, rel, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		return "", fmt.Errorf("malformed package reference %q", ref)
	}
	root, ok := r.packages[name]
	if !ok {
		return "", fmt.Errorf("package %q is not mapped; add it to the package map", name)
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}
