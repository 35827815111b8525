package web

import (
	"fmt"
	"path/filepath"

	"github.com/JonMunkholm/datops/internal/core"
)

// resolve maps a request path onto the data root. Relative paths are joined
// to the root; absolute paths are accepted only if they lie inside it.
// Symlinks are not followed.
func (s *Server) resolve(p string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(p))
	if p != "" && filepath.IsAbs(clean) {
		rel, err := filepath.Rel(s.root, clean)
		if err == nil && filepath.IsLocal(rel) {
			return clean, nil
		}
	} else if p != "" && filepath.IsLocal(clean) {
		return filepath.Join(s.root, clean), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrPathNotAllowed, p)
}

// resolveAll rewrites every path in place.
func (s *Server) resolveAll(paths ...*string) error {
	for _, p := range paths {
		abs, err := s.resolve(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// resolveOutput rewrites an output directory; empty stays empty so results
// land next to their inputs.
func (s *Server) resolveOutput(out *core.OutputOptions) error {
	if out == nil || out.Dir == "" {
		return nil
	}
	return s.resolveAll(&out.Dir)
}

// relative turns a path under the root back into a root-relative one for
// responses.
func (s *Server) relative(p string) string {
	if rel, err := filepath.Rel(s.root, p); err == nil && filepath.IsLocal(rel) {
		return filepath.ToSlash(rel)
	}
	return p
}
