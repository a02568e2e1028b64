package security

import (
	"path/filepath"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/fsops"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// PathAccessChecker checks path access permissions.
type PathAccessChecker struct {
	restricted []string
	readonly   []string
}

// NewPathAccessChecker creates a new path checker.
func NewPathAccessChecker(policy *SecurityPolicy) *PathAccessChecker {
	return &PathAccessChecker{
		restricted: policy.RestrictedPaths,
		readonly:   policy.ReadOnlyPaths,
	}
}

// IsRestricted reports whether p is a restricted path or lies below one.
func (pc *PathAccessChecker) IsRestricted(p string) bool {
	return pc.within(p, pc.restricted)
}

// IsReadOnly reports whether writing p would touch a read-only tree.
// Reads are never read-only violations.
func (pc *PathAccessChecker) IsReadOnly(p string, write bool) bool {
	return write && pc.within(p, pc.readonly)
}

// within compares canonical forms, so neither ~ nor a symlink leads
// around a listed root.
func (pc *PathAccessChecker) within(p string, roots []string) bool {
	if len(roots) == 0 {
		return false
	}
	canonical, err := canonicalize(p)
	if err != nil {
		return false
	}
	for _, root := range roots {
		canonicalRoot, err := canonicalize(root)
		if err != nil {
			continue
		}
		if canonical == canonicalRoot || strings.HasPrefix(canonical, canonicalRoot+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Target is a resolved path a command touches.
type Target struct {
	Path  string
	Write bool
}

// Targets resolves the paths of cmd against cwd. Commands without paths
// return nil.
func (pc *PathAccessChecker) Targets(cmd router.Command, cwd string) []Target {
	read := func(p router.Path) Target { return Target{Path: fsops.Resolve(cwd, p.Normalized)} }
	write := func(p router.Path) Target { return Target{Path: fsops.Resolve(cwd, p.Normalized), Write: true} }

	switch c := cmd.(type) {
	case router.ListDir:
		if c.Path == nil {
			return []Target{{Path: cwd}}
		}
		return []Target{read(*c.Path)}
	case router.Tree:
		if c.Path == nil {
			return []Target{{Path: cwd}}
		}
		return []Target{read(*c.Path)}
	case router.Navigate:
		return []Target{read(c.Path)}
	case router.FindSimilar:
		return []Target{read(c.Path)}
	case router.Index:
		return []Target{read(c.Path)}
	case router.CreateDir:
		return []Target{write(c.Path)}
	case router.CreateFile:
		return []Target{write(c.Path)}
	case router.Delete:
		return []Target{write(c.Path)}
	case router.Move:
		return []Target{write(c.Source), write(c.Dest)}
	case router.Copy:
		return []Target{read(c.Source), write(c.Dest)}
	case router.Organize:
		src := read(c.Source)
		src.Write = !c.DryRun
		targets := []Target{src}
		if c.Dest != nil {
			dst := write(*c.Dest)
			dst.Write = !c.DryRun
			targets = append(targets, dst)
		}
		return targets
	}
	return nil
}

// canonicalize expands ~, makes p absolute and resolves symlinks of the
// longest existing prefix.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(fsops.ExpandHome(p))
	if err != nil {
		return "", err
	}
	return evalExisting(abs), nil
}

// evalExisting resolves symlinks in the deepest existing ancestor of p and
// appends the missing tail unchanged.
func evalExisting(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(evalExisting(parent), filepath.Base(p))
}
