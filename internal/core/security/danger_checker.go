package security

import (
	"os"
	"path/filepath"

	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// DangerousCommandChecker detects dangerous commands.
type DangerousCommandChecker struct {
	criticalPaths map[string]bool
}

// NewDangerousCommandChecker creates a new danger checker.
func NewDangerousCommandChecker() *DangerousCommandChecker {
	critical := map[string]bool{}
	for _, p := range []string{
		"/", "/bin", "/boot", "/dev", "/etc", "/lib", "/opt", "/proc",
		"/root", "/sbin", "/sys", "/usr", "/var", "/home", "/Users",
		"/System", "/Library", "/Applications",
	} {
		critical[p] = true
	}
	if home, err := os.UserHomeDir(); err == nil {
		critical[filepath.Clean(home)] = true
	}
	return &DangerousCommandChecker{criticalPaths: critical}
}

// IsDangerous reports whether cmd destroys or rearranges data in bulk:
// a delete, or an organize pass that is not a dry run.
func (dc *DangerousCommandChecker) IsDangerous(cmd router.Command) bool {
	switch c := cmd.(type) {
	case router.Delete:
		return true
	case router.Organize:
		return !c.DryRun
	}
	return false
}

// IsCriticalPath reports whether path is the root, the home directory or
// a top-level system directory. Paths below them are not critical.
func (dc *DangerousCommandChecker) IsCriticalPath(path string) bool {
	return dc.criticalPaths[filepath.Clean(path)]
}
