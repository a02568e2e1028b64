package security

import (
	"fmt"

	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// CheckResult represents the result of a security check.
type CheckResult struct {
	Allowed      bool
	RequiresAuth bool
	Warning      string
	Reason       string
}

// SecurityController coordinates all security checks.
type SecurityController struct {
	policy        *SecurityPolicy
	dangerChecker *DangerousCommandChecker
	pathChecker   *PathAccessChecker
}

// NewSecurityController creates a new security controller. A nil policy
// means DefaultPolicy.
func NewSecurityController(policy *SecurityPolicy) *SecurityController {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if !policy.CommandLevel.Valid() {
		p := *policy
		p.CommandLevel = ConfirmDangerous
		policy = &p
	}
	return &SecurityController{
		policy:        policy,
		dangerChecker: NewDangerousCommandChecker(),
		pathChecker:   NewPathAccessChecker(policy),
	}
}

// IsMutating reports whether cmd changes the filesystem.
func IsMutating(cmd router.Command) bool {
	switch c := cmd.(type) {
	case router.CreateDir, router.CreateFile, router.Move, router.Copy, router.Delete:
		return true
	case router.Organize:
		return !c.DryRun
	}
	return false
}

// CheckCommand decides whether cmd may run with relative paths resolved
// against cwd.
func (sc *SecurityController) CheckCommand(cmd router.Command, cwd string) *CheckResult {
	targets := sc.pathChecker.Targets(cmd, cwd)

	// Check 1: Path access control
	var readOnlyHit string
	for _, t := range targets {
		if sc.pathChecker.IsRestricted(t.Path) {
			return &CheckResult{
				Allowed: false,
				Reason:  fmt.Sprintf("Zugriff verweigert: %s ist gesperrt", t.Path),
			}
		}
		if readOnlyHit == "" && sc.pathChecker.IsReadOnly(t.Path, t.Write) {
			readOnlyHit = t.Path
		}
	}

	// Check 2: Critical targets are never removed or moved away
	switch c := cmd.(type) {
	case router.Delete:
		if p := targets[0].Path; sc.dangerChecker.IsCriticalPath(p) {
			return &CheckResult{Allowed: false, Reason: fmt.Sprintf("%s darf nicht gelöscht werden", p)}
		}
	case router.Move:
		if p := targets[0].Path; sc.dangerChecker.IsCriticalPath(p) {
			return &CheckResult{Allowed: false, Reason: fmt.Sprintf("%s darf nicht verschoben werden", p)}
		}
	case router.Organize:
		if p := targets[0].Path; !c.DryRun && sc.dangerChecker.IsCriticalPath(p) {
			return &CheckResult{Allowed: false, Reason: fmt.Sprintf("%s darf nicht umorganisiert werden", p)}
		}
	}

	if readOnlyHit != "" {
		return &CheckResult{
			Allowed:      true,
			RequiresAuth: true,
			Warning:      fmt.Sprintf("Schreibschutz: %s ist schreibgeschützt", readOnlyHit),
			Reason:       "Path is in readonly list",
		}
	}

	if !IsMutating(cmd) {
		return &CheckResult{Allowed: true}
	}

	// Check 3: Command level
	switch sc.policy.CommandLevel {
	case ConfirmNever:
		return &CheckResult{Allowed: true}
	case ConfirmAlways:
		return &CheckResult{
			Allowed:      true,
			RequiresAuth: true,
			Warning:      cmd.Summary(),
			Reason:       "command_level=always",
		}
	}

	if sc.dangerChecker.IsDangerous(cmd) {
		return &CheckResult{
			Allowed:      true,
			RequiresAuth: true,
			Warning:      "Gefährliche Aktion: " + cmd.Summary(),
			Reason:       "Command is in the dangerous list",
		}
	}

	return &CheckResult{Allowed: true}
}

// CheckPathAccess checks if a path can be accessed.
func (sc *SecurityController) CheckPathAccess(path string, write bool) *CheckResult {
	if sc.pathChecker.IsRestricted(path) {
		return &CheckResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Zugriff verweigert: %s ist gesperrt", path),
		}
	}

	if sc.pathChecker.IsReadOnly(path, write) {
		return &CheckResult{
			Allowed:      true,
			RequiresAuth: true,
			Warning:      fmt.Sprintf("Schreibschutz: %s ist schreibgeschützt", path),
			Reason:       "Write operation on read-only path",
		}
	}

	return &CheckResult{Allowed: true}
}
