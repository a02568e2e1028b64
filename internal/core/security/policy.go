package security

// SecurityPolicy defines the security configuration.
type SecurityPolicy struct {
	// CommandLevel determines when mutating commands require confirmation.
	// "always" - every mutating command requires confirmation
	// "dangerous" - only dangerous commands require confirmation
	// "never" - no confirmation required
	CommandLevel ConfirmLevel `mapstructure:"command_level"`

	// RestrictedPaths contains paths that are completely forbidden.
	RestrictedPaths []string `mapstructure:"restricted_paths"`

	// ReadOnlyPaths contains paths that cannot be written to without
	// confirmation.
	ReadOnlyPaths []string `mapstructure:"readonly_paths"`
}

// ConfirmLevel represents the command confirmation level.
type ConfirmLevel string

const (
	ConfirmAlways    ConfirmLevel = "always"
	ConfirmDangerous ConfirmLevel = "dangerous"
	ConfirmNever     ConfirmLevel = "never"
)

// Valid reports whether l is one of the known levels.
func (l ConfirmLevel) Valid() bool {
	switch l {
	case ConfirmAlways, ConfirmDangerous, ConfirmNever:
		return true
	}
	return false
}

// DefaultPolicy returns the default security policy (balanced mode).
func DefaultPolicy() *SecurityPolicy {
	return &SecurityPolicy{
		CommandLevel:    ConfirmDangerous,
		RestrictedPaths: []string{},
		ReadOnlyPaths:   []string{},
	}
}
