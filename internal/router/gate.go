package router

import "strings"

// ConfirmationTokens turn a previewed bulk operation into a real one when
// they appear anywhere in the original utterance.
var ConfirmationTokens = []string{"jetzt", "wirklich", "ausführen", "ausfuehren", "mach das", "bitte jetzt"}

// ConfirmationRequested reports whether original carries a confirmation token.
func ConfirmationRequested(original string) bool {
	q := strings.ToLower(original)
	for _, token := range ConfirmationTokens {
		if strings.Contains(q, token) {
			return true
		}
	}
	return false
}

// Gate sets the execution mode of bulk-mutating commands. Other commands
// pass through unchanged.
func Gate(cmd Command, original string) Command {
	if o, ok := cmd.(Organize); ok {
		o.DryRun = !ConfirmationRequested(original)
		return o
	}
	return cmd
}

// WantsKnowledge reports whether an organize request asks for the
// knowledge-based pass instead of plain theme clustering.
func WantsKnowledge(rawQuery string) bool {
	q := strings.ToLower(rawQuery)
	return strings.Contains(q, "wissen") || strings.Contains(q, "intelligent")
}
