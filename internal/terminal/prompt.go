package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// Errors returned by Confirm
var (
	ErrQuitAll = errors.New("quit all commands")
)

// ConfirmWithIO asks whether cmd may run. It returns true when approved,
// false when skipped and ErrQuitAll when the user cancels. Input is read
// line by line from input so the caller can keep using the same reader.
func ConfirmWithIO(cmd router.Command, checkResult *security.CheckResult, input *bufio.Reader, output io.Writer) (bool, error) {
	fmt.Fprintf(output, "\n%s\n\n", warnStyle.Render("⚠️  Diese Aktion braucht deine Bestätigung"))
	fmt.Fprintf(output, "Aktion: %s\n", cmd.Summary())

	if checkResult != nil && checkResult.Warning != "" {
		fmt.Fprintf(output, "Warnung: %s\n", checkResult.Warning)
	}
	if checkResult != nil && checkResult.Reason != "" {
		fmt.Fprintf(output, "Grund: %s\n", checkResult.Reason)
	}

	fmt.Fprintf(output, "\n[y] ausführen  [s] überspringen  [q] abbrechen\n> ")

	for {
		line, err := input.ReadString('\n')
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return false, ErrQuitAll
			}
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "j", "ja", "yes":
			fmt.Fprintln(output, "✓ Freigegeben")
			return true, nil
		case "s", "n", "nein":
			fmt.Fprintln(output, "⊘ Übersprungen")
			return false, nil
		case "q":
			fmt.Fprintln(output, "✗ Abgebrochen")
			return false, ErrQuitAll
		default:
			if err != nil {
				return false, ErrQuitAll
			}
			fmt.Fprint(output, "Ungültige Eingabe, bitte y/s/q: ")
		}
	}
}

// Confirmer asks at the terminal before dangerous commands run.
type Confirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ core.Authorizer = (*Confirmer)(nil)

// NewConfirmer reads answers from in, which must be the reader the REPL
// reads its lines from.
func NewConfirmer(in *bufio.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: in, out: out}
}

// Authorize implements core.Authorizer.
func (c *Confirmer) Authorize(ctx context.Context, cmd router.Command, check *security.CheckResult) (bool, string) {
	if ctx.Err() != nil {
		return false, "🚫 Abgebrochen"
	}
	ok, err := ConfirmWithIO(cmd, check, c.in, c.out)
	switch {
	case ok:
		return true, ""
	case errors.Is(err, ErrQuitAll):
		return false, "🚫 Abgebrochen"
	case err != nil:
		return false, "❌ Eingabe konnte nicht gelesen werden: " + err.Error()
	default:
		return false, "⊘ Übersprungen: " + cmd.Summary()
	}
}
