package terminal

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

func deleteCmd() router.Command {
	p, _ := router.ExtractPath("/tmp/test")
	return router.Delete{Path: p}
}

var dangerous = &security.CheckResult{
	Allowed:      true,
	RequiresAuth: true,
	Warning:      "Löscht dauerhaft",
	Reason:       "gefährlicher Befehl",
}

func TestConfirmWithIO(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr error
		output  string
	}{
		{"yes", "y\n", true, nil, "✓ Freigegeben"},
		{"german yes", "ja\n", true, nil, "✓ Freigegeben"},
		{"skip", "s\n", false, nil, "⊘ Übersprungen"},
		{"quit", "q\n", false, ErrQuitAll, "✗ Abgebrochen"},
		{"invalid then yes", "vielleicht\ny\n", true, nil, "Ungültige Eingabe"},
		{"end of input", "", false, ErrQuitAll, ""},
		{"no trailing newline", "y", true, nil, "✓ Freigegeben"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &strings.Builder{}
			got, err := ConfirmWithIO(deleteCmd(), dangerous, bufio.NewReader(strings.NewReader(tt.input)), output)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("approved = %v, want %v", got, tt.want)
			}
			out := output.String()
			for _, want := range []string{"Bestätigung", "Löscht dauerhaft", "gefährlicher Befehl", deleteCmd().Summary(), tt.output} {
				if !strings.Contains(out, want) {
					t.Errorf("output misses %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestConfirmWithIO_LeavesNextLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("y\nwo bin ich\n"))

	if ok, _ := ConfirmWithIO(deleteCmd(), dangerous, in, &strings.Builder{}); !ok {
		t.Fatal("expected approval")
	}
	rest, _ := in.ReadString('\n')
	if rest != "wo bin ich\n" {
		t.Errorf("next line = %q", rest)
	}
}

func TestConfirmer_Authorize(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		prefix string
	}{
		{"y\n", true, ""},
		{"s\n", false, "⊘ Übersprungen: "},
		{"q\n", false, "🚫 Abgebrochen"},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			c := NewConfirmer(bufio.NewReader(strings.NewReader(tt.input)), &strings.Builder{})
			ok, msg := c.Authorize(context.Background(), deleteCmd(), dangerous)
			if ok != tt.want || !strings.HasPrefix(msg, tt.prefix) {
				t.Errorf("Authorize = %v, %q", ok, msg)
			}
		})
	}
}

func TestConfirmer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConfirmer(bufio.NewReader(strings.NewReader("y\n")), &strings.Builder{})
	if ok, _ := c.Authorize(ctx, deleteCmd(), dangerous); ok {
		t.Error("cancelled context must not authorize")
	}
}
