package security

import (
	"os"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// path builds a router path the way the router would.
func path(s string) router.Path {
	if p, ok := router.ExtractPath(s); ok {
		return p
	}
	return router.BarePath(s)
}

func TestDangerousCommandChecker_IsDangerous(t *testing.T) {
	checker := NewDangerousCommandChecker()

	tests := []struct {
		name      string
		cmd       router.Command
		dangerous bool
	}{
		{"delete is dangerous", router.Delete{Path: path("/tmp/test")}, true},
		{"executing organize is dangerous", router.Organize{Source: path("/tmp/docs")}, true},
		{"organize dry run is not dangerous", router.Organize{Source: path("/tmp/docs"), DryRun: true}, false},
		{"move is not dangerous", router.Move{Source: path("/tmp/a"), Dest: path("/tmp/b")}, false},
		{"list is not dangerous", router.ListDir{}, false},
		{"greeting is not dangerous", router.Greeting{Text: "hallo"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checker.IsDangerous(tt.cmd)
			if result != tt.dangerous {
				t.Errorf("IsDangerous() = %v, want %v", result, tt.dangerous)
			}
		})
	}
}

func TestDangerousCommandChecker_IsCriticalPath(t *testing.T) {
	checker := NewDangerousCommandChecker()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		path     string
		critical bool
	}{
		{"/", true},
		{"/etc", true},
		{"/usr/", true},
		{home, true},
		{"/etc/hosts", false},
		{home + "/Desktop", false},
		{"/tmp/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := checker.IsCriticalPath(tt.path); got != tt.critical {
				t.Errorf("IsCriticalPath(%s) = %v, want %v", tt.path, got, tt.critical)
			}
		})
	}
}
