package security

import (
	"os"
	"testing"

	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

func TestSecurityController_CheckCommand(t *testing.T) {
	policy := &SecurityPolicy{
		CommandLevel:    ConfirmDangerous,
		RestrictedPaths: []string{"/etc"},
		ReadOnlyPaths:   []string{"/tmp/wissen-readonly"},
	}
	controller := NewSecurityController(policy)

	t.Run("safe command allowed", func(t *testing.T) {
		result := controller.CheckCommand(router.ListDir{}, "/tmp")
		if !result.Allowed || result.RequiresAuth {
			t.Errorf("Expected listing to be allowed without auth, got %+v", result)
		}
	})

	t.Run("dangerous command requires auth", func(t *testing.T) {
		result := controller.CheckCommand(router.Delete{Path: path("/tmp/test")}, "/tmp")
		if !result.Allowed {
			t.Fatal("Expected delete to be allowed after confirmation")
		}
		if !result.RequiresAuth {
			t.Error("Expected dangerous command to require auth")
		}
	})

	t.Run("restricted path rejected for reads", func(t *testing.T) {
		p := path("/etc")
		result := controller.CheckCommand(router.ListDir{Path: &p}, "/tmp")
		if result.Allowed {
			t.Error("Expected restricted path access to be rejected")
		}
	})

	t.Run("restricted relative path rejected", func(t *testing.T) {
		result := controller.CheckCommand(router.CreateFile{Path: router.BarePath("passwd")}, "/etc")
		if result.Allowed {
			t.Error("Expected write under restricted cwd to be rejected")
		}
	})

	t.Run("readonly write requires auth", func(t *testing.T) {
		result := controller.CheckCommand(router.CreateDir{Path: path("/tmp/wissen-readonly/neu")}, "/tmp")
		if !result.Allowed || !result.RequiresAuth {
			t.Errorf("Expected readonly write to require auth, got %+v", result)
		}
	})

	t.Run("readonly read allowed", func(t *testing.T) {
		p := path("/tmp/wissen-readonly")
		result := controller.CheckCommand(router.ListDir{Path: &p}, "/tmp")
		if !result.Allowed || result.RequiresAuth {
			t.Errorf("Expected readonly read to pass, got %+v", result)
		}
	})

	t.Run("organize dry run needs no auth", func(t *testing.T) {
		result := controller.CheckCommand(router.Organize{Source: path("/tmp/docs"), DryRun: true}, "/tmp")
		if !result.Allowed || result.RequiresAuth {
			t.Errorf("Expected dry run to pass, got %+v", result)
		}
	})
}

func TestSecurityController_CriticalPaths(t *testing.T) {
	controller := NewSecurityController(&SecurityPolicy{CommandLevel: ConfirmNever})
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		cmd  router.Command
	}{
		{"delete root", router.Delete{Path: path("/")}},
		{"delete home", router.Delete{Path: path(home)}},
		{"move system dir", router.Move{Source: path("/usr"), Dest: path("/tmp/usr")}},
		{"organize home", router.Organize{Source: path(home)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := controller.CheckCommand(tt.cmd, "/tmp"); result.Allowed {
				t.Errorf("Expected %s to be rejected", tt.cmd.Summary())
			}
		})
	}

	result := controller.CheckCommand(router.Organize{Source: path(home), DryRun: true}, "/tmp")
	if !result.Allowed {
		t.Error("Expected organize preview of home to be allowed")
	}
}

func TestSecurityController_CommandLevel(t *testing.T) {
	safeCmd := router.CreateDir{Path: path("/tmp/wissen-test")}
	dangerousCmd := router.Delete{Path: path("/tmp/wissen-test")}
	readCmd := router.Where{}

	tests := []struct {
		name         string
		level        ConfirmLevel
		cmd          router.Command
		requiresAuth bool
	}{
		{"always requires auth for safe commands", ConfirmAlways, safeCmd, true},
		{"always requires auth for dangerous commands", ConfirmAlways, dangerousCmd, true},
		{"always never asks for reads", ConfirmAlways, readCmd, false},
		{"dangerous does not require auth for safe commands", ConfirmDangerous, safeCmd, false},
		{"dangerous requires auth for dangerous commands", ConfirmDangerous, dangerousCmd, true},
		{"never does not require auth for safe commands", ConfirmNever, safeCmd, false},
		{"never does not require auth for dangerous commands", ConfirmNever, dangerousCmd, false},
		{"invalid level behaves like dangerous", ConfirmLevel("sometimes"), dangerousCmd, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := NewSecurityController(&SecurityPolicy{CommandLevel: tt.level})
			result := controller.CheckCommand(tt.cmd, "/tmp")
			if !result.Allowed {
				t.Fatalf("Expected command to be allowed, got %+v", result)
			}
			if result.RequiresAuth != tt.requiresAuth {
				t.Errorf("RequiresAuth = %v, want %v", result.RequiresAuth, tt.requiresAuth)
			}
		})
	}
}

func TestSecurityController_NilPolicy(t *testing.T) {
	controller := NewSecurityController(nil)
	result := controller.CheckCommand(router.Delete{Path: path("/tmp/x")}, "/tmp")
	if !result.RequiresAuth {
		t.Error("Expected default policy to confirm deletes")
	}
}

func TestSecurityController_CheckPathAccess(t *testing.T) {
	controller := NewSecurityController(&SecurityPolicy{
		CommandLevel:    ConfirmDangerous,
		RestrictedPaths: []string{"/etc"},
		ReadOnlyPaths:   []string{"/tmp/wissen-readonly"},
	})

	if r := controller.CheckPathAccess("/etc/hosts", false); r.Allowed {
		t.Error("Expected restricted path to be rejected")
	}
	if r := controller.CheckPathAccess("/tmp/wissen-readonly/a", true); !r.RequiresAuth {
		t.Error("Expected readonly write to require auth")
	}
	if r := controller.CheckPathAccess("/tmp/wissen-readonly/a", false); !r.Allowed || r.RequiresAuth {
		t.Error("Expected readonly read to pass")
	}
}
