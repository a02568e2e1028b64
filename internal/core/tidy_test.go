package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTidyCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
	}{
		{"bericht.pdf", "Dokumente"},
		{"Notizen.MD", "Dokumente"},
		{"urlaub.jpeg", "Bilder"},
		{"backup.tar", "Archive"},
		{"backup.tar.gz", "Archive"},
		{"script.py", "Code"},
		{"config.yml", "Code"},
		{"song.mp3", "AudioVideo"},
		{"film.mkv", "AudioVideo"},
		{"setup.exe", "Sonstiges"},
		{"Makefile", "Sonstiges"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TidyCategory(tt.name); got != tt.category {
				t.Errorf("TidyCategory(%s) = %s, want %s", tt.name, got, tt.category)
			}
		})
	}
}

func TestDefaultTidyTarget(t *testing.T) {
	if got := DefaultTidyTarget("/home/anna/Desktop/"); got != "/home/anna/Desktop_aufgeraeumt" {
		t.Errorf("DefaultTidyTarget = %s", got)
	}
}

func TestPlanTidy(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "bericht.pdf"))
	touch(t, filepath.Join(src, "foto.png"))
	touch(t, filepath.Join(src, "notizen"))
	touch(t, filepath.Join(src, ".versteckt.txt"))
	touch(t, filepath.Join(src, "ordner", "innen.txt"))
	if err := os.Symlink(filepath.Join(src, "bericht.pdf"), filepath.Join(src, "link.pdf")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	plan, err := PlanTidy(src, filepath.Join(src, "ziel"))
	if err != nil {
		t.Fatalf("PlanTidy failed: %v", err)
	}

	if plan.Considered != 3 {
		t.Errorf("Expected 3 considered files, got %d", plan.Considered)
	}
	if plan.TooMany {
		t.Error("Expected no overflow")
	}
	want := map[string][]string{
		"Dokumente": {"bericht.pdf"},
		"Bilder":    {"foto.png"},
		"Sonstiges": {"notizen"},
	}
	for cat, files := range want {
		got := plan.Groups[cat]
		if len(got) != len(files) || got[0] != files[0] {
			t.Errorf("Group %s = %v, want %v", cat, got, files)
		}
	}
	if len(plan.Groups) != len(want) {
		t.Errorf("Unexpected groups: %v", plan.Groups)
	}
}

func TestPlanTidy_Cap(t *testing.T) {
	src := t.TempDir()
	for i := 0; i < MaxTidyFiles+5; i++ {
		touch(t, filepath.Join(src, fmt.Sprintf("datei%03d.txt", i)))
	}

	plan, err := PlanTidy(src, src+"_ziel")
	if err != nil {
		t.Fatalf("PlanTidy failed: %v", err)
	}
	if !plan.TooMany {
		t.Error("Expected overflow flag")
	}
	if len(plan.Moves) != MaxTidyFiles {
		t.Errorf("Expected %d moves, got %d", MaxTidyFiles, len(plan.Moves))
	}
	if plan.Considered != MaxTidyFiles+5 {
		t.Errorf("Expected %d considered, got %d", MaxTidyFiles+5, plan.Considered)
	}
}

func TestPlanTidy_MissingSource(t *testing.T) {
	_, err := PlanTidy(filepath.Join(t.TempDir(), "fehlt"), "/tmp/x")
	if err == nil {
		t.Fatal("Expected error for missing source")
	}
	if got := describe(err); !strings.HasPrefix(got, "❌ Pfad nicht gefunden") {
		t.Errorf("Unexpected status: %s", got)
	}
}
