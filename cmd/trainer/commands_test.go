package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"ulasan/internal/service"
)

func TestTrainingSourceFlags(t *testing.T) {
	if _, err := trainingSource("", false); err == nil {
		t.Fatalf("expected error without a source")
	}
	if _, err := trainingSource("a.csv", true); err == nil {
		t.Fatalf("expected error with both sources")
	}
	src, err := trainingSource("a.csv", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs, ok := src.(service.FileSource); !ok || fs.Path != "a.csv" {
		t.Fatalf("unexpected source %#v", src)
	}
	if src, _ := trainingSource("", true); src.Name() != "corrections" {
		t.Fatalf("unexpected source %#v", src)
	}
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "cli.db"))
	t.Setenv("FINE_TUNED_DIR", filepath.Join(dir, "fine_tuned_model"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"classify", "makanannya", "enak", "sekali"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Positive") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
