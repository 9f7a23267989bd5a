package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsCoverKnownKeys(t *testing.T) {
	cat := Defaults()
	for _, key := range []string{
		"greeting",
		"auth.pin_prompt",
		"menu.main",
		"sched.confirm",
		"transfer.position",
		"error.generic",
		"goodbye",
	} {
		if !cat.Has(key) {
			t.Fatalf("missing default for %q", key)
		}
		if strings.TrimSpace(cat.Text(key)) == "" {
			t.Fatalf("empty default for %q", key)
		}
	}
}

func TestTextFormatsArguments(t *testing.T) {
	cat := Defaults()
	got := cat.Text("transfer.position", 3)
	if got != "You are caller number 3 in line." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestTextUnknownKeyFallsBack(t *testing.T) {
	cat := Defaults()
	got := cat.Text("no.such.key")
	if got == "" {
		t.Fatal("expected a non-empty fallback")
	}
	if !strings.Contains(got, "representative") {
		t.Fatalf("fallback should route the caller onward, got %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := "greeting: \"Thank you for calling Harbor Home Care.\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write override file: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cat.Text("greeting"); got != "Thank you for calling Harbor Home Care." {
		t.Fatalf("override not applied: %q", got)
	}
	if got := cat.Text("goodbye"); got != Defaults().Text("goodbye") {
		t.Fatalf("untouched key changed: %q", got)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte("greting: oops\n"), 0o600); err != nil {
		t.Fatalf("write override file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadRejectsEmptyText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte("greeting: \"  \"\n"), 0o600); err != nil {
		t.Fatalf("write override file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cat.Text("greeting") != Defaults().Text("greeting") {
		t.Fatal("expected defaults for empty path")
	}
}
