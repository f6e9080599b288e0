package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRegistryBuiltins(t *testing.T) {
	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	wantOrder := []Platform{
		PlatformChatGPT, PlatformClaude, PlatformGemini,
		PlatformDeepSeek, PlatformGrok, PlatformPerplexity,
	}
	all := reg.All()
	if len(all) != len(wantOrder) {
		t.Fatalf("registry has %d profiles, want %d", len(all), len(wantOrder))
	}
	for i, want := range wantOrder {
		if all[i].ID != want {
			t.Errorf("profile[%d] = %q, want %q", i, all[i].ID, want)
		}
	}
	if reg.Lookup(PlatformUnknown) == nil {
		t.Error("unknown profile not addressable")
	}
	if reg.Lookup("nope") != nil {
		t.Error("Lookup should return nil for unregistered ids")
	}
}

func TestNewRegistryMissingFileIsFine(t *testing.T) {
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("NewRegistry() with absent file: %v", err)
	}
	if len(reg.All()) == 0 {
		t.Error("builtins missing when override file is absent")
	}
}

func TestNewRegistryAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	content := `
platforms:
  chatgpt:
    input:
      - "#new-composer"
    fingerprint:
      - "#new-composer"
  gemini:
    urlHints:
      - "gemini.example.internal"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	chatgpt := reg.Lookup(PlatformChatGPT)
	if len(chatgpt.Overrides.Input) != 1 || chatgpt.Overrides.Input[0] != "#new-composer" {
		t.Errorf("chatgpt input overrides = %v, want [#new-composer]", chatgpt.Overrides.Input)
	}
	// Categories the file does not mention keep their built-ins.
	if len(chatgpt.Overrides.SendControl) == 0 {
		t.Error("chatgpt sendControl lost its built-in rules")
	}

	gemini := reg.Lookup(PlatformGemini)
	if len(gemini.URLHints) != 1 || gemini.URLHints[0] != "gemini.example.internal" {
		t.Errorf("gemini urlHints = %v, want the override", gemini.URLHints)
	}
	if len(gemini.Overrides.Input) == 0 {
		t.Error("gemini input rules lost when only urlHints were overridden")
	}
}

func TestNewRegistryRejectsUnknownPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	content := `
platforms:
  copilot:
    input: ["#x"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewRegistry(path)
	if err == nil {
		t.Fatal("NewRegistry() accepted an unregistered platform id")
	}
	if !strings.Contains(err.Error(), "copilot") {
		t.Errorf("error = %v, want it to name the bad id", err)
	}
}

func TestNewRegistryRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	if err := os.WriteFile(path, []byte("platforms: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRegistry(path); err == nil {
		t.Fatal("NewRegistry() accepted malformed yaml")
	}
}
