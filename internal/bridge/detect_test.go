package bridge

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/xapet-0/openclaw/internal/config"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return reg
}

func TestDetectFingerprintBeatsURL(t *testing.T) {
	// The address says ChatGPT, the DOM says Claude.
	pg := &fakePage{url: "https://chatgpt.com/c/misdirect", title: "ChatGPT"}
	pg.anyPresent = func(rules []string) (bool, error) {
		return hasRule(rules, `.font-claude-message`), nil
	}

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), nil)
	if profile.ID != PlatformClaude {
		t.Errorf("detected %q, want %q (DOM evidence outranks the URL)", profile.ID, PlatformClaude)
	}
	if method != DetectedByFingerprint {
		t.Errorf("method = %q, want %q", method, DetectedByFingerprint)
	}
}

func TestDetectCandidateFingerprint(t *testing.T) {
	pg := &fakePage{url: "https://gemini.google.com/app", title: "Gemini"}
	pg.anyPresent = func(rules []string) (bool, error) {
		return hasRule(rules, `rich-textarea`), nil
	}

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), nil)
	if profile.ID != PlatformGemini {
		t.Errorf("detected %q, want %q", profile.ID, PlatformGemini)
	}
	if method != DetectedByFingerprint {
		t.Errorf("method = %q, want %q", method, DetectedByFingerprint)
	}
}

func TestDetectURLFallback(t *testing.T) {
	// Nothing fingerprints (page still loading), but the URL hint and
	// the fallback pattern agree.
	pg := &fakePage{url: "https://chatgpt.com/c/slow", title: "ChatGPT"}
	pattern := regexp.MustCompile(config.DefaultURLPattern)

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), pattern)
	if profile.ID != PlatformChatGPT {
		t.Errorf("detected %q, want %q", profile.ID, PlatformChatGPT)
	}
	if method != DetectedByURL {
		t.Errorf("method = %q, want %q", method, DetectedByURL)
	}
}

func TestDetectUnknown(t *testing.T) {
	pg := &fakePage{url: "https://example.com/", title: "Example Domain"}
	pattern := regexp.MustCompile(config.DefaultURLPattern)

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), pattern)
	if profile.ID != PlatformUnknown {
		t.Errorf("detected %q, want %q", profile.ID, PlatformUnknown)
	}
	if method != DetectedByNone {
		t.Errorf("method = %q, want %q", method, DetectedByNone)
	}
}

func TestDetectRegistryOrderBreaksTies(t *testing.T) {
	// Both chatgpt and claude fingerprints present on an unhinted page;
	// the earlier registry entry wins.
	pg := &fakePage{url: "https://mirror.internal/chat", title: "Chat"}
	pg.anyPresent = func(rules []string) (bool, error) {
		return hasRule(rules, `#prompt-textarea`) || hasRule(rules, `.font-claude-message`), nil
	}

	profile, _ := detectPlatform(context.Background(), pg, testRegistry(t), nil)
	if profile.ID != PlatformChatGPT {
		t.Errorf("detected %q, want %q (registry order)", profile.ID, PlatformChatGPT)
	}
}

func TestDetectProbeErrorsDegradeToURL(t *testing.T) {
	pg := &fakePage{url: "https://claude.ai/chat/1", title: "Claude"}
	pg.anyPresent = func(rules []string) (bool, error) {
		return false, errors.New("execution context destroyed")
	}
	pattern := regexp.MustCompile(config.DefaultURLPattern)

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), pattern)
	if profile.ID != PlatformClaude {
		t.Errorf("detected %q, want %q via the URL ladder", profile.ID, PlatformClaude)
	}
	if method != DetectedByURL {
		t.Errorf("method = %q, want %q", method, DetectedByURL)
	}
}

func TestDetectTitleHint(t *testing.T) {
	// A reverse-proxied deployment with an opaque URL still hints via
	// the document title.
	pg := &fakePage{url: "https://ai.corp.internal/tool", title: "DeepSeek - Into the Unknown"}
	pg.anyPresent = func(rules []string) (bool, error) {
		return hasRule(rules, `#chat-input`), nil
	}

	profile, method := detectPlatform(context.Background(), pg, testRegistry(t), nil)
	if profile.ID != PlatformDeepSeek {
		t.Errorf("detected %q, want %q", profile.ID, PlatformDeepSeek)
	}
	if method != DetectedByFingerprint {
		t.Errorf("method = %q, want %q", method, DetectedByFingerprint)
	}
}
