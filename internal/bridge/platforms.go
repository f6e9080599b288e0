package bridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Platform identifies one supported chat platform.
type Platform string

const (
	PlatformChatGPT    Platform = "chatgpt"
	PlatformClaude     Platform = "claude"
	PlatformGemini     Platform = "gemini"
	PlatformDeepSeek   Platform = "deepseek"
	PlatformGrok       Platform = "grok"
	PlatformPerplexity Platform = "perplexity"
	// PlatformUnknown is the detector's fallback. It carries no
	// overrides, so the generic rules drive the whole pipeline.
	PlatformUnknown Platform = "unknown"
)

// Profile describes how to recognize and drive one platform's DOM.
type Profile struct {
	ID Platform
	// URLHints are substrings matched case-insensitively against a
	// page's URL and title to nominate detection candidates.
	URLHints []string
	// Overrides are consulted before the generic rules for each
	// category. Only the categories a platform actually needs are set.
	Overrides RuleSet
}

// Registry holds the known profiles in detection precedence order.
type Registry struct {
	profiles []Profile
	unknown  Profile
}

// builtinProfiles returns the shipped registry content. Selector sets
// are per-platform observations and drift with upstream UI releases;
// the platforms file exists so deployments can patch them without a
// rebuild.
func builtinProfiles() []Profile {
	return []Profile{
		{
			ID:       PlatformChatGPT,
			URLHints: []string{"chatgpt.com", "chat.openai.com", "chatgpt"},
			Overrides: RuleSet{
				Input:         []string{`#prompt-textarea`},
				SendControl:   []string{`[data-testid="send-button"]`, `button[data-testid="composer-send-button"]`},
				StopControl:   []string{`[data-testid="stop-button"]`, `.result-streaming`},
				ResponseBlock: []string{`div[data-message-author-role="assistant"] .markdown`, `.markdown.prose`},
				ModelLabel:    []string{`[data-testid="model-switcher-dropdown-button"]`},
				Fingerprint:   []string{`#prompt-textarea`, `[data-testid="send-button"]`},
			},
		},
		{
			ID:       PlatformClaude,
			URLHints: []string{"claude.ai", "claude"},
			Overrides: RuleSet{
				Input:         []string{`div[contenteditable="true"].ProseMirror`, `div[contenteditable="true"]`},
				SendControl:   []string{`button[aria-label="Send message"]`, `button[aria-label="Send Message"]`},
				StopControl:   []string{`button[aria-label="Stop response"]`, `[data-is-streaming="true"]`},
				ResponseBlock: []string{`.font-claude-message`, `div[data-is-streaming="false"]`},
				ModelLabel:    []string{`[data-testid="model-selector-dropdown"]`},
				Fingerprint:   []string{`.font-claude-message`, `div[contenteditable="true"].ProseMirror`},
			},
		},
		{
			ID:       PlatformGemini,
			URLHints: []string{"gemini.google.com", "gemini"},
			Overrides: RuleSet{
				Input:         []string{`rich-textarea .ql-editor`, `.ql-editor`},
				SendControl:   []string{`.send-button`, `button[aria-label="Send message"]`},
				StopControl:   []string{`.loading-indicator`, `button[aria-label="Stop response"]`},
				ResponseBlock: []string{`message-content`, `.response-content`},
				ModelLabel:    []string{`.current-mode-title`, `[data-test-id="bard-mode-menu-button"]`},
				Fingerprint:   []string{`rich-textarea`, `message-content`},
			},
		},
		{
			ID:       PlatformDeepSeek,
			URLHints: []string{"chat.deepseek.com", "deepseek"},
			Overrides: RuleSet{
				Input:         []string{`#chat-input`},
				ResponseBlock: []string{`.ds-markdown`},
				Fingerprint:   []string{`#chat-input`, `.ds-markdown`},
			},
		},
		{
			ID:       PlatformGrok,
			URLHints: []string{"grok.com", "x.com/i/grok", "grok"},
			Overrides: RuleSet{
				Input:         []string{`textarea[aria-label="Ask Grok anything"]`, `textarea[placeholder*="Grok"]`},
				SendControl:   []string{`button[aria-label="Submit"]`, `button[type="submit"]`},
				StopControl:   []string{`button[aria-label="Stop model response"]`},
				ResponseBlock: []string{`.message-bubble`},
				Fingerprint:   []string{`textarea[aria-label="Ask Grok anything"]`, `.message-bubble`},
			},
		},
		{
			ID:       PlatformPerplexity,
			URLHints: []string{"perplexity.ai", "perplexity"},
			Overrides: RuleSet{
				Input:         []string{`#ask-input`, `textarea[placeholder*="Ask"]`},
				SendControl:   []string{`button[aria-label="Submit"]`},
				StopControl:   []string{`button[aria-label="Stop generating response"]`},
				ResponseBlock: []string{`div[id^="markdown-content"]`, `.prose`},
				Fingerprint:   []string{`div[id^="markdown-content"]`},
			},
		},
	}
}

// NewRegistry builds the built-in registry. When path names an existing
// platforms file its per-platform overrides are applied on top; a
// missing file is not an error so the default install works untouched.
func NewRegistry(path string) (*Registry, error) {
	reg := &Registry{
		profiles: builtinProfiles(),
		unknown:  Profile{ID: PlatformUnknown},
	}
	if path == "" {
		return reg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read platforms file: %w", err)
	}
	if err := reg.applyOverrides(data); err != nil {
		return nil, fmt.Errorf("parse platforms file %s: %w", path, err)
	}
	return reg, nil
}

// overrideFile is the on-disk platforms file shape. A category listed
// for a platform replaces that platform's built-in list wholesale;
// absent categories keep the built-ins.
type overrideFile struct {
	Platforms map[string]profileOverride `yaml:"platforms"`
}

type profileOverride struct {
	URLHints []string `yaml:"urlHints"`
	RuleSet  `yaml:",inline"`
}

func (r *Registry) applyOverrides(data []byte) error {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for name, ov := range file.Platforms {
		idx := r.indexOf(Platform(name))
		if idx < 0 {
			return fmt.Errorf("unknown platform %q", name)
		}
		p := &r.profiles[idx]
		if len(ov.URLHints) > 0 {
			p.URLHints = ov.URLHints
		}
		applyCategory(&p.Overrides.Input, ov.Input)
		applyCategory(&p.Overrides.StopControl, ov.StopControl)
		applyCategory(&p.Overrides.SendControl, ov.SendControl)
		applyCategory(&p.Overrides.ResponseBlock, ov.ResponseBlock)
		applyCategory(&p.Overrides.ModelLabel, ov.ModelLabel)
		applyCategory(&p.Overrides.Fingerprint, ov.Fingerprint)
	}
	return nil
}

func applyCategory(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func (r *Registry) indexOf(id Platform) int {
	for i := range r.profiles {
		if r.profiles[i].ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns the profile for id, or nil when id is not registered.
// The unknown profile is addressable by its own id.
func (r *Registry) Lookup(id Platform) *Profile {
	if id == PlatformUnknown {
		return &r.unknown
	}
	if idx := r.indexOf(id); idx >= 0 {
		return &r.profiles[idx]
	}
	return nil
}

// All returns the registered profiles in detection precedence order,
// excluding the unknown fallback.
func (r *Registry) All() []Profile {
	return r.profiles
}

// Unknown returns the fallback profile used when detection fails.
func (r *Registry) Unknown() *Profile {
	return &r.unknown
}
