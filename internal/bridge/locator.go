package bridge

// RuleSet holds ordered CSS selector rules per locator category. Rules
// are tried in order; authoring order is significant everywhere a
// "first match wins" decision is made.
type RuleSet struct {
	// Input locates the prompt composer control.
	Input []string `yaml:"input,omitempty" json:"input,omitempty"`
	// StopControl locates the busy indicator shown while a reply streams.
	StopControl []string `yaml:"stopControl,omitempty" json:"stopControl,omitempty"`
	// SendControl locates the submit affordance shown when the platform is idle.
	SendControl []string `yaml:"sendControl,omitempty" json:"sendControl,omitempty"`
	// ResponseBlock locates completed assistant reply containers.
	ResponseBlock []string `yaml:"responseBlock,omitempty" json:"responseBlock,omitempty"`
	// ModelLabel locates the UI element naming the active model.
	ModelLabel []string `yaml:"modelLabel,omitempty" json:"modelLabel,omitempty"`
	// Fingerprint holds selectors that only exist on this platform's DOM.
	// Empty means the profile never fingerprint-matches.
	Fingerprint []string `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
}

// genericRules is the platform-agnostic fallback set. Profile overrides
// are consulted first; these selectors keep the pipeline functional on
// pages the registry has never seen. Fingerprint stays empty so the
// unknown profile never claims a page by DOM evidence.
var genericRules = RuleSet{
	Input: []string{
		`textarea`,
		`div[contenteditable="true"]`,
		`[role="textbox"]`,
	},
	StopControl: []string{
		`button[aria-label*="Stop" i]`,
		`[data-testid*="stop"]`,
	},
	SendControl: []string{
		`button[aria-label*="Send" i]`,
		`[data-testid*="send"]`,
		`button[type="submit"]`,
	},
	ResponseBlock: []string{
		`[data-message-author-role="assistant"]`,
		`.markdown`,
		`.prose`,
	},
	ModelLabel: []string{
		`[data-testid*="model"]`,
		`button[aria-haspopup="menu"]`,
	},
}

// Resolve merges a profile's overrides over the generic fallback set.
// Override rules come first in authored order, then generic rules,
// with exact duplicate selectors dropped keeping the first occurrence.
// The result is what the rest of the pipeline consumes; resolving the
// same profile twice yields the same strategy.
func Resolve(p *Profile) RuleSet {
	if p == nil {
		return Resolve(&Profile{ID: PlatformUnknown})
	}
	return RuleSet{
		Input:         mergeRules(p.Overrides.Input, genericRules.Input),
		StopControl:   mergeRules(p.Overrides.StopControl, genericRules.StopControl),
		SendControl:   mergeRules(p.Overrides.SendControl, genericRules.SendControl),
		ResponseBlock: mergeRules(p.Overrides.ResponseBlock, genericRules.ResponseBlock),
		ModelLabel:    mergeRules(p.Overrides.ModelLabel, genericRules.ModelLabel),
		Fingerprint:   mergeRules(p.Overrides.Fingerprint, genericRules.Fingerprint),
	}
}

// mergeRules concatenates overrides then generic, deduplicating exact
// selector strings and keeping the first occurrence of each.
func mergeRules(overrides, generic []string) []string {
	merged := make([]string, 0, len(overrides)+len(generic))
	seen := make(map[string]struct{}, len(overrides)+len(generic))
	for _, list := range [][]string{overrides, generic} {
		for _, rule := range list {
			if _, dup := seen[rule]; dup {
				continue
			}
			seen[rule] = struct{}{}
			merged = append(merged, rule)
		}
	}
	return merged
}
