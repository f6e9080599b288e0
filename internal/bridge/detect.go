package bridge

import (
	"context"
	"log/slog"
	"regexp"
)

// Detection methods, reported for logging and the tabs listing.
const (
	DetectedByFingerprint = "fingerprint"
	DetectedByURL         = "url"
	DetectedByNone        = "none"
)

// detectPlatform identifies the profile that drives pg. DOM evidence
// outranks address evidence: a page whose URL suggests one platform
// but whose DOM carries another platform's fingerprint gets the
// fingerprinted profile. Probe failures count as non-matches so a
// flaky page degrades to the URL ladder instead of aborting.
func detectPlatform(ctx context.Context, pg Page, reg *Registry, fallback *regexp.Regexp) (*Profile, string) {
	profiles := reg.All()

	var candidates []*Profile
	for i := range profiles {
		if matchesHints(pg, profiles[i].URLHints) {
			candidates = append(candidates, &profiles[i])
		}
	}

	probed := make(map[Platform]bool, len(profiles))
	for _, p := range candidates {
		probed[p.ID] = true
		if fingerprinted(ctx, pg, p) {
			return p, DetectedByFingerprint
		}
	}

	// URL hints can lie (redirects, region mirrors, lookalike titles),
	// so every remaining profile gets a chance to claim the DOM.
	for i := range profiles {
		p := &profiles[i]
		if probed[p.ID] {
			continue
		}
		if fingerprinted(ctx, pg, p) {
			return p, DetectedByFingerprint
		}
	}

	if len(candidates) > 0 && fallback != nil && fallback.MatchString(pg.URL()) {
		return candidates[0], DetectedByURL
	}

	slog.Debug("platform detection fell through", "targetId", pg.TargetID(), "url", pg.URL())
	return reg.Unknown(), DetectedByNone
}

func fingerprinted(ctx context.Context, pg Page, p *Profile) bool {
	if len(p.Overrides.Fingerprint) == 0 {
		return false
	}
	found, err := pg.AnyPresent(ctx, p.Overrides.Fingerprint)
	if err != nil {
		slog.Debug("fingerprint probe failed", "platform", p.ID, "error", err)
		return false
	}
	return found
}
