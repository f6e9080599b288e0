package bridge

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// TargetTypePage is the CDP target type for a normal browser tab.
const TargetTypePage = "page"

// listPages enumerates open tabs and attaches to each one. Targets
// that close between enumeration and attach are skipped, not fatal.
func listPages(browserCtx context.Context, typeDelay time.Duration) ([]Page, error) {
	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(targets))
	for _, t := range targets {
		if t.Type != TargetTypePage {
			continue
		}
		pg, err := attachPage(browserCtx, t, typeDelay)
		if err != nil {
			slog.Warn("tab attach failed, skipping", "targetId", t.TargetID, "url", t.URL, "error", err)
			continue
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// selectPage picks the page the conversation should run against:
// the focused page first, then the first page whose URL matches
// pattern, then the first page. A platform filter narrows the
// candidates before the ladder runs.
func selectPage(ctx context.Context, pages []Page, pattern *regexp.Regexp, want *Profile) (Page, error) {
	if len(pages) == 0 {
		return nil, ErrNoOpenPages
	}
	if want != nil && want.ID != PlatformUnknown {
		pages = filterByHints(pages, want.URLHints)
		if len(pages) == 0 {
			return nil, ErrNoSelectablePage
		}
	}
	for _, pg := range pages {
		focused, err := pg.HasFocus(ctx)
		if err != nil {
			// The tab may have closed or navigated mid-probe.
			slog.Debug("focus probe failed, skipping page", "targetId", pg.TargetID(), "error", err)
			continue
		}
		if focused {
			return pg, nil
		}
	}
	if pattern != nil {
		for _, pg := range pages {
			if pattern.MatchString(pg.URL()) {
				return pg, nil
			}
		}
	}
	return pages[0], nil
}

func filterByHints(pages []Page, hints []string) []Page {
	var kept []Page
	for _, pg := range pages {
		if matchesHints(pg, hints) {
			kept = append(kept, pg)
		}
	}
	return kept
}

// matchesHints reports whether any hint appears in the page's URL or
// title, case-insensitively.
func matchesHints(pg Page, hints []string) bool {
	url := strings.ToLower(pg.URL())
	title := strings.ToLower(pg.Title())
	for _, hint := range hints {
		h := strings.ToLower(hint)
		if h == "" {
			continue
		}
		if strings.Contains(url, h) || strings.Contains(title, h) {
			return true
		}
	}
	return false
}
