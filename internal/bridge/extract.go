package bridge

import (
	"context"
	"log/slog"
	"strings"
)

// Reply is the scraped outcome of one completed turn.
type Reply struct {
	Text  string
	Model string
}

// extractReply scrapes the newest assistant reply. Rules are tried in
// order; the first rule whose last matched element carries text wins,
// and the last match is taken because platforms append replies to the
// transcript. The model label is opportunistic and never fails the
// turn.
func extractReply(ctx context.Context, pg Page, strategy RuleSet) (Reply, error) {
	var text string
	for _, rule := range strategy.ResponseBlock {
		texts, err := pg.RuleTexts(ctx, rule)
		if err != nil {
			slog.Debug("response rule probe failed, skipping", "rule", rule, "error", err)
			continue
		}
		if len(texts) == 0 {
			continue
		}
		if t := strings.TrimSpace(texts[len(texts)-1]); t != "" {
			text = t
			break
		}
	}
	if text == "" {
		return Reply{}, ErrEmptyResponse
	}
	return Reply{Text: text, Model: modelLabel(ctx, pg, strategy.ModelLabel)}, nil
}

// modelLabel scrapes the displayed model name: the first element of
// the first rule that yields text, or "".
func modelLabel(ctx context.Context, pg Page, rules []string) string {
	for _, rule := range rules {
		texts, err := pg.RuleTexts(ctx, rule)
		if err != nil || len(texts) == 0 {
			continue
		}
		if t := strings.TrimSpace(texts[0]); t != "" {
			return t
		}
	}
	return ""
}
