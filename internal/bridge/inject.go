package bridge

import (
	"context"
	"fmt"
	"log/slog"
)

// Control kinds reported by Page.ControlKind.
const (
	controlField    = "field"
	controlEditable = "editable"
)

// injectPrompt places prompt into the page's composer and submits it.
// The first input rule whose element is visible wins. Plain fields are
// set in one step; rich editable regions are cleared and typed into,
// since their editor frameworks drop programmatic writes. One attempt,
// no retries: a second submission could double-post the prompt.
func injectPrompt(ctx context.Context, pg Page, strategy RuleSet, prompt string) error {
	sel, err := pg.FirstVisible(ctx, strategy.Input)
	if err != nil {
		return fmt.Errorf("probe input rules: %w", err)
	}
	if sel == "" {
		return ErrInputNotFound
	}

	kind, err := pg.ControlKind(ctx, sel)
	if err != nil {
		return fmt.Errorf("classify input %q: %w", sel, err)
	}
	slog.Debug("injecting prompt", "selector", sel, "kind", kind, "chars", len(prompt))

	switch kind {
	case controlField:
		if err := pg.SetText(ctx, sel, prompt); err != nil {
			return fmt.Errorf("set prompt text: %w", err)
		}
	default:
		// contenteditable, or a control the classifier could not name;
		// keystrokes land on whatever holds focus after the click.
		if err := pg.TypeText(ctx, sel, prompt); err != nil {
			return fmt.Errorf("type prompt text: %w", err)
		}
	}

	if err := pg.Submit(ctx); err != nil {
		return fmt.Errorf("submit prompt: %w", err)
	}
	return nil
}
