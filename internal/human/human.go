// Package human delivers text as real key events through CDP. Rich
// chat editors (contenteditable frameworks) ignore programmatic value
// writes and only register content that arrives as live input, so the
// prompt is typed keystroke by keystroke.
package human

import (
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Type builds the keystroke sequence for text with a fixed inter-key
// delay. Embedded newlines are sent as Shift+Enter: a bare Enter
// submits in every chat editor, so it is reserved for the caller's
// submit action.
func Type(text string, delay time.Duration) []chromedp.Action {
	actions := make([]chromedp.Action, 0, len(text)*2)
	for _, char := range text {
		switch char {
		case '\r':
			continue
		case '\n':
			actions = append(actions, chromedp.KeyEvent(kb.Enter, chromedp.KeyModifiers(input.ModifierShift)))
		default:
			actions = append(actions, chromedp.KeyEvent(string(char)))
		}
		if delay > 0 {
			actions = append(actions, chromedp.Sleep(delay))
		}
	}
	return actions
}

// Submit presses the key that submits the focused chat input.
func Submit() chromedp.Action {
	return chromedp.KeyEvent(kb.Enter)
}
