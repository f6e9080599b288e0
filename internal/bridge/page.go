package bridge

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Page is one attached browser page the pipeline can probe and drive.
// The production implementation talks CDP through chromedp; tests
// substitute scripted fakes.
type Page interface {
	TargetID() string
	URL() string
	Title() string

	// HasFocus reports whether the page claims OS-level focus.
	HasFocus(ctx context.Context) (bool, error)
	// MatchCount returns the number of distinct elements matching any
	// rule. Rules that fail to parse are skipped.
	MatchCount(ctx context.Context, rules []string) (int, error)
	// AnyVisible reports whether any rule matches a visible element.
	AnyVisible(ctx context.Context, rules []string) (bool, error)
	// AnyPresent reports whether any rule matches at least one element,
	// visible or not.
	AnyPresent(ctx context.Context, rules []string) (bool, error)
	// FirstVisible returns the first rule whose first matching element
	// is visible, or "" when none qualifies.
	FirstVisible(ctx context.Context, rules []string) (string, error)
	// ControlKind classifies the control behind selector as "field"
	// (textarea/input), "editable" (contenteditable), or "".
	ControlKind(ctx context.Context, selector string) (string, error)

	// SetText replaces a plain field's content with text in one step.
	SetText(ctx context.Context, selector, text string) error
	// TypeText clears a rich editable region and delivers text as
	// trusted keystrokes.
	TypeText(ctx context.Context, selector, text string) error
	// Submit presses the platform's submit key on the focused control.
	Submit(ctx context.Context) error

	// RuleTexts returns the raw text of every element matching rule,
	// in document order. A rule the engine rejects yields no elements.
	RuleTexts(ctx context.Context, rule string) ([]string, error)
}

// cdpPage drives one browser tab over its own chromedp target context.
// The context is a child of the session's browser context, so releasing
// the session detaches every page with it.
type cdpPage struct {
	id        target.ID
	url       string
	title     string
	ctx       context.Context
	typeDelay time.Duration
}

// attachPage materializes a chromedp context for an existing target.
// The returned page shares the session's lifetime.
func attachPage(browserCtx context.Context, info *target.Info, typeDelay time.Duration) (*cdpPage, error) {
	tabCtx, _ := chromedp.NewContext(browserCtx, chromedp.WithTargetID(info.TargetID))
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, err
	}
	return &cdpPage{
		id:        info.TargetID,
		url:       info.URL,
		title:     info.Title,
		ctx:       tabCtx,
		typeDelay: typeDelay,
	}, nil
}

func (p *cdpPage) TargetID() string { return string(p.id) }
func (p *cdpPage) URL() string      { return p.url }
func (p *cdpPage) Title() string    { return p.title }

// run executes actions on the page's chromedp context, bounded by the
// caller context's deadline when one is set. chromedp requires its own
// context chain, so the caller context cannot be used directly.
func (p *cdpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := p.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
