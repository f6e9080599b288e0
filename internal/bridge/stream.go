package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/xapet-0/openclaw/internal/api/types"
)

// apiName tags synthesized assistant messages.
const apiName = "openclaw"

// Chat runs one conversation turn and returns its event stream. The
// channel delivers exactly one terminal event, always last, then
// closes; failures become the terminal error event instead of a
// returned error. Callers serialize turns through Guard, the stream
// itself does not.
func (b *Bridge) Chat(ctx context.Context, req types.ChatRequest) <-chan types.StreamEvent {
	// Buffer covers the longest possible sequence so the turn goroutine
	// finishes and releases the browser even if the consumer walks away.
	events := make(chan types.StreamEvent, 8)
	go func() {
		defer close(events)
		b.runTurn(ctx, req, events)
	}()
	return events
}

// turnOptions are the per-call knobs, defaulted from config.
type turnOptions struct {
	cdpURL  string
	pattern *regexp.Regexp
	timeout time.Duration
}

func (b *Bridge) turnOptions(req types.ChatRequest) turnOptions {
	opts := turnOptions{
		cdpURL:  b.cfg.CdpURL,
		pattern: b.pattern,
		timeout: b.cfg.ResponseTimeout,
	}
	if req.CdpURL != "" {
		opts.cdpURL = req.CdpURL
	}
	if req.URLPattern != "" {
		if re := compilePattern(req.URLPattern); re != nil {
			opts.pattern = re
		}
	}
	if req.TimeoutSec > 0 {
		opts.timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	return opts
}

func (b *Bridge) runTurn(ctx context.Context, req types.ChatRequest, events chan<- types.StreamEvent) {
	provider := string(PlatformUnknown)
	model := ""
	fail := func(err error) {
		slog.Warn("chat turn failed", "platform", provider, "error", err)
		events <- errorEvent(provider, model, err)
	}

	prompt := types.LatestUserText(req.Messages)
	if prompt == "" {
		fail(ErrEmptyPrompt)
		return
	}

	// Cancellation is honored here and nowhere later: once keystrokes
	// start landing in the page, aborting midway would leave a
	// half-typed prompt in the composer.
	if err := ctx.Err(); err != nil {
		fail(fmt.Errorf("canceled before start: %w", err))
		return
	}

	var want *Profile
	if req.Platform != "" {
		want = b.registry.Lookup(Platform(req.Platform))
		if want == nil {
			fail(fmt.Errorf("%w: unknown platform %q", ErrNoSelectablePage, req.Platform))
			return
		}
	}

	opts := b.turnOptions(req)

	sess, err := b.connector(opts.cdpURL)
	if err != nil {
		fail(err)
		return
	}
	defer sess.Release()

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), b.cfg.ActionTimeout)
	defer cancelSetup()

	pages, err := sess.Pages(setupCtx)
	if err != nil {
		fail(fmt.Errorf("enumerate pages: %w", err))
		return
	}
	pg, err := selectPage(setupCtx, pages, opts.pattern, want)
	if err != nil {
		fail(err)
		return
	}

	profile, method := detectPlatform(setupCtx, pg, b.registry, opts.pattern)
	provider = string(profile.ID)
	strategy := Resolve(profile)
	slog.Info("turn started",
		"platform", provider,
		"detected", method,
		"url", pg.URL(),
		"promptChars", len(prompt))

	// The baseline is measured before submission; a reply has started
	// once the block count exceeds it.
	baseline, err := pg.MatchCount(setupCtx, strategy.ResponseBlock)
	if err != nil {
		fail(fmt.Errorf("baseline reply count: %w", err))
		return
	}

	// Keystroke delivery scales with prompt length, so the injection
	// budget does too.
	injectBudget := b.cfg.ActionTimeout + time.Duration(len(prompt))*b.cfg.TypeDelay
	injectCtx, cancelInject := context.WithTimeout(context.Background(), injectBudget)
	defer cancelInject()
	if err := injectPrompt(injectCtx, pg, strategy, prompt); err != nil {
		fail(err)
		return
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), opts.timeout+b.cfg.ActionTimeout)
	defer cancelStart()
	if err := awaitReplyStart(startCtx, pg, strategy.ResponseBlock, baseline, opts.timeout, b.pollInterval); err != nil {
		fail(err)
		return
	}

	finishCtx, cancelFinish := context.WithTimeout(context.Background(), opts.timeout+b.cfg.ActionTimeout)
	defer cancelFinish()
	if err := awaitReplyFinish(finishCtx, pg, strategy, opts.timeout, b.pollInterval); err != nil {
		fail(err)
		return
	}

	extractCtx, cancelExtract := context.WithTimeout(context.Background(), b.cfg.ActionTimeout)
	defer cancelExtract()
	reply, err := extractReply(extractCtx, pg, strategy)
	if err != nil {
		fail(err)
		return
	}
	model = reply.Model

	slog.Info("turn completed", "platform", provider, "model", model, "replyChars", len(reply.Text))
	for _, ev := range successEvents(provider, model, reply.Text) {
		events <- ev
	}
}

// successEvents fabricates the standard streaming sequence from one
// scraped reply. The page yields no incremental chunks, so the whole
// text travels in a single delta.
func successEvents(provider, model, text string) []types.StreamEvent {
	msg := &types.AssistantMessage{
		Role:       "assistant",
		Content:    []types.ContentPart{{Type: "text", Text: text}},
		API:        apiName,
		Provider:   provider,
		Model:      model,
		StopReason: types.StopReasonStop,
		Timestamp:  time.Now().UTC(),
	}
	return []types.StreamEvent{
		{Type: types.EventStart},
		{Type: types.EventContentStart},
		{Type: types.EventContentDelta, Delta: text},
		{Type: types.EventContentEnd, Content: text},
		{Type: types.EventDone, Message: msg},
	}
}

func errorEvent(provider, model string, err error) types.StreamEvent {
	return types.StreamEvent{
		Type:  types.EventError,
		Error: diagnose(err),
		Message: &types.AssistantMessage{
			Role:       "assistant",
			API:        apiName,
			Provider:   provider,
			Model:      model,
			StopReason: types.StopReasonError,
			Timestamp:  time.Now().UTC(),
		},
	}
}
