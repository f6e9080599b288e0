package bridge

import (
	"context"
	"time"

	"github.com/xapet-0/openclaw/internal/api/types"
	"github.com/xapet-0/openclaw/internal/config"
)

// fakePage is a scripted Page. Behavior fields left nil fall back to
// inert defaults; mutating calls are recorded for assertions.
type fakePage struct {
	id       string
	url      string
	title    string
	focused  bool
	focusErr error

	matchCount   func(rules []string) (int, error)
	anyVisible   func(rules []string) (bool, error)
	anyPresent   func(rules []string) (bool, error)
	firstVisible func(rules []string) (string, error)
	controlKind  func(sel string) (string, error)
	ruleTexts    func(rule string) ([]string, error)

	setCalls  []string
	typeCalls []string
	submits   int
	setErr    error
	typeErr   error
	submitErr error
}

func (f *fakePage) TargetID() string { return f.id }
func (f *fakePage) URL() string      { return f.url }
func (f *fakePage) Title() string    { return f.title }

func (f *fakePage) HasFocus(ctx context.Context) (bool, error) {
	return f.focused, f.focusErr
}

func (f *fakePage) MatchCount(ctx context.Context, rules []string) (int, error) {
	if f.matchCount != nil {
		return f.matchCount(rules)
	}
	return 0, nil
}

func (f *fakePage) AnyVisible(ctx context.Context, rules []string) (bool, error) {
	if f.anyVisible != nil {
		return f.anyVisible(rules)
	}
	return false, nil
}

func (f *fakePage) AnyPresent(ctx context.Context, rules []string) (bool, error) {
	if f.anyPresent != nil {
		return f.anyPresent(rules)
	}
	return false, nil
}

func (f *fakePage) FirstVisible(ctx context.Context, rules []string) (string, error) {
	if f.firstVisible != nil {
		return f.firstVisible(rules)
	}
	return "", nil
}

func (f *fakePage) ControlKind(ctx context.Context, selector string) (string, error) {
	if f.controlKind != nil {
		return f.controlKind(selector)
	}
	return "", nil
}

func (f *fakePage) SetText(ctx context.Context, selector, text string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, text)
	return nil
}

func (f *fakePage) TypeText(ctx context.Context, selector, text string) error {
	if f.typeErr != nil {
		return f.typeErr
	}
	f.typeCalls = append(f.typeCalls, text)
	return nil
}

func (f *fakePage) Submit(ctx context.Context) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submits++
	return nil
}

func (f *fakePage) RuleTexts(ctx context.Context, rule string) ([]string, error) {
	if f.ruleTexts != nil {
		return f.ruleTexts(rule)
	}
	return nil, nil
}

func hasRule(rules []string, needle string) bool {
	for _, r := range rules {
		if r == needle {
			return true
		}
	}
	return false
}

type fakeSession struct {
	pages    []Page
	pagesErr error
	released int
}

func (s *fakeSession) Pages(ctx context.Context) ([]Page, error) {
	if s.pagesErr != nil {
		return nil, s.pagesErr
	}
	return s.pages, nil
}

func (s *fakeSession) Release() { s.released++ }

// newTestBridge wires a bridge to a scripted session with fast polls
// and short timeouts. The returned counter tracks connector dials.
func newTestBridge(sess session, connectErr error) (*Bridge, *int) {
	cfg := &config.RuntimeConfig{
		CdpURL:          "http://127.0.0.1:9222",
		URLPattern:      config.DefaultURLPattern,
		ResponseTimeout: 300 * time.Millisecond,
		ActionTimeout:   2 * time.Second,
	}
	reg, err := NewRegistry("")
	if err != nil {
		panic(err)
	}
	b := New(cfg, reg)
	b.pollInterval = 5 * time.Millisecond
	dials := new(int)
	b.connector = func(cdpURL string) (session, error) {
		*dials++
		if connectErr != nil {
			return nil, connectErr
		}
		return sess, nil
	}
	return b, dials
}

func drainEvents(ch <-chan types.StreamEvent) []types.StreamEvent {
	var evs []types.StreamEvent
	for ev := range ch {
		evs = append(evs, ev)
	}
	return evs
}

// chatGPTPage scripts an idle ChatGPT-looking tab holding one earlier
// reply. After a submission the block count rises and the given text
// becomes the newest reply.
func chatGPTPage(replyText string) *fakePage {
	pg := &fakePage{
		id:      "tab-1",
		url:     "https://chatgpt.com/c/abc123",
		title:   "ChatGPT",
		focused: true,
	}
	pg.anyPresent = func(rules []string) (bool, error) {
		return hasRule(rules, `#prompt-textarea`), nil
	}
	pg.firstVisible = func(rules []string) (string, error) {
		if hasRule(rules, `#prompt-textarea`) {
			return `#prompt-textarea`, nil
		}
		return "", nil
	}
	pg.controlKind = func(sel string) (string, error) {
		return controlField, nil
	}
	pg.matchCount = func(rules []string) (int, error) {
		return 1 + pg.submits, nil
	}
	pg.anyVisible = func(rules []string) (bool, error) {
		if hasRule(rules, `[data-testid="stop-button"]`) {
			return false, nil
		}
		if hasRule(rules, `[data-testid="send-button"]`) {
			return true, nil
		}
		return false, nil
	}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == `div[data-message-author-role="assistant"] .markdown` {
			return []string{"first reply", replyText}, nil
		}
		return nil, nil
	}
	return pg
}

func userMessage(text string) []types.Message {
	return []types.Message{{Role: "user", Content: text}}
}
