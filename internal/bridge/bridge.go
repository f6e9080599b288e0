package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xapet-0/openclaw/internal/config"
)

// Bridge turns chat pages already open in a browser into a streaming
// API. Every turn dials its own control channel and releases it when
// the turn ends, so the bridge holds no browser state between calls.
type Bridge struct {
	cfg          *config.RuntimeConfig
	registry     *Registry
	guard        *Guard
	pattern      *regexp.Regexp
	pollInterval time.Duration
	connector    connectorFunc
}

// connectorFunc opens a control channel to the browser behind cdpURL.
// Swapped out in tests.
type connectorFunc func(cdpURL string) (session, error)

// session is one scoped control channel. Release is idempotent and
// detaches every page attached through the session.
type session interface {
	Pages(ctx context.Context) ([]Page, error)
	Release()
}

func New(cfg *config.RuntimeConfig, registry *Registry) *Bridge {
	b := &Bridge{
		cfg:          cfg,
		registry:     registry,
		guard:        NewGuard(2*cfg.ResponseTimeout + time.Minute),
		pattern:      compilePattern(cfg.URLPattern),
		pollInterval: defaultPollInterval,
	}
	b.connector = func(cdpURL string) (session, error) {
		return dialBrowser(cdpURL, cfg.TypeDelay)
	}
	return b
}

// Guard exposes the turn serializer so callers can refuse concurrent
// turns before opening an event stream.
func (b *Bridge) Guard() *Guard { return b.guard }

// Registry exposes the platform registry.
func (b *Bridge) Registry() *Registry { return b.registry }

func compilePattern(expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		slog.Warn("invalid url pattern, ignoring", "pattern", expr, "error", err)
		return nil
	}
	return re
}

// cdpSession is the production session: a remote allocator plus a
// browser context, both torn down exactly once on release. Contexts
// descend from Background because a caller cancellation mid-turn must
// not sever the channel while keystrokes are in flight.
type cdpSession struct {
	browserCtx    context.Context
	typeDelay     time.Duration
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	once          sync.Once
}

func dialBrowser(cdpURL string, typeDelay time.Duration) (session, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrChannelConnect, err)
	}
	return &cdpSession{
		browserCtx:    browserCtx,
		typeDelay:     typeDelay,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (s *cdpSession) Pages(ctx context.Context) ([]Page, error) {
	return listPages(s.browserCtx, s.typeDelay)
}

func (s *cdpSession) Release() {
	s.once.Do(func() {
		s.cancelBrowser()
		s.cancelAlloc()
	})
}

// Healthy dials the control channel and releases it, verifying the
// browser endpoint is reachable.
func (b *Bridge) Healthy(ctx context.Context) error {
	sess, err := b.connector(b.cfg.CdpURL)
	if err != nil {
		return err
	}
	sess.Release()
	return nil
}

// PageInfo describes one open tab for the tabs listing.
type PageInfo struct {
	TargetID string `json:"targetId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Platform string `json:"platform"`
	Detected string `json:"detected"`
}

// PageList enumerates open tabs with the platform each one detects as.
func (b *Bridge) PageList(ctx context.Context) ([]PageInfo, error) {
	sess, err := b.connector(b.cfg.CdpURL)
	if err != nil {
		return nil, err
	}
	defer sess.Release()

	opCtx, cancel := context.WithTimeout(ctx, b.cfg.ActionTimeout)
	defer cancel()

	pages, err := sess.Pages(opCtx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	infos := make([]PageInfo, 0, len(pages))
	for _, pg := range pages {
		profile, method := detectPlatform(opCtx, pg, b.registry, b.pattern)
		infos = append(infos, PageInfo{
			TargetID: pg.TargetID(),
			URL:      pg.URL(),
			Title:    pg.Title(),
			Platform: string(profile.ID),
			Detected: method,
		})
	}
	return infos, nil
}

// PlatformInfo describes one registered profile with its resolved
// locator strategy, for the platforms listing.
type PlatformInfo struct {
	ID       string   `json:"id"`
	URLHints []string `json:"urlHints,omitempty"`
	Rules    RuleSet  `json:"rules"`
}

// PlatformList reports every registered profile plus the unknown
// fallback, each with the rule set a turn against it would use.
func (b *Bridge) PlatformList() []PlatformInfo {
	profiles := b.registry.All()
	infos := make([]PlatformInfo, 0, len(profiles)+1)
	for i := range profiles {
		infos = append(infos, PlatformInfo{
			ID:       string(profiles[i].ID),
			URLHints: profiles[i].URLHints,
			Rules:    Resolve(&profiles[i]),
		})
	}
	unknown := b.registry.Unknown()
	infos = append(infos, PlatformInfo{
		ID:    string(unknown.ID),
		Rules: Resolve(unknown),
	})
	return infos
}
