package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// defaultPollInterval paces the completion detector's DOM probes.
const defaultPollInterval = 250 * time.Millisecond

// awaitReplyStart polls until more reply blocks exist than before
// submission. Probe errors are treated as transient: the page mutates
// heavily while a reply streams in, and only the deadline is fatal.
func awaitReplyStart(ctx context.Context, pg Page, rules []string, baseline int, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		n, err := pg.MatchCount(ctx, rules)
		if err != nil {
			slog.Debug("reply count probe failed", "error", err)
		} else if n > baseline {
			return nil
		}
		<-ticker.C
	}
	return fmt.Errorf("%w after %s", ErrResponseStartTimeout, timeout)
}

// awaitReplyFinish polls until the platform looks idle again.
func awaitReplyFinish(ctx context.Context, pg Page, strategy RuleSet, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		done, err := replyFinished(ctx, pg, strategy)
		if err != nil {
			slog.Debug("completion probe failed", "error", err)
		} else if done {
			return nil
		}
		<-ticker.C
	}
	return fmt.Errorf("%w after %s", ErrCompletionTimeout, timeout)
}

// replyFinished is one idle check: the busy indicator must be gone,
// and the send control must be back, unless the platform has no send
// control at all, in which case the cleared busy indicator is the only
// signal available. A send control that exists but stays hidden means
// the platform is still holding the composer, so still busy.
func replyFinished(ctx context.Context, pg Page, strategy RuleSet) (bool, error) {
	busy, err := pg.AnyVisible(ctx, strategy.StopControl)
	if err != nil {
		return false, err
	}
	if busy {
		return false, nil
	}
	sendVisible, err := pg.AnyVisible(ctx, strategy.SendControl)
	if err != nil {
		return false, err
	}
	if sendVisible {
		return true, nil
	}
	present, err := pg.AnyPresent(ctx, strategy.SendControl)
	if err != nil {
		return false, err
	}
	return !present, nil
}
