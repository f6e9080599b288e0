package bridge

import (
	"context"

	"github.com/xapet-0/openclaw/internal/api/types"
)

// API abstracts the bridge for handler testing.
type API interface {
	// Chat runs one conversation turn, returning its event stream.
	Chat(ctx context.Context, req types.ChatRequest) <-chan types.StreamEvent
	// Guard serializes turns; callers TryLock before streaming.
	Guard() *Guard
	// Healthy verifies the browser endpoint is reachable.
	Healthy(ctx context.Context) error
	// PageList enumerates open tabs with detected platforms.
	PageList(ctx context.Context) ([]PageInfo, error)
	// PlatformList reports the loaded registry with resolved rules.
	PlatformList() []PlatformInfo
}

var _ API = (*Bridge)(nil)
