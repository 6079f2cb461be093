package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stippler/pkg/observability"
)

// LogHooks reports pipeline events as debug log lines. The serve command
// registers it so a verbose server shows per-run cache and pass activity.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ observability.RelaxHooks  = LogHooks{}
	_ observability.CacheHooks  = LogHooks{}
	_ observability.RenderHooks = LogHooks{}
)

// Register installs h for every hook kind.
func (h LogHooks) Register() {
	observability.SetRelaxHooks(h)
	observability.SetCacheHooks(h)
	observability.SetRenderHooks(h)
}

func (h LogHooks) OnRunStart(_ context.Context, points, passes int) {
	h.Logger.Debug("relax start", "points", points, "passes", passes)
}

func (h LogHooks) OnPassComplete(_ context.Context, pass int, maxShift float64, d time.Duration) {
	h.Logger.Debug("pass", "pass", pass, "max_shift", maxShift, "duration", d)
}

func (h LogHooks) OnRunComplete(_ context.Context, passes int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("relax failed", "passes", passes, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("relax done", "passes", passes, "duration", d)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render start", "formats", formats)
}

func (h LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.Logger.Debug("render done", "formats", formats, "duration", d, "err", err)
}
