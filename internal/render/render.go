// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a web page URL into HTML. Static fetches the page
// over HTTP; Chrome loads it in a headless browser so client-side rendered
// documentation produces its final DOM.
package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/web2llm/internal/fetch"
	"github.com/pdiddy/web2llm/pkg/types"
)

// Renderer returns the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Getter is the HTTP dependency of Static.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Static renders pages by fetching them without running scripts.
type Static struct {
	Getter Getter
}

// Render fetches url and returns the response body.
func (s *Static) Render(ctx context.Context, url string) (string, error) {
	resp, err := s.Getter.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// IdleWait caps how long Chrome waits for the networkIdle lifecycle event.
// Pages that poll forever never go idle; they are read after this delay.
var IdleWait = 10 * time.Second

// browserBins are the executables chromedp can drive, in lookup order.
var browserBins = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

// Chrome renders pages in headless Chrome.
type Chrome struct {
	cfg       types.RenderConfig
	userAgent string
}

// NewChrome returns a Chrome renderer. The browser is started per render.
func NewChrome(cfg types.RenderConfig, userAgent string) *Chrome {
	return &Chrome{cfg: cfg, userAgent: userAgent}
}

// browserAvailable reports whether a Chrome or Chromium binary is on PATH.
func browserAvailable() bool {
	for _, bin := range browserBins {
		if _, err := exec.LookPath(bin); err == nil {
			return true
		}
	}
	return false
}

// Render loads url, waits for the body (and optionally network idle plus a
// settle delay) and returns the serialized DOM.
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	if c.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.userAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	idle := make(chan struct{}, 1)
	if c.cfg.WaitNetworkIdle {
		var navigating atomic.Bool
		chromedp.ListenTarget(tabCtx, func(ev interface{}) {
			e, ok := ev.(*page.EventLifecycleEvent)
			if !ok {
				return
			}
			switch e.Name {
			case "init":
				navigating.Store(true)
			case "networkIdle":
				if navigating.Load() {
					select {
					case idle <- struct{}{}:
					default:
					}
				}
			}
		})
	}

	tasks := []chromedp.Action{}
	if c.cfg.WaitNetworkIdle {
		tasks = append(tasks, page.SetLifecycleEventsEnabled(true))
	}
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if c.cfg.WaitNetworkIdle {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			return waitIdle(ctx, idle, url)
		}))
	}
	if c.cfg.SettleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(c.cfg.SettleDelay))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	log.Debug().Str("url", url).Bool("network_idle", c.cfg.WaitNetworkIdle).Msg("rendering page in chrome")
	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &types.TimeoutError{Op: "render " + url, Err: err}
		}
		return "", &types.NetworkError{URL: url, Err: fmt.Errorf("chrome: %w", err)}
	}
	return html, nil
}

func waitIdle(ctx context.Context, idle <-chan struct{}, url string) error {
	timer := time.NewTimer(IdleWait)
	defer timer.Stop()
	select {
	case <-idle:
		return nil
	case <-timer.C:
		log.Warn().Str("url", url).Dur("waited", IdleWait).Msg("network never went idle, reading DOM anyway")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// New selects the renderer for cfg.Mode.
func New(cfg types.RenderConfig, g Getter, userAgent string) (Renderer, error) {
	switch cfg.Mode {
	case "", types.RenderStatic:
		return &Static{Getter: g}, nil
	case types.RenderChrome:
		if !browserAvailable() {
			log.Warn().Strs("looked_for", browserBins).Msg("no Chrome or Chromium on PATH, relying on chromedp's default locations")
		}
		return NewChrome(cfg, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown render mode %q", cfg.Mode)
	}
}
