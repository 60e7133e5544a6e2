package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/shopscrape/internal/config"
	"github.com/IshaanNene/shopscrape/internal/types"
)

// Scroll steps run after navigation: first a third of the page, then the bottom.
const (
	scrollThirdJS  = `() => window.scrollTo(0, document.body.scrollHeight / 3)`
	scrollBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
)

// process is the part of a launcher needed to tear the browser down.
type process interface {
	Kill()
	Cleanup()
}

// release kills the browser process and removes its user-data-dir.
func release(p process) {
	p.Kill()
	p.Cleanup()
}

// RodSession implements Session with a Chromium instance driven by Rod.
type RodSession struct {
	process  process
	browser  *rod.Browser
	page     *rod.Page
	cfg      config.BrowserConfig
	pacing   config.PacingConfig
	pacer    *Pacer
	logger   *slog.Logger

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// RodProvider returns a Provider that launches a fresh browser per call.
func RodProvider(cfg *config.Config, pacer *Pacer, logger *slog.Logger) Provider {
	return func(ctx context.Context) (Session, error) {
		return NewRodSession(ctx, cfg.Browser, cfg.Pacing, pacer, logger)
	}
}

// NewRodSession launches Chromium and opens a single tab.
func NewRodSession(ctx context.Context, cfg config.BrowserConfig, pacing config.PacingConfig, pacer *Pacer, logger *slog.Logger) (*RodSession, error) {
	s := &RodSession{
		cfg:    cfg,
		pacing: pacing,
		pacer:  pacer,
		logger: logger.With("component", "rod_session"),
	}

	l := s.newLauncher()
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		release(l)
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	s.process = l

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		release(l)
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = browser

	if err := s.openPage(); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.logger.Info("browser session ready",
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
		"window", fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight),
	)
	return s, nil
}

// newLauncher builds the Chromium command line.
func (s *RodSession) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", strconv.Itoa(s.cfg.WindowWidth)+","+strconv.Itoa(s.cfg.WindowHeight))

	if s.cfg.Headless {
		l = l.Set("disable-gpu")
	}
	if s.cfg.UserAgent != "" {
		l = l.Set("user-agent", s.cfg.UserAgent)
	}
	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}
	return l
}

func (s *RodSession) openPage() error {
	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	if s.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.WindowWidth,
		Height:            s.cfg.WindowHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		s.logger.Warn("failed to set viewport", "error", err)
	}

	s.page = page
	return nil
}

// Render implements Session.
func (s *RodSession) Render(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", types.ErrSessionClosed
	}

	start := time.Now()
	page := s.page.Context(ctx).Timeout(s.cfg.RenderTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		s.logger.Warn("page load wait failed, continuing", "url", url, "error", err)
	}

	if err := s.pacer.Sleep(ctx, s.pacing.NavDelayMin, s.pacing.NavDelayMax); err != nil {
		return "", err
	}
	for _, js := range []string{scrollThirdJS, scrollBottomJS} {
		if _, err := page.Eval(js); err != nil {
			return "", fmt.Errorf("scroll: %w", err)
		}
		if err := s.pacer.Sleep(ctx, s.pacing.ScrollDelayMin, s.pacing.ScrollDelayMax); err != nil {
			return "", err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}

	s.logger.Debug("page rendered",
		"url", url,
		"size", len(html),
		"duration", time.Since(start),
	)
	return html, nil
}

// Close implements Session. Only the first call does any work.
func (s *RodSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.process != nil {
			release(s.process)
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info("browser session closed")
	})
	return s.closeErr
}
