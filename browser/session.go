// Package browser owns the headless Chrome lifecycle and exposes a tab as a
// scraper.Page.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"offer-harvester/models"
	"offer-harvester/scraper"
	"offer-harvester/utils"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultTimeout = 15 * time.Second
)

// LaunchConfig describes one launch attempt.
type LaunchConfig struct {
	Headless bool
	ExecPath string
	// Reduced drops everything but the flags a container needs to start.
	Reduced bool
}

// Launcher starts a browser and returns the context of its first tab.
type Launcher func(ctx context.Context, cfg LaunchConfig) (context.Context, context.CancelFunc, error)

// Options configures a Manager.
type Options struct {
	ChromeBin   string
	PageTimeout time.Duration
	MaxRetries  int
	Logger      *utils.Logger
	Launch      Launcher
}

// Manager hands out browser sessions.
type Manager struct {
	chromeBin string
	timeout   time.Duration
	retries   int
	logger    *utils.Logger
	launch    Launcher
}

// NewManager creates a Manager. A nil Launch starts a real Chrome via chromedp.
func NewManager(opts Options) *Manager {
	m := &Manager{
		chromeBin: opts.ChromeBin,
		timeout:   opts.PageTimeout,
		retries:   opts.MaxRetries,
		logger:    opts.Logger,
		launch:    opts.Launch,
	}
	if m.timeout <= 0 {
		m.timeout = defaultTimeout
	}
	if m.logger == nil {
		m.logger = utils.Discard()
	}
	if m.launch == nil {
		m.launch = chromeLauncher
	}
	return m
}

// Acquire launches a browser. If the full launch fails it retries once with
// the reduced flag set and no explicit binary; if that fails too the result
// is a *models.SessionError.
func (m *Manager) Acquire(ctx context.Context, headless bool) (*Session, error) {
	bin := m.chromeBin
	if bin == "" {
		bin = findChromeBinary()
	}
	m.logger.Info("[browser] Using browser binary: %s", displayBin(bin))

	tab, cancel, err := m.launch(ctx, LaunchConfig{Headless: headless, ExecPath: bin})
	if err == nil {
		return m.newSession(tab, cancel), nil
	}
	m.logger.Warn("[browser] Launch failed, retrying with reduced flags: %v", err)

	tab, cancel, fallbackErr := m.launch(ctx, LaunchConfig{Headless: headless, Reduced: true})
	if fallbackErr != nil {
		return nil, &models.SessionError{
			Err: fmt.Errorf("launch failed (%v), reduced launch failed: %w", err, fallbackErr),
		}
	}
	return m.newSession(tab, cancel), nil
}

// Release closes the session. It is safe to call more than once and on nil.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	s.close()
	m.logger.Debug("[browser] Session released")
}

func (m *Manager) newSession(tab context.Context, cancel context.CancelFunc) *Session {
	return &Session{
		ctx:     tab,
		cancel:  cancel,
		timeout: m.timeout,
		retry: &utils.RetryConfig{
			MaxAttempts: m.retries,
			BaseDelay:   time.Second,
			Logger:      m.logger,
		},
	}
}

// AllocatorOptions translates a LaunchConfig into chromedp allocator flags.
func AllocatorOptions(cfg LaunchConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Reduced {
		return opts
	}

	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

func chromeLauncher(ctx context.Context, cfg LaunchConfig) (context.Context, context.CancelFunc, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelTab()
		cancelAlloc()
	}
	// Running no actions starts the browser and opens the first tab.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, err
	}
	return tabCtx, cancel, nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func displayBin(bin string) string {
	if bin == "" {
		return "(chromedp default)"
	}
	return bin
}

// Session is one browser tab. Every call is bounded by the page timeout and
// by the caller's context.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	retry   *utils.RetryConfig
	once    sync.Once
}

func (s *Session) close() {
	s.once.Do(s.cancel)
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Navigate loads url, retrying transient failures.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.retry.Do(ctx, "navigate "+url, func() error {
		return s.run(ctx, chromedp.Navigate(url))
	})
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

// HTML returns the serialised DOM of the current document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Pause waits for d or until ctx is done.
func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Opener hands out one fresh session per Open call.
type Opener struct {
	m        *Manager
	headless bool
}

// Opener returns an Opener launching with the given headless setting.
func (m *Manager) Opener(headless bool) Opener {
	return Opener{m: m, headless: headless}
}

// Open acquires a session; the returned func releases it.
func (o Opener) Open(ctx context.Context) (scraper.Page, func(), error) {
	s, err := o.m.Acquire(ctx, o.headless)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { o.m.Release(s) }, nil
}
