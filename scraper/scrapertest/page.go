// Package scrapertest provides an in-memory scraper.Page serving fixture HTML.
package scrapertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fake browser tab. Navigate switches to one of Pages; WaitVisible
// succeeds only when the selector matches the current document and otherwise
// reports a deadline error, as a real page timeout would.
type Page struct {
	Pages map[string]string

	// Errs forces an error for "navigate <url>", "wait <selector>",
	// "fill <selector>" or "click <selector>".
	Errs map[string]error

	// Redirects maps a clicked selector to the URL the tab lands on.
	Redirects map[string]string

	mu      sync.Mutex
	current string
	calls   []string
	filled  map[string]string
}

// NewPage creates a Page serving the given url->html map.
func NewPage(pages map[string]string) *Page {
	return &Page{Pages: pages, Errs: map[string]error{}, Redirects: map[string]string{}}
}

func (p *Page) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return p.Errs[call]
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.record("navigate " + url); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.Pages[url]; !ok {
		return fmt.Errorf("navigate %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	p.current = url
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	if err := p.record("wait " + selector); err != nil {
		return err
	}
	html, err := p.HTML(ctx)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("wait visible %q: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return "", fmt.Errorf("no page loaded")
	}
	return p.Pages[p.current], nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	if err := p.record("fill " + selector); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = value
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.record("click " + selector); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if to, ok := p.Redirects[selector]; ok {
		p.current = to
	}
	return nil
}

func (p *Page) Pause(ctx context.Context, d time.Duration) error {
	p.record("pause " + d.String())
	return ctx.Err()
}

// Calls returns every call made so far, in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Filled returns the value typed into selector.
func (p *Page) Filled(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filled[selector]
}
