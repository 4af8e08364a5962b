package shortener

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Driver owns one headless browser shared by all shortening sessions; each
// Shorten call gets its own page.
type Driver struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	navTimeout time.Duration
}

func NewDriver(navTimeout time.Duration) (*Driver, error) {
	if navTimeout <= 0 {
		navTimeout = 15 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Driver{pw: pw, browser: browser, navTimeout: navTimeout}, nil
}

func (d *Driver) Close() {
	if d.browser != nil {
		_ = d.browser.Close()
	}
	if d.pw != nil {
		_ = d.pw.Stop()
	}
}

func (d *Driver) openPage(ctx context.Context, url string) (page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	pg, err := d.browser.NewPage()
	if err != nil {
		return nil, nil, fmt.Errorf("new page: %w", err)
	}

	if _, err := pg.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(d.navTimeout.Milliseconds())),
	}); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("goto %s: %w", url, err)
	}

	return browserPage{pg: pg}, func() { _ = pg.Close() }, nil
}

// browserPage adapts a playwright page to the narrow page interface the
// strategies run against.
type browserPage struct {
	pg playwright.Page
}

func (b browserPage) Click(selector string, timeout time.Duration) error {
	return b.pg.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (b browserPage) Attribute(selector, name string, timeout time.Duration) (string, error) {
	return b.pg.Locator(selector).First().GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (b browserPage) InputValue(selector string, timeout time.Duration) (string, error) {
	return b.pg.Locator(selector).First().InputValue(playwright.LocatorInputValueOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (b browserPage) Text(selector string, timeout time.Duration) (string, error) {
	return b.pg.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// New builds a Shortener backed by the driver. A nil driver yields a
// Shortener whose attempts all fail with "shortener disabled", which keeps
// the /shorten contract intact when no browser is available.
func New(d *Driver, cache *SelectorCache, stepTimeout time.Duration) *Shortener {
	if stepTimeout <= 0 {
		stepTimeout = 2 * time.Second
	}

	s := &Shortener{cache: cache, stepTimeout: stepTimeout}
	if d != nil {
		s.newPage = d.openPage
	}
	return s
}
