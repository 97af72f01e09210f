package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures the browser session behind a PlaywrightDriver.
type LaunchOptions struct {
	// Headless runs the browser without a window. The login flow and the
	// render wait both expect a human in front of the browser, so headful
	// is the default in practice.
	Headless bool
	// SlowMoMillis delays each operation to keep the automation observable.
	SlowMoMillis float64
	// SessionFile, when non-empty, restores the saved storage state into
	// the new browser context.
	SessionFile string
}

// PlaywrightDriver implements Driver on a Chromium page via Playwright.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

var _ Driver = (*PlaywrightDriver)(nil)

// NewPlaywrightDriver launches Chromium, opens one browser context (with the
// saved session restored when provided), and opens one page. The returned
// driver owns the whole browser stack; Close tears it all down.
func NewPlaywrightDriver(opts LaunchOptions) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(opts.SlowMoMillis),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.SessionFile != "" {
		contextOpts.StorageStatePath = playwright.String(opts.SessionFile)
	}
	browserCtx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	return &PlaywrightDriver{pw: pw, browser: browser, context: browserCtx, page: page}, nil
}

func (d *PlaywrightDriver) Goto(url string, timeout time.Duration) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{Timeout: millis(timeout)})
	return err
}

func (d *PlaywrightDriver) WaitForURL(pattern string, timeout time.Duration) error {
	return d.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{Timeout: millis(timeout)})
}

func (d *PlaywrightDriver) WaitVisible(selector string, timeout time.Duration) error {
	return d.page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
}

func (d *PlaywrightDriver) Click(selector string, timeout time.Duration) error {
	return d.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: millis(timeout)})
}

func (d *PlaywrightDriver) Fill(selector, text string, timeout time.Duration) error {
	return d.page.Locator(selector).Fill(text, playwright.LocatorFillOptions{Timeout: millis(timeout)})
}

func (d *PlaywrightDriver) Download(selector, dest string, timeout time.Duration) error {
	download, err := d.page.ExpectDownload(func() error {
		return d.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: millis(timeout)})
	}, playwright.PageExpectDownloadOptions{Timeout: millis(timeout)})
	if err != nil {
		return fmt.Errorf("awaiting download: %w", err)
	}
	if err := download.SaveAs(dest); err != nil {
		return fmt.Errorf("saving download: %w", err)
	}
	return nil
}

func (d *PlaywrightDriver) SessionState() ([]byte, error) {
	state, err := d.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("reading storage state: %w", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("serializing storage state: %w", err)
	}
	return data, nil
}

// Close releases the page, context, browser, and the playwright runtime.
// Errors are collected so a failing page close doesn't leak the browser.
func (d *PlaywrightDriver) Close() error {
	var errs []error
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing page: %w", err))
		}
	}
	if d.context != nil {
		if err := d.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing context: %w", err))
		}
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
