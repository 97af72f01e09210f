package studio

import "time"

// Driver abstracts one browser page against the studio web app. The login
// flow and the generation workflow are written against this interface so
// tests can substitute a deterministic double for every failure mode.
//
// Every blocking method is bounded by its timeout parameter and returns an
// error on expiry; none may hang indefinitely. Close releases the underlying
// page/browser resources and must be called on every exit path.
type Driver interface {
	// Goto navigates the page to url and waits for the load to settle.
	Goto(url string, timeout time.Duration) error

	// WaitForURL blocks until the page URL matches the glob pattern.
	WaitForURL(pattern string, timeout time.Duration) error

	// WaitVisible blocks until the element matching selector is visible.
	WaitVisible(selector string, timeout time.Duration) error

	// Click activates the element matching selector.
	Click(selector string, timeout time.Duration) error

	// Fill writes text into the element matching selector, replacing any
	// existing content.
	Fill(selector string, text string, timeout time.Duration) error

	// Download clicks the element matching selector, waits for the resulting
	// file transfer to complete, and saves it at dest.
	Download(selector, dest string, timeout time.Duration) error

	// SessionState returns the serialized authentication state (cookies and
	// storage) of the browser context.
	SessionState() ([]byte, error)

	// Close releases the page, context, and browser.
	Close() error
}
