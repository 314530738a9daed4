package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Each extraction sub-attempt is bounded so a hung page cannot block the
// capture indefinitely; a timeout surfaces as an extraction-level warning.
const extractionTimeout = 20 * time.Second

// CaptureSource abstracts the embedded browser surface the capture service
// pulls page content from. Each extraction call is independently fallible:
// the capture service turns individual failures into warnings and proceeds
// with whatever succeeded.
type CaptureSource interface {
	Ready() error
	CurrentURL(ctx context.Context) (string, error)
	CurrentTitle(ctx context.Context) (string, error)
	CapturePageImage(ctx context.Context) ([]byte, error)
	ExtractPageHTML(ctx context.Context) (string, error)
	ExtractPageText(ctx context.Context) (string, error)
}

// BrowserSession drives a headless Chrome instance through chromedp and is
// the production CaptureSource. One session is created at process start
// and injected into the services that need it.
type BrowserSession struct {
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	crashed     bool
}

// NewBrowserSession starts Chrome. chromePath overrides the executable
// (for headless-shell in containers); empty means the chromedp default.
func NewBrowserSession(chromePath string) (*BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so readiness is observable.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &BrowserSession{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Close tears the browser down.
func (b *BrowserSession) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
}

// Ready reports whether the session can serve a capture.
func (b *BrowserSession) Ready() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil || b.ctx == nil {
		return Fail(CodeNotReady, "Браузер недоступен.")
	}
	if b.crashed {
		return Fail(CodeNotReady, "Процесс браузера завершился.")
	}
	if b.ctx.Err() != nil {
		return Fail(CodeNotReady, "Браузер недоступен.")
	}
	return nil
}

// Navigate loads a http(s) URL in the session.
func (b *BrowserSession) Navigate(ctx context.Context, rawURL string) error {
	normalized, serr := normalizeBrowserURL(rawURL)
	if serr != nil {
		return serr
	}
	return b.run(ctx, chromedp.Navigate(normalized))
}

// CurrentURL returns the loaded page URL; INVALID_STATE when none.
func (b *BrowserSession) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	if strings.TrimSpace(loc) == "" || loc == "about:blank" {
		return "", Fail(CodeInvalidState, "URL страницы недоступен.")
	}
	return loc, nil
}

// CurrentTitle returns the page title; empty is not an error.
func (b *BrowserSession) CurrentTitle(ctx context.Context) (string, error) {
	var title string
	if err := b.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// CapturePageImage screenshots the viewport as PNG bytes.
func (b *BrowserSession) CapturePageImage(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ExtractPageHTML returns the document's outer HTML.
func (b *BrowserSession) ExtractPageHTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// ExtractPageText returns the rendered body text.
func (b *BrowserSession) ExtractPageText(ctx context.Context) (string, error) {
	var text string
	script := "document.body ? document.body.innerText : ''"
	if err := b.run(ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (b *BrowserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	b.mu.Lock()
	browserCtx := b.ctx
	b.mu.Unlock()
	if browserCtx == nil {
		return Fail(CodeNotReady, "Браузер недоступен.")
	}

	runCtx, cancel := context.WithTimeout(browserCtx, extractionTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		if err != nil && browserCtx.Err() != nil {
			b.mu.Lock()
			b.crashed = true
			b.mu.Unlock()
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func normalizeBrowserURL(value string) (string, *ServiceError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) > MaxURLLength {
		return "", Fail(CodeInvalidArgument, "url обязательно.")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", Fail(CodeInvalidArgument, "url должен быть http(s)-адресом.")
	}
	return parsed.String(), nil
}
