// Package browser drives a headless Chrome instance to pull the serialized
// Nuxt payload out of a live page, for applications that render it only after
// client-side navigation. It is a thin boundary over chromedp: it navigates,
// runs optional interaction steps and evaluates a small capture script. The
// raw text it returns feeds the nuxt package, which has no dependency on how
// the text was obtained.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rahjooh/nuxt-scraper/extract"
)

// captureScript prefers the __NUXT_DATA__ element and falls back to
// window.__NUXT__, reporting which mechanism produced the text.
const captureScript = `(() => {
	const result = { raw: null, method: null };
	const el = document.getElementById('__NUXT_DATA__');
	if (el && el.textContent && el.textContent.trim()) {
		result.raw = el.textContent;
		result.method = 'element';
		return result;
	}
	if (typeof window !== 'undefined' && window.__NUXT__) {
		result.raw = JSON.stringify(window.__NUXT__);
		result.method = 'window';
	}
	return result;
})()`

// Capture is a payload pulled from a live page.
type Capture struct {
	Raw    string
	Method extract.Method
}

// APIResponse is one XHR/fetch response recorded during navigation, for
// pages that load their data over an API after the initial render.
type APIResponse struct {
	URL    string
	Status int64
	Body   []byte
}

// Extractor fetches Nuxt payloads from live pages. The zero value is not
// usable; construct one with NewExtractor.
type Extractor struct {
	headless  bool
	timeout   time.Duration
	userAgent string
	proxy     string
	viewportW int
	viewportH int
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHeadless toggles headless mode. Headless is the default; turning it
// off helps when debugging selectors.
func WithHeadless(headless bool) Option {
	return func(e *Extractor) {
		e.headless = headless
	}
}

// WithTimeout bounds one Extract call, navigation and steps included.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// WithUserAgent overrides the browser user agent string.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		e.userAgent = ua
	}
}

// WithProxy routes browser traffic through the given proxy server.
func WithProxy(server string) Option {
	return func(e *Extractor) {
		e.proxy = server
	}
}

// WithViewport sets the browser window size.
func WithViewport(width, height int) Option {
	return func(e *Extractor) {
		e.viewportW = width
		e.viewportH = height
	}
}

// WithLogger routes extraction diagnostics to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		headless:  true,
		timeout:   30 * time.Second,
		viewportW: 1280,
		viewportH: 720,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Extract navigates to url, runs the given steps in order and captures the
// payload. A failing step aborts with a *StepError naming it.
func (e *Extractor) Extract(ctx context.Context, url string, steps ...Step) (*Capture, error) {
	tabCtx, cancel := e.newTab(ctx)
	defer cancel()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if err := e.runSteps(tabCtx, steps); err != nil {
		return nil, err
	}

	return e.capture(tabCtx, url)
}

// ExtractWithAPICapture behaves like Extract but also records matching API
// responses seen while the page loads. A nil match records everything with
// "/api/" in the URL.
func (e *Extractor) ExtractWithAPICapture(ctx context.Context, url string, match func(url string) bool, steps ...Step) (*Capture, []APIResponse, error) {
	if match == nil {
		match = func(u string) bool { return strings.Contains(u, "/api/") }
	}

	tabCtx, cancel := e.newTab(ctx)
	defer cancel()

	var mu sync.Mutex
	recorded := map[network.RequestID]*APIResponse{}
	var order []network.RequestID

	chromedp.ListenTarget(tabCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || !match(resp.Response.URL) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if _, ok := recorded[resp.RequestID]; !ok {
			order = append(order, resp.RequestID)
		}
		recorded[resp.RequestID] = &APIResponse{
			URL:    resp.Response.URL,
			Status: resp.Response.Status,
		}
	})

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(url)); err != nil {
		return nil, nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if err := e.runSteps(tabCtx, steps); err != nil {
		return nil, nil, err
	}

	capture, err := e.capture(tabCtx, url)
	if err != nil {
		return nil, nil, err
	}

	// pull the bodies once the page has settled
	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		for id, resp := range recorded {
			body, err := network.GetResponseBody(id).Do(ctx)
			if err != nil {
				e.logger.Warn("response body unavailable", "url", resp.URL, "err", err)
				continue
			}
			resp.Body = body
		}
		return nil
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("collect response bodies: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	responses := make([]APIResponse, 0, len(order))
	for _, id := range order {
		responses = append(responses, *recorded[id])
	}
	return capture, responses, nil
}

// FindAPIResponse returns the first recorded response whose URL contains
// substr, or nil.
func FindAPIResponse(responses []APIResponse, substr string) *APIResponse {
	for i := range responses {
		if strings.Contains(responses[i].URL, substr) {
			return &responses[i]
		}
	}
	return nil
}

func (e *Extractor) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.WindowSize(e.viewportW, e.viewportH))
	if !e.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if e.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.userAgent))
	}
	if e.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(e.proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	if e.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, e.timeout)
		inner := cancel
		cancel = func() {
			cancelTimeout()
			inner()
		}
	}

	return tabCtx, cancel
}

func (e *Extractor) runSteps(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		e.logger.Debug("running step", "step", step.String())
		if err := chromedp.Run(ctx, step.action()); err != nil {
			return &StepError{Step: step, Err: err}
		}
	}
	return nil
}

func (e *Extractor) capture(ctx context.Context, url string) (*Capture, error) {
	var captured struct {
		Raw    string `json:"raw"`
		Method string `json:"method"`
	}

	if err := chromedp.Run(ctx, chromedp.Evaluate(captureScript, &captured)); err != nil {
		return nil, fmt.Errorf("evaluate capture script: %w", err)
	}

	if captured.Method == "" || captured.Raw == "" {
		return nil, extract.ErrNoNuxtData
	}

	e.logger.Info("captured nuxt payload",
		"url", url, "method", captured.Method, "bytes", len(captured.Raw))

	return &Capture{Raw: captured.Raw, Method: extract.Method(captured.Method)}, nil
}
