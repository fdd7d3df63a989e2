package browser

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Step is one scripted interaction run against the page before the payload
// is captured. Steps are built with the constructors below and execute in
// the order given to Extract.
type Step struct {
	kind     stepKind
	selector string
	value    string
	duration time.Duration
}

type stepKind int

const (
	stepClick stepKind = iota
	stepFill
	stepWaitVisible
	stepSleep
	stepScroll
	stepHover
)

// Click clicks the first element matching the CSS selector.
func Click(selector string) Step {
	return Step{kind: stepClick, selector: selector}
}

// Fill types value into the first element matching the CSS selector.
func Fill(selector, value string) Step {
	return Step{kind: stepFill, selector: selector, value: value}
}

// WaitVisible blocks until the first element matching the CSS selector is
// visible.
func WaitVisible(selector string) Step {
	return Step{kind: stepWaitVisible, selector: selector}
}

// Sleep pauses for the given duration. Prefer WaitVisible where a selector
// exists; Sleep is for pages with no usable readiness signal.
func Sleep(d time.Duration) Step {
	return Step{kind: stepSleep, duration: d}
}

// Scroll scrolls the first element matching the CSS selector into view.
func Scroll(selector string) Step {
	return Step{kind: stepScroll, selector: selector}
}

// Hover dispatches a mouseover event on the first element matching the CSS
// selector, for menus and lazy content that load on hover.
func Hover(selector string) Step {
	return Step{kind: stepHover, selector: selector}
}

func (s Step) String() string {
	switch s.kind {
	case stepClick:
		return "click " + s.selector
	case stepFill:
		return "fill " + s.selector
	case stepWaitVisible:
		return "wait-visible " + s.selector
	case stepSleep:
		return "sleep " + s.duration.String()
	case stepScroll:
		return "scroll " + s.selector
	case stepHover:
		return "hover " + s.selector
	}
	return "unknown step"
}

func (s Step) action() chromedp.Action {
	switch s.kind {
	case stepClick:
		return chromedp.Click(s.selector, chromedp.ByQuery)
	case stepFill:
		return chromedp.SendKeys(s.selector, s.value, chromedp.ByQuery)
	case stepWaitVisible:
		return chromedp.WaitVisible(s.selector, chromedp.ByQuery)
	case stepSleep:
		return chromedp.Sleep(s.duration)
	case stepScroll:
		return chromedp.ScrollIntoView(s.selector, chromedp.ByQuery)
	case stepHover:
		return chromedp.Evaluate(hoverScript(s.selector), nil)
	}
	return chromedp.Sleep(0)
}

func hoverScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%q);
	if (el) {
		el.dispatchEvent(new MouseEvent('mouseover', { bubbles: true }));
	}
})()`, selector)
}

// StepError reports which step failed while driving the page.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
