// Package probe defines the narrow capability surface the login engine
// needs from a browser or automation session.
//
// A Probe is a thin I/O wrapper: it answers "where is the session right
// now" and "is this thing on screen", and it can click and type. It holds
// no retry or backoff logic; bounded waiting is the caller's job. Every
// adapter (probe/rod for a live browser, probe/script for deterministic
// tests) implements exactly this contract.
package probe

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned by Click, Fill, and Text when the locator
// does not resolve to a live element. Callers must never swallow it
// silently; the detection layer maps it to an explicit outcome.
var ErrElementNotFound = errors.New("element not found")

// LocatorKind selects how a Locator value is resolved by the backend.
type LocatorKind string

const (
	// KindCSS resolves the locator value as a CSS selector.
	KindCSS LocatorKind = "css"
	// KindText resolves the locator value as a visible-text match.
	KindText LocatorKind = "text"
	// KindURL matches the locator value as a substring of the current URL.
	// URL locators are only meaningful to callers comparing CurrentURL;
	// element operations on them fail with ErrElementNotFound.
	KindURL LocatorKind = "url"
)

// Locator is an opaque element descriptor. Resolution logic lives in the
// backend adapter; the engine only carries locators around and compares
// them for emptiness.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// CSS builds a CSS-selector locator.
func CSS(selector string) Locator {
	return Locator{Kind: KindCSS, Value: selector}
}

// Text builds a visible-text locator.
func Text(text string) Locator {
	return Locator{Kind: KindText, Value: text}
}

// URL builds a URL-substring locator.
func URL(substring string) Locator {
	return Locator{Kind: KindURL, Value: substring}
}

// Zero reports whether the locator is unset.
func (l Locator) Zero() bool {
	return l.Value == ""
}

// Probe is the minimal session capability set consumed by the MFA
// completion detector and the login orchestrator.
//
// Implementations must be safe for sequential use from a single goroutine;
// they are never shared across concurrent login attempts. WaitTick must
// suspend cooperatively and honor ctx cancellation rather than block a
// worker thread.
type Probe interface {
	// CurrentURL reports the session's current location.
	CurrentURL(ctx context.Context) (string, error)

	// IsVisible reports whether the locator resolves to a visible element.
	// Absence is not an error: it returns (false, nil).
	IsVisible(ctx context.Context, loc Locator) (bool, error)

	// Click clicks the element the locator resolves to, failing with
	// ErrElementNotFound when it is absent.
	Click(ctx context.Context, loc Locator) error

	// Fill types value into the element the locator resolves to, failing
	// with ErrElementNotFound when it is absent.
	Fill(ctx context.Context, loc Locator, value string) error

	// Text extracts the visible text of the element, failing with
	// ErrElementNotFound when it is absent.
	Text(ctx context.Context, loc Locator) (string, error)

	// WaitTick suspends the calling flow for d without occupying a worker
	// thread. It returns ctx.Err() when the context is done first.
	WaitTick(ctx context.Context, d time.Duration) error
}

// Wait is the canonical WaitTick implementation for adapters that have no
// backend-native pacing primitive.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
