// Package rod adapts a go-rod browser page to the probe contract.
package rod

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/MrEthical07/goLogin/probe"
)

// Probe drives a live browser page. The page is owned by the caller; the
// probe never navigates, closes, or reconfigures it.
type Probe struct {
	page *rod.Page
}

// New wraps page as a probe.Probe.
func New(page *rod.Page) *Probe {
	return &Probe{page: page}
}

func (p *Probe) CurrentURL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *Probe) IsVisible(ctx context.Context, loc probe.Locator) (bool, error) {
	el, err := p.find(ctx, loc)
	if err != nil {
		if errors.Is(err, probe.ErrElementNotFound) {
			return false, nil
		}
		return false, err
	}
	return el.Visible()
}

func (p *Probe) Click(ctx context.Context, loc probe.Locator) error {
	el, err := p.find(ctx, loc)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Probe) Fill(ctx context.Context, loc probe.Locator, value string) error {
	el, err := p.find(ctx, loc)
	if err != nil {
		return err
	}
	// select existing content so Input replaces instead of appending
	_ = el.SelectAllText()
	return el.Input(value)
}

func (p *Probe) Text(ctx context.Context, loc probe.Locator) (string, error) {
	el, err := p.find(ctx, loc)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (p *Probe) WaitTick(ctx context.Context, d time.Duration) error {
	return probe.Wait(ctx, d)
}

// BearerToken reads the access token the web app keeps in local storage
// after authentication. Pages that store it elsewhere need their own
// adapter.
func (p *Probe) BearerToken(ctx context.Context) (string, error) {
	result, err := p.page.Context(ctx).Eval(
		`() => window.localStorage.getItem("access_token") || ""`)
	if err != nil {
		return "", err
	}
	return result.Value.Str(), nil
}

func (p *Probe) find(ctx context.Context, loc probe.Locator) (*rod.Element, error) {
	page := p.page.Context(ctx)

	switch loc.Kind {
	case probe.KindCSS:
		has, el, err := page.Has(loc.Value)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, probe.ErrElementNotFound
		}
		return el, nil
	case probe.KindText:
		has, el, err := page.HasR("*", regexp.QuoteMeta(loc.Value))
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, probe.ErrElementNotFound
		}
		return el, nil
	default:
		// URL locators carry no element to resolve.
		return nil, probe.ErrElementNotFound
	}
}

var _ probe.Probe = (*Probe)(nil)
