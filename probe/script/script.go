// Package script implements a deterministic, pre-scripted probe for tests.
// The page state is indexed by tick, and the fake clock only advances
// through WaitTick, so a detection run is fully reproducible.
package script

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goLogin/probe"
)

// Step is the page state at one tick. The last step repeats once the
// script runs out.
type Step struct {
	URL     string
	Visible []probe.Locator
	Texts   map[probe.Locator]string

	// URLErr and VisibleErr inject probe faults at this tick.
	URLErr     error
	VisibleErr error
}

// Fill records one Fill call.
type Fill struct {
	Loc   probe.Locator
	Value string
}

// Probe is a scripted probe.Probe. It records every Click and Fill so
// tests can assert the exact interaction sequence.
type Probe struct {
	mu    sync.Mutex
	steps []Step
	idx   int
	now   time.Time

	clicks []probe.Locator
	fills  []Fill

	// ClickErr, when set, overrides the default always-succeed Click.
	ClickErr func(probe.Locator) error
}

// New builds a scripted probe starting at start. Steps advance one per
// WaitTick call, regardless of the requested duration.
func New(start time.Time, steps ...Step) *Probe {
	if len(steps) == 0 {
		steps = []Step{{}}
	}
	return &Probe{
		steps: steps,
		now:   start,
	}
}

// Now is the fake clock. Wire it as the Now dependency of whatever is
// driving this probe.
func (p *Probe) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Tick reports how many WaitTick calls have been made.
func (p *Probe) Tick() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}

// Clicks returns the recorded Click calls in order.
func (p *Probe) Clicks() []probe.Locator {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]probe.Locator, len(p.clicks))
	copy(out, p.clicks)
	return out
}

// Fills returns the recorded Fill calls in order.
func (p *Probe) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}

func (p *Probe) current() Step {
	idx := p.idx
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	return p.steps[idx]
}

func (p *Probe) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current()
	if cur.URLErr != nil {
		return "", cur.URLErr
	}
	return cur.URL, nil
}

func (p *Probe) IsVisible(ctx context.Context, loc probe.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current()
	if cur.VisibleErr != nil {
		return false, cur.VisibleErr
	}
	for _, v := range cur.Visible {
		if v == loc {
			return true, nil
		}
	}
	return false, nil
}

func (p *Probe) Click(ctx context.Context, loc probe.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, loc)
	if p.ClickErr != nil {
		return p.ClickErr(loc)
	}
	return nil
}

func (p *Probe) Fill(ctx context.Context, loc probe.Locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills = append(p.fills, Fill{Loc: loc, Value: value})
	return nil
}

func (p *Probe) Text(ctx context.Context, loc probe.Locator) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current()
	if text, ok := cur.Texts[loc]; ok {
		return text, nil
	}
	return "", probe.ErrElementNotFound
}

// WaitTick advances the fake clock by d and moves to the next scripted
// step. It never sleeps.
func (p *Probe) WaitTick(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
	p.idx++
	return nil
}

var _ probe.Probe = (*Probe)(nil)
