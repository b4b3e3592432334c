package pipeline

import (
	"context"
	"sync"
)

// Token identifies one generation attempt within a session.
type Token uint64

// Guard hands out generation tokens. Starting a new generation or abandoning
// the current one cancels the previous context and makes its token stale, so a
// late result can be recognised and dropped.
type Guard struct {
	mu      sync.Mutex
	current Token
	cancel  context.CancelFunc
}

// Begin starts a generation and returns its context and token.
func (g *Guard) Begin(parent context.Context) (context.Context, Token) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	g.current++
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	return ctx, g.current
}

// Done ends the generation for tok and reports whether its result may be applied.
func (g *Guard) Done(tok Token) bool {
	return g.Finish(tok, nil)
}

// Finish ends the generation for tok. If tok is still current, fn runs while
// the guard is held, so no Begin or Abandon can interleave between the check
// and fn. It reports whether tok was current.
func (g *Guard) Finish(tok Token, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if tok != g.current {
		return false
	}
	if fn != nil {
		fn()
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return true
}

// Abandon cancels the in-flight generation, if any. It reports whether one was running.
func (g *Guard) Abandon() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel == nil {
		return false
	}
	g.cancel()
	g.cancel = nil
	g.current++
	return true
}

// Current reports whether tok is still the latest generation.
func (g *Guard) Current(tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return tok == g.current
}

// InFlight reports whether a generation is running.
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}
