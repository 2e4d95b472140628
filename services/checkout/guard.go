package checkout

import (
	"sync"
	"sync/atomic"
)

// Trigger identifies which completion path fired first.
type Trigger string

const (
	TriggerChallenge   Trigger = "challenge_verification"
	TriggerExplicitPay Trigger = "explicit_pay"
)

// CompletionGuard deduplicates order completion across the two trigger
// paths. TryComplete returns true exactly once per checkout session, to the
// first caller, regardless of which trigger it was; every later caller gets
// false. The check-and-set is a single atomic CAS, so the two triggers can
// race freely.
type CompletionGuard struct {
	done uint32

	mu     sync.Mutex
	winner Trigger
}

func NewCompletionGuard() *CompletionGuard {
	return &CompletionGuard{}
}

func (g *CompletionGuard) TryComplete(trigger Trigger) bool {
	if !atomic.CompareAndSwapUint32(&g.done, 0, 1) {
		return false
	}
	g.mu.Lock()
	g.winner = trigger
	g.mu.Unlock()
	return true
}

func (g *CompletionGuard) Completed() bool {
	return atomic.LoadUint32(&g.done) == 1
}

// Winner reports the trigger that won the race; empty until completion.
func (g *CompletionGuard) Winner() Trigger {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}
